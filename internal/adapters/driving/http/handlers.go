package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/sercha-concierge/internal/adapters/driving/http/docs"
	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports index and backend readiness
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Index  bool              `json:"index"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version      string               `json:"version" example:"1.0.0"`
	Capabilities *domain.Capabilities `json:"capabilities,omitempty"`
}

// ChatRequest is one user turn
// @Description Chat request. History is resent by stateless clients.
type ChatRequest struct {
	Message        string          `json:"message" example:"what are momos"`
	History        json.RawMessage `json:"history,omitempty" swaggertype:"array,object"`
	ConversationID string          `json:"conversationId,omitempty"`
	Voice          bool            `json:"voice,omitempty"`
}

// ChatResponse is the answer envelope returned to clients
// @Description Answer envelope
type ChatResponse struct {
	Source         domain.Source             `json:"source" example:"kb"`
	Answer         string                    `json:"answer" example:"Momos: steamed dumplings"`
	History        []domain.ConversationTurn `json:"history"`
	ProvenanceRef  string                    `json:"provenanceRef,omitempty"`
	Score          *float64                  `json:"score,omitempty"`
	AudioBase64    string                    `json:"audioBase64,omitempty"`
	AudioMimeType  string                    `json:"audioMimeType,omitempty"`
	ConversationID string                    `json:"conversationId,omitempty"`
	AnswerID       string                    `json:"answerId,omitempty"`

	// Milliseconds
	ResponseTime    int64 `json:"responseTime" example:"412"`
	LLMResponseTime int64 `json:"llmResponseTime,omitempty" example:"380"`
}

// RateRequest scores a delivered answer
// @Description Answer rating request. A rating of 0 also flags the answer.
type RateRequest struct {
	AnswerID string `json:"answerId" example:"3f6c2a0e-8d1b-4d7e-9a44-0b6f3c1e2d55"`
	Rating   *int   `json:"rating" example:"4"`
}

// FlagRequest marks a delivered answer for review
// @Description Answer flag request
type FlagRequest struct {
	AnswerID string `json:"answerId" example:"3f6c2a0e-8d1b-4d7e-9a44-0b6f3c1e2d55"`
	Reason   string `json:"reason,omitempty" example:"wrong opening hours"`
}

// FeedbackResponse acknowledges a rating or flag
// @Description Feedback acknowledgement
type FeedbackResponse struct {
	Message string               `json:"message" example:"Rating submitted successfully."`
	Note    string               `json:"note,omitempty"`
	Answer  *domain.AnswerRecord `json:"answer"`
}

// FlaggedResponse lists answers awaiting review
type FlaggedResponse struct {
	Answers []*domain.AnswerRecord `json:"answers"`
	Count   int                    `json:"count"`
}

// SearchRequest is a knowledge base search
// @Description Knowledge base search request
type SearchRequest struct {
	Query    string   `json:"query" example:"dumplings"`
	TopK     int      `json:"topK,omitempty" example:"3"`
	MinScore *float64 `json:"minScore,omitempty" example:"0.3"`
}

// SearchHit is one ranked chunk
type SearchHit struct {
	ID         string           `json:"id"`
	Text       string           `json:"text"`
	AnswerText string           `json:"answerText"`
	Kind       domain.ChunkKind `json:"kind"`
	SourcePath string           `json:"sourcePath"`
	Entity     string           `json:"entity,omitempty"`
	Score      float64          `json:"score"`
}

// SearchResponse lists ranked chunks
type SearchResponse struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
	TookMs  int64       `json:"tookMs"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Reports whether the knowledge index is built and backends respond
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Index: s.index != nil && s.index.Ready()}
	if !resp.Index {
		resp.Status = "not_ready"
	}

	if len(s.backends) > 0 {
		resp.Checks = make(map[string]string, len(s.backends))
		for name, backend := range s.backends {
			if err := backend.Ping(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "not_ready"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the build version and the wired AI capabilities
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	resp := VersionResponse{Version: s.version}
	if s.caps != nil {
		caps := s.caps.Capabilities()
		resp.Capabilities = &caps
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSwaggerDoc serves the registered OpenAPI document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "swagger doc unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(doc))
}

// Conversation endpoints

// handleChat godoc
// @Summary      Answer a message
// @Description  Answers one user turn from the knowledge base or the language model. Failures are reported in the envelope with source "error".
// @Tags         Conversation
// @Accept       json
// @Produce      json
// @Param        request  body      ChatRequest   true  "User turn"
// @Success      200      {object}  ChatResponse
// @Failure      400      {object}  ChatResponse  "Undecodable request body"
// @Router       /api/v1/chat [post]
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, false)
}

// handleVoice godoc
// @Summary      Answer a message with speech
// @Description  Same as chat, with synthesized audio attached when available
// @Tags         Conversation
// @Accept       json
// @Produce      json
// @Param        request  body      ChatRequest   true  "User turn"
// @Success      200      {object}  ChatResponse
// @Failure      400      {object}  ChatResponse  "Undecodable request body"
// @Router       /api/v1/voice [post]
func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	s.answer(w, r, true)
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request, forceVoice bool) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ChatResponse{
			Source:  domain.SourceError,
			Answer:  "invalid request body",
			History: []domain.ConversationTurn{},
		})
		return
	}

	history := decodeHistory(req.History)
	env, err := s.answers.Answer(r.Context(), &domain.AnswerRequest{
		Message:        req.Message,
		History:        history,
		ConversationID: req.ConversationID,
		Voice:          req.Voice || forceVoice,
	})
	if env == nil {
		s.logger.Error("answer returned no envelope", "error", err, "request_id", GetRequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, ChatResponse{
			Source:  domain.SourceError,
			Answer:  "error processing request.",
			History: history,
		})
		return
	}
	if err != nil {
		s.logger.Warn("answer failed", "error", err, "source", env.SourceKind(), "request_id", GetRequestID(r.Context()))
	}

	writeJSON(w, http.StatusOK, toChatResponse(env))
}

// decodeHistory tolerates absent or malformed history by treating it as empty.
// Turns with an unknown role or no content are dropped.
func decodeHistory(raw json.RawMessage) []domain.ConversationTurn {
	turns := []domain.ConversationTurn{}
	if len(raw) == 0 {
		return turns
	}

	var decoded []domain.ConversationTurn
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return turns
	}
	for _, t := range decoded {
		if !t.Role.IsValid() || strings.TrimSpace(t.Content) == "" {
			continue
		}
		turns = append(turns, t)
	}
	return turns
}

func toChatResponse(env *domain.AnswerEnvelope) ChatResponse {
	resp := ChatResponse{
		Source:         env.SourceKind(),
		Answer:         env.Answer,
		History:        env.History,
		ProvenanceRef:  env.ProvenanceRef(),
		Score:          env.Score,
		ConversationID: env.ConversationID,
		AnswerID:       env.AnswerID,

		ResponseTime:    env.ResponseTime.Milliseconds(),
		LLMResponseTime: env.LLMResponseTime.Milliseconds(),
	}
	if resp.History == nil {
		resp.History = []domain.ConversationTurn{}
	}
	if env.Audio != nil && len(env.Audio.Bytes) > 0 {
		resp.AudioBase64 = base64.StdEncoding.EncodeToString(env.Audio.Bytes)
		resp.AudioMimeType = env.Audio.MimeType
	}
	return resp
}

// Knowledge base endpoints

// handleSearch godoc
// @Summary      Search the knowledge base
// @Description  Returns ranked chunks for a query, for debugging and audit
// @Tags         Knowledge Base
// @Accept       json
// @Produce      json
// @Param        request  body      SearchRequest  true  "Search query"
// @Success      200      {object}  SearchResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      502      {object}  ErrorResponse  "Embedding provider failed"
// @Failure      503      {object}  ErrorResponse  "Index not built"
// @Router       /api/v1/kb/search [post]
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	opts := domain.DefaultSearchOptions()
	if req.TopK > 0 {
		opts.TopK = req.TopK
	}
	if req.MinScore != nil {
		opts.MinScore = *req.MinScore
	}

	start := time.Now()
	results, err := s.index.Search(r.Context(), req.Query, opts.Normalize())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIndexNotReady):
			writeError(w, http.StatusServiceUnavailable, "index not ready")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error("search failed", "error", err, "request_id", GetRequestID(r.Context()))
			writeError(w, http.StatusBadGateway, "search failed")
		}
		return
	}

	resp := SearchResponse{
		Query:   req.Query,
		Results: make([]SearchHit, 0, len(results)),
		TookMs:  time.Since(start).Milliseconds(),
	}
	for _, res := range results {
		if res.Chunk == nil {
			continue
		}
		resp.Results = append(resp.Results, SearchHit{
			ID:         res.Chunk.ID,
			Text:       res.Chunk.Text,
			AnswerText: res.Chunk.AnswerText,
			Kind:       res.Chunk.Metadata.Kind,
			SourcePath: res.Chunk.Metadata.SourcePath,
			Entity:     res.Chunk.Metadata.Entity,
			Score:      res.Score,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleRebuild godoc
// @Summary      Rebuild the knowledge index
// @Description  Reloads the knowledge base, rebuilds the index and notifies other instances
// @Tags         Knowledge Base
// @Produce      json
// @Success      200  {object}  domain.IndexStats
// @Failure      500  {object}  ErrorResponse
// @Router       /api/v1/kb/rebuild [post]
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	var (
		stats *domain.IndexStats
		err   error
	)
	if s.rebuilder != nil {
		stats, err = s.rebuilder.RebuildNow(r.Context(), domain.RebuildReasonAPI)
	} else {
		stats, err = s.index.Rebuild(r.Context())
	}
	if err != nil {
		s.logger.Error("rebuild failed", "error", err, "request_id", GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "rebuild failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleStats godoc
// @Summary      Knowledge index statistics
// @Description  Returns statistics for the published index
// @Tags         Knowledge Base
// @Produce      json
// @Success      200  {object}  domain.IndexStats
// @Failure      503  {object}  ErrorResponse  "Index not built"
// @Router       /api/v1/kb/stats [get]
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.index.Stats()
	if stats == nil {
		writeError(w, http.StatusServiceUnavailable, "index not ready")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Feedback endpoints

// handleRate godoc
// @Summary      Rate an answer
// @Description  Scores a delivered answer from 0 to 5; a 0 also flags it for review
// @Tags         Feedback
// @Accept       json
// @Produce      json
// @Param        request  body      RateRequest  true  "Rating"
// @Success      200      {object}  FeedbackResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse  "Unknown or expired answer"
// @Failure      503      {object}  ErrorResponse  "Feedback not enabled"
// @Router       /api/v1/feedback/rate [post]
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req RateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AnswerID == "" || req.Rating == nil {
		writeError(w, http.StatusBadRequest, "answerId and rating are required")
		return
	}
	if s.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback not enabled")
		return
	}

	rec, err := s.feedback.Rate(r.Context(), req.AnswerID, *req.Rating)
	if err != nil {
		s.writeFeedbackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeedbackResponse{Message: "Rating submitted successfully.", Answer: rec})
}

// handleFlag godoc
// @Summary      Flag an answer
// @Description  Marks a delivered answer for staff review
// @Tags         Feedback
// @Accept       json
// @Produce      json
// @Param        request  body      FlagRequest  true  "Flag"
// @Success      200      {object}  FeedbackResponse
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse  "Unknown or expired answer"
// @Failure      503      {object}  ErrorResponse  "Feedback not enabled"
// @Router       /api/v1/feedback/flag [post]
func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	var req FlagRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AnswerID == "" {
		writeError(w, http.StatusBadRequest, "answerId is required")
		return
	}
	if s.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback not enabled")
		return
	}

	rec, err := s.feedback.Flag(r.Context(), req.AnswerID, req.Reason)
	if err != nil {
		s.writeFeedbackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FeedbackResponse{
		Message: "Answer flagged for review.",
		Note:    "Thank you for your feedback. Our management team will review this response.",
		Answer:  rec,
	})
}

// handleFlagged godoc
// @Summary      List flagged answers
// @Description  Returns answers guests flagged or rated 0, newest first
// @Tags         Feedback
// @Produce      json
// @Param        limit  query     int  false  "Maximum answers to return"  default(50)
// @Success      200    {object}  FlaggedResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      503    {object}  ErrorResponse  "Feedback not enabled"
// @Router       /api/v1/feedback/flagged [get]
func (s *Server) handleFlagged(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	if s.feedback == nil {
		writeError(w, http.StatusServiceUnavailable, "feedback not enabled")
		return
	}

	records, err := s.feedback.Flagged(r.Context(), limit)
	if err != nil {
		s.writeFeedbackError(w, r, err)
		return
	}
	if records == nil {
		records = []*domain.AnswerRecord{}
	}
	writeJSON(w, http.StatusOK, FlaggedResponse{Answers: records, Count: len(records)})
}

func (s *Server) writeFeedbackError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "answer not found")
	case errors.Is(err, domain.ErrServiceUnavailable):
		writeError(w, http.StatusServiceUnavailable, "feedback not enabled")
	default:
		s.logger.Error("feedback failed", "error", err, "request_id", GetRequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "feedback failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
