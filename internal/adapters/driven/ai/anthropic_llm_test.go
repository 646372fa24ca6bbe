package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewAnthropicLLM_Defaults(t *testing.T) {
	if _, err := NewAnthropicLLM("", "", ""); err == nil {
		t.Error("expected error for empty API key")
	}

	svc, err := NewAnthropicLLM("sk-ant-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Model() != defaultAnthropicModel {
		t.Errorf("expected default model %s, got %s", defaultAnthropicModel, svc.Model())
	}
	if err := svc.Close(); err != nil {
		t.Errorf("expected no error from Close, got %v", err)
	}
}

func TestAnthropicLLM_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("expected /v1/messages, got %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "sk-ant-test" {
			t.Error("expected x-api-key header")
		}

		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "claude-test" || len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-test",
			"content": [{"type": "text", "text": "We open at "}, {"type": "text", "text": "11am."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer server.Close()

	svc, err := NewAnthropicLLM("sk-ant-test", "claude-test", server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.Generate(context.Background(), "User: when do you open\nAssistant:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "We open at 11am." {
		t.Errorf("expected joined text blocks, got %q", got)
	}
}

func TestAnthropicLLM_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer server.Close()

	svc, _ := NewAnthropicLLM("sk-ant-test", "claude-test", server.URL)
	if _, err := svc.Generate(context.Background(), "hi"); err == nil {
		t.Error("expected error for API error response")
	}
}
