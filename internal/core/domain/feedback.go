package domain

import "time"

// MaxRating is the best score a guest can give an answer; 0 is the worst
const MaxRating = 5

// DefaultFlagReason is recorded when a guest flags without saying why
const DefaultFlagReason = "Flagged by user"

// AnswerRecord is one delivered answer, kept so guests can rate or flag it
// and staff can review what was flagged. KB answers carry the chunk they
// came from, so a flagged KB answer points at the entry to fix.
type AnswerRecord struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId,omitempty"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Source         Source    `json:"source"`
	ProvenanceRef  string    `json:"provenanceRef,omitempty"`
	Rating         *int      `json:"rating,omitempty"`
	Flagged        bool      `json:"flagged"`
	FlagReason     string    `json:"flagReason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ApplyRating sets the rating. A zero rating also flags the answer.
func (r *AnswerRecord) ApplyRating(rating int, now time.Time) {
	r.Rating = &rating
	if rating == 0 && !r.Flagged {
		r.Flagged = true
		r.FlagReason = "Rated 0 by user"
	}
	r.UpdatedAt = now
}

// ApplyFlag marks the answer for review
func (r *AnswerRecord) ApplyFlag(reason string, now time.Time) {
	if reason == "" {
		reason = DefaultFlagReason
	}
	r.Flagged = true
	r.FlagReason = reason
	r.UpdatedAt = now
}
