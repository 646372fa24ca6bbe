package domain

import (
	"time"

	"github.com/google/uuid"
)

// RebuildReason identifies what triggered an index rebuild
type RebuildReason string

const (
	RebuildReasonStartup    RebuildReason = "startup"
	RebuildReasonAPI        RebuildReason = "api"
	RebuildReasonCLI        RebuildReason = "cli"
	RebuildReasonFileChange RebuildReason = "file_change"
	RebuildReasonBroadcast  RebuildReason = "broadcast" // received from another instance
)

// RebuildRequest asks the index worker to rebuild the knowledge index
type RebuildRequest struct {
	ID          string        `json:"id"`
	Reason      RebuildReason `json:"reason"`
	Origin      string        `json:"origin,omitempty"` // instance that published the request
	RequestedAt time.Time     `json:"requested_at"`
}

// NewRebuildRequest creates a request with a fresh ID
func NewRebuildRequest(reason RebuildReason, origin string) *RebuildRequest {
	return &RebuildRequest{
		ID:          uuid.NewString(),
		Reason:      reason,
		Origin:      origin,
		RequestedAt: time.Now(),
	}
}
