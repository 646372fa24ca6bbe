package domain

import (
	"reflect"
	"testing"
)

func TestCapabilities_Zero(t *testing.T) {
	var c Capabilities

	if c.CanSearchKB() {
		t.Error("expected no KB search without an embedding model")
	}
	if c.CanGenerate() {
		t.Error("expected no generation without an LLM model")
	}
	if c.PersistsConversations() || c.PersistsSeeds() {
		t.Error("expected no persistence without backends")
	}

	want := []string{"kb_search", "generation", "speech"}
	if got := c.Degraded(); !reflect.DeepEqual(got, want) {
		t.Errorf("Degraded() = %v, want %v", got, want)
	}
}

func TestCapabilities_FullyWired(t *testing.T) {
	c := Capabilities{
		Backends:       Backends{Conversation: "redis", Seeds: "postgres", Lock: "redis"},
		EmbeddingModel: "text-embedding-3-small",
		LLMModel:       "gpt-4o-mini",
		Speech:         true,
	}

	if !c.CanSearchKB() || !c.CanGenerate() {
		t.Error("expected KB search and generation")
	}
	if !c.PersistsConversations() || !c.PersistsSeeds() {
		t.Error("expected persistence")
	}
	if got := c.Degraded(); len(got) != 0 {
		t.Errorf("Degraded() = %v, want none", got)
	}
}

func TestCapabilities_BackendNames(t *testing.T) {
	tests := []struct {
		backend string
		want    bool
	}{
		{"", false},
		{"none", false},
		{"redis", true},
		{"sqlite", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			c := Capabilities{Backends: Backends{Conversation: tt.backend, Seeds: tt.backend}}
			if got := c.PersistsConversations(); got != tt.want {
				t.Errorf("PersistsConversations() = %v, want %v", got, tt.want)
			}
			if got := c.PersistsSeeds(); got != tt.want {
				t.Errorf("PersistsSeeds() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCapabilities_PartialDegradation(t *testing.T) {
	c := Capabilities{LLMModel: "llama3.2"}

	want := []string{"kb_search", "speech"}
	if got := c.Degraded(); !reflect.DeepEqual(got, want) {
		t.Errorf("Degraded() = %v, want %v", got, want)
	}
}
