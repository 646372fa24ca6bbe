package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		utterance string
		tag       domain.QueryTag
		route     domain.Route
	}{
		{"what's my name", domain.TagIdentity, domain.RouteMemoryHandling},
		{"what is my name?", domain.TagIdentity, domain.RouteMemoryHandling},
		{"who am i", domain.TagIdentity, domain.RouteMemoryHandling},
		{"what did i ask you", domain.TagMemory, domain.RouteMemoryHandling},
		{"what food did i ask about", domain.TagMemory, domain.RouteMemoryHandling},
		{"what were we talking about", domain.TagMemory, domain.RouteMemoryHandling},
		{"remind me what dish you recommended earlier", domain.TagMemory, domain.RouteMemoryHandling},
		{"tell me a story", domain.TagOffTopicNarrative, domain.RouteGenericLlm},
		{"tell me a funny joke", domain.TagOffTopicNarrative, domain.RouteGenericLlm},
		{"can you tell me a story about the restaurant", domain.TagOffTopicNarrative, domain.RouteGenericLlm},
		{"recommend me a movie", domain.TagGeneralKnowledge, domain.RouteGenericLlm},
		{"how does the internet work", domain.TagGeneralKnowledge, domain.RouteGenericLlm},
		{"what are momos", domain.TagDomain, domain.RouteKbLookup},
		{"how much is the chow mein", domain.TagDomain, domain.RouteKbLookup},
		{"what are your hours", domain.TagDomain, domain.RouteKbLookup},
		{"is it gluten free", domain.TagDomain, domain.RouteKbLookup},
		{"do you have pizza", domain.TagContextual, domain.RouteKbLookup},
		{"what do you use for cooking", domain.TagContextual, domain.RouteKbLookup},
		{"who supplies your meat", domain.TagContextual, domain.RouteKbLookup},
		{"hello there", domain.TagUnknown, domain.RouteGenericLlm},
		{"", domain.TagUnknown, domain.RouteGenericLlm},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			got := c.Classify(tt.utterance)
			assert.Equal(t, tt.tag, got.Tag)
			assert.Equal(t, tt.route, got.Route())
		})
	}
}

func TestClassifier_MemoryWinsOverDomainKeywords(t *testing.T) {
	c := NewClassifier(nil)

	// contains "food" and "momos" but is about the conversation
	got := c.Classify("what food did i ask about earlier, was it momos")
	assert.True(t, got.IsMemoryQuestion)
	assert.False(t, got.InDomain)
	assert.Equal(t, "memory", got.Rule)
}

func TestClassifier_NarrativeWinsOverDomainKeywords(t *testing.T) {
	got := NewClassifier(nil).Classify("tell me a story about your chef")
	assert.True(t, got.IsOffTopicNarrative)
	assert.False(t, got.InDomain)
}

func TestClassifier_FlagsMatchTag(t *testing.T) {
	c := NewClassifier(nil)

	identity := c.Classify("what's my name")
	assert.True(t, identity.IsIdentityQuestion)
	assert.True(t, identity.NeedsValidation())

	general := c.Classify("explain the theory of relativity")
	assert.True(t, general.IsGeneralKnowledge)
	assert.False(t, general.NeedsValidation())

	domainQ := c.Classify("do you have vegan dishes")
	assert.True(t, domainQ.InDomain)
	assert.False(t, domainQ.NeedsValidation())
}

func TestClassifier_KeywordsMatchWholeWords(t *testing.T) {
	c := NewClassifier(nil)

	// "opener" and "tablet" must not match "open" and "table"
	assert.False(t, c.Classify("my tablet is an opener").InDomain)
	assert.True(t, c.Classify("are you open on sunday").InDomain)
}

func TestDefaultClassifierRules_Precedence(t *testing.T) {
	rules := DefaultClassifierRules()

	var names []string
	for _, r := range rules {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"identity", "memory", "narrative", "general-knowledge", "domain-keyword", "possessive"}, names)
	assert.Equal(t, domain.TagIdentity, rules[0].Tag)
	assert.Equal(t, domain.TagContextual, rules[len(rules)-1].Tag)
}

func TestClassifier_CustomRules(t *testing.T) {
	c := NewClassifier([]ClassifierRule{
		{Name: "always", Tag: domain.TagDomain, Match: func(string) bool { return true }},
	})

	got := c.Classify("what's my name")
	assert.True(t, got.InDomain)
	assert.Equal(t, "always", got.Rule)
	assert.Len(t, c.Rules(), 1)
}
