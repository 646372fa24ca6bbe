package mocks

import (
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven"
)

// Verify interface compliance
var (
	_ driven.EmbeddingService  = (*MockEmbeddingService)(nil)
	_ driven.LLMService        = (*MockLLMService)(nil)
	_ driven.SpeechSynthesizer = (*MockSpeechSynthesizer)(nil)
	_ driven.ConversationStore = (*MockConversationStore)(nil)
	_ driven.SeedStore         = (*MockSeedStore)(nil)
	_ driven.KnowledgeSource   = (*MockKnowledgeSource)(nil)
	_ driven.RebuildBus        = (*MockRebuildBus)(nil)
	_ driven.DistributedLock   = (*MockDistributedLock)(nil)
)
