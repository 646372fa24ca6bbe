package services

import (
	"io"
	"log/slog"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
	"github.com/custodia-labs/sercha-concierge/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/sercha-concierge/internal/runtime"
)

const testBusinessName = "The Himalayan House"

// testKnowledgeBase returns a small restaurant knowledge base
func testKnowledgeBase() *domain.KnowledgeBase {
	return &domain.KnowledgeBase{
		Business: domain.BusinessInfo{
			Name:        testBusinessName,
			Description: "Nepali and Tibetan home cooking in the heart of the city",
			Tagline:     "Taste the mountains",
		},
		Facts: map[string]string{
			"founded": "2015",
		},
		Locations: []domain.Location{
			{
				Name:    "Downtown",
				Address: "12 Mountain Road, Springfield",
				Phone:   "555-0100",
				Hours: map[string]string{
					"tuesday": "11am-10pm",
					"monday":  "closed",
				},
			},
		},
		Menu: domain.Menu{
			Categories: map[string][]domain.MenuItem{
				"dumplings": {
					{Name: "Momos", Description: "steamed dumplings"},
				},
				"noodles": {
					{Name: "Chow Mein", Description: "stir fried noodles with vegetables", Price: "$12", Vegetarian: true},
				},
				"soups": {
					{Name: "Thukpa", Description: "hearty noodle soup", Price: "$11", Spicy: true},
				},
			},
			SignatureDishes: []string{"Momos", "Thukpa"},
		},
		Chefs: []domain.Chef{
			{Name: "Pemba Sherpa", Title: "Head Chef", Specialties: []string{"momos", "thukpa"}},
		},
		Policies: map[string]string{
			"reservations": "Reservations are recommended for groups of six or more.",
			"delivery":     "We deliver within 5 miles.",
		},
		Allergens: []string{"peanuts", "dairy", "gluten"},
		FAQ: []domain.FAQEntry{
			{Question: "Do you have vegetarian options?", Answer: "Yes, most of our dishes can be made vegetarian."},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServices creates runtime services with a mock embedder and model
func newTestServices(embedder *mocks.MockEmbeddingService, llm *mocks.MockLLMService) *runtime.Services {
	services := runtime.NewServices(domain.Backends{}, discardLogger())
	if embedder != nil {
		services.SetEmbeddingService(embedder)
	}
	if llm != nil {
		services.SetLLMService(llm)
	}
	return services
}
