package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// chunkNamespace scopes deterministic chunk IDs derived from source paths.
var chunkNamespace = uuid.MustParse("5b0e7f5e-3f64-4c8e-9a51-6c1f0d2a9e43")

// ChunkID returns the stable ID for a source path
func ChunkID(sourcePath string) string {
	return uuid.NewSHA1(chunkNamespace, []byte(sourcePath)).String()
}

// ContentHash fingerprints the embeddable text of a chunk
func ContentHash(chunk *domain.KbChunk) string {
	sum := sha256.Sum256([]byte(chunk.Text))
	return hex.EncodeToString(sum[:])
}

var weekdayOrder = map[string]int{
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3,
	"friday": 4, "saturday": 5, "sunday": 6,
}

// chunkBuilder accumulates chunks in walk order
type chunkBuilder struct {
	chunks []*domain.KbChunk
}

func (b *chunkBuilder) add(kind domain.ChunkKind, path, text, answer string, opts ...func(*domain.ChunkMetadata)) {
	meta := domain.ChunkMetadata{Kind: kind, SourcePath: path}
	for _, opt := range opts {
		opt(&meta)
	}
	b.chunks = append(b.chunks, &domain.KbChunk{
		ID:         ChunkID(path),
		Text:       text,
		AnswerText: answer,
		Metadata:   meta,
	})
}

func withCategory(category string) func(*domain.ChunkMetadata) {
	return func(m *domain.ChunkMetadata) { m.Category = category }
}

func withEntity(entity string) func(*domain.ChunkMetadata) {
	return func(m *domain.ChunkMetadata) { m.Entity = entity }
}

func withExtra(key, value string) func(*domain.ChunkMetadata) {
	return func(m *domain.ChunkMetadata) {
		if value == "" {
			return
		}
		if m.Extra == nil {
			m.Extra = make(map[string]string)
		}
		m.Extra[key] = value
	}
}

// BuildChunks walks the knowledge base in a fixed order and emits one chunk
// per retrievable fact. Text carries a kind prefix to aid matching while
// AnswerText is the clean fact shown to the user. Map-backed sections are
// walked in sorted key order so identical input always yields identical output.
func BuildChunks(kb *domain.KnowledgeBase) []*domain.KbChunk {
	if kb == nil {
		return nil
	}
	b := &chunkBuilder{}

	// business
	if name := kb.Business.Name; name != "" {
		b.add(domain.ChunkKindBusiness, "business.name", "business name: "+name, name)
	}
	if d := kb.Business.Description; d != "" {
		b.add(domain.ChunkKindBusiness, "business.description", "business description: "+d, d)
	}
	if t := kb.Business.Tagline; t != "" {
		b.add(domain.ChunkKindBusiness, "business.tagline", "business tagline: "+t, t)
	}

	// named facts
	for _, key := range sortedKeys(kb.Facts) {
		value := kb.Facts[key]
		if value == "" {
			continue
		}
		label := strings.ReplaceAll(key, "_", " ")
		b.add(domain.ChunkKindFact, "facts."+key, fmt.Sprintf("fact %s: %s", label, value), value)
	}

	// locations
	for i, loc := range kb.Locations {
		base := fmt.Sprintf("locations[%d]", i)
		if loc.Name != "" {
			b.add(domain.ChunkKindLocation, base+".name", "location name: "+loc.Name, loc.Name, withExtra("field", "name"))
		}
		if loc.Address != "" {
			b.add(domain.ChunkKindLocation, base+".address", "location address: "+loc.Address, loc.Address, withExtra("field", "address"))
		}
		if loc.Phone != "" {
			b.add(domain.ChunkKindLocation, base+".phone", "location phone: "+loc.Phone, loc.Phone, withExtra("field", "phone"))
		}
		if len(loc.Hours) > 0 {
			hours := formatHours(loc.Hours)
			b.add(domain.ChunkKindLocation, base+".hours", "location hours: "+hours, hours, withExtra("field", "hours"))
		}
	}

	// menu items
	categories := make([]string, 0, len(kb.Menu.Categories))
	for category := range kb.Menu.Categories {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for i, item := range kb.Menu.Categories[category] {
			if item.Name == "" {
				continue
			}
			path := fmt.Sprintf("menu.categories.%s[%d]", category, i)
			b.add(domain.ChunkKindMenuItem, path, menuItemText(item, category), menuItemAnswer(item),
				withCategory(category),
				withEntity(item.Name),
				withExtra("price", item.Price),
			)
		}
	}

	// signature dishes
	if len(kb.Menu.SignatureDishes) > 0 {
		list := strings.Join(kb.Menu.SignatureDishes, ", ")
		b.add(domain.ChunkKindMenu, "menu.signature_dishes",
			"signature dishes best selling popular items: "+list,
			fmt.Sprintf("Our signature dishes include: %s.", list),
			withExtra("field", "signature_dishes"))
	}

	// menu overview
	if len(categories) > 0 {
		answer := fmt.Sprintf("We serve %s.", strings.Join(categories, ", "))
		if kb.Menu.Notes != "" {
			answer += " " + kb.Menu.Notes
		}
		if len(kb.Menu.SignatureDishes) > 0 {
			answer += fmt.Sprintf(" Our signature dishes include %s.", strings.Join(kb.Menu.SignatureDishes, ", "))
		}
		b.add(domain.ChunkKindMenu, "menu", "menu items dishes food: "+answer, answer, withExtra("field", "overview"))
	}

	// chefs
	for i, chef := range kb.Chefs {
		if chef.Name == "" {
			continue
		}
		text := "chef: " + chef.Name
		answer := chef.Name
		if chef.Title != "" {
			text += " title: " + chef.Title
			answer += ", " + chef.Title
		}
		answer += "."
		if len(chef.Specialties) > 0 {
			specialties := strings.Join(chef.Specialties, ", ")
			text += " specialties: " + specialties
			answer += " Specialties: " + specialties + "."
		}
		b.add(domain.ChunkKindChef, fmt.Sprintf("chefs[%d]", i), text, answer, withEntity(chef.Name))
	}

	// policies
	for _, key := range sortedKeys(kb.Policies) {
		value := kb.Policies[key]
		if value == "" {
			continue
		}
		label := strings.ReplaceAll(key, "_", " ")
		b.add(domain.ChunkKindPolicy, "policies."+key, fmt.Sprintf("policy %s: %s", label, value), value)
	}

	// allergens
	if len(kb.Allergens) > 0 {
		list := strings.Join(kb.Allergens, ", ")
		b.add(domain.ChunkKindAllergy, "allergens", "allergens allergy information: "+list,
			fmt.Sprintf("Common allergens in our kitchen: %s.", list))
	}

	// faq
	for i, faq := range kb.FAQ {
		if faq.Question == "" || faq.Answer == "" {
			continue
		}
		b.add(domain.ChunkKindFAQ, fmt.Sprintf("faq[%d]", i),
			fmt.Sprintf("faq question: %s answer: %s", faq.Question, faq.Answer),
			faq.Answer,
			withExtra("question", faq.Question))
	}

	return b.chunks
}

func menuItemText(item domain.MenuItem, category string) string {
	text := "menu item: " + item.Name
	if item.Description != "" {
		text += " description: " + item.Description
	}
	if item.Price != "" {
		text += " price: " + item.Price
	}
	if item.BestSeller {
		text += " best seller"
	}
	if item.Spicy {
		text += " spicy"
	}
	if item.Vegetarian {
		text += " vegetarian"
	}
	if item.Description == "" {
		text += " category: " + category
	}
	return text
}

func menuItemAnswer(item domain.MenuItem) string {
	answer := item.Name
	if item.Description != "" {
		answer += ": " + item.Description
	}
	if item.Price != "" {
		answer += " Price: " + item.Price
	}
	return answer
}

func formatHours(hours map[string]string) string {
	days := make([]string, 0, len(hours))
	for day := range hours {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		oi, iKnown := weekdayOrder[strings.ToLower(days[i])]
		oj, jKnown := weekdayOrder[strings.ToLower(days[j])]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown != jKnown:
			return iKnown
		default:
			return days[i] < days[j]
		}
	})

	parts := make([]string, len(days))
	for i, day := range days {
		parts[i] = fmt.Sprintf("%s: %s", day, hours[day])
	}
	return strings.Join(parts, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
