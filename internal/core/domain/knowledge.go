package domain

// KnowledgeBase is the structured, curated data the chunk index is built from.
// It is usually loaded from a YAML or JSON file.
type KnowledgeBase struct {
	Business  BusinessInfo      `json:"business" yaml:"business"`
	Facts     map[string]string `json:"facts,omitempty" yaml:"facts,omitempty"`
	Locations []Location        `json:"locations,omitempty" yaml:"locations,omitempty"`
	Menu      Menu              `json:"menu" yaml:"menu"`
	Chefs     []Chef            `json:"chefs,omitempty" yaml:"chefs,omitempty"`
	Policies  map[string]string `json:"policies,omitempty" yaml:"policies,omitempty"`
	Allergens []string          `json:"allergens,omitempty" yaml:"allergens,omitempty"`
	FAQ       []FAQEntry        `json:"faq,omitempty" yaml:"faq,omitempty"`
}

// BusinessInfo describes the business the assistant speaks for
type BusinessInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Tagline     string `json:"tagline,omitempty" yaml:"tagline,omitempty"`
}

// Location is a physical branch with contact details and opening hours
type Location struct {
	Name    string            `json:"name,omitempty" yaml:"name,omitempty"`
	Address string            `json:"address,omitempty" yaml:"address,omitempty"`
	Phone   string            `json:"phone,omitempty" yaml:"phone,omitempty"`
	Hours   map[string]string `json:"hours,omitempty" yaml:"hours,omitempty"` // day -> time range
}

// Menu groups items by category
type Menu struct {
	Categories      map[string][]MenuItem `json:"categories,omitempty" yaml:"categories,omitempty"`
	SignatureDishes []string              `json:"signature_dishes,omitempty" yaml:"signature_dishes,omitempty"`
	Notes           string                `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// MenuItem is a single dish
type MenuItem struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Price       string `json:"price,omitempty" yaml:"price,omitempty"`
	BestSeller  bool   `json:"best_seller,omitempty" yaml:"best_seller,omitempty"`
	Spicy       bool   `json:"spicy,omitempty" yaml:"spicy,omitempty"`
	Vegetarian  bool   `json:"vegetarian,omitempty" yaml:"vegetarian,omitempty"`
}

// Chef is a member of the kitchen staff
type Chef struct {
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Specialties []string `json:"specialties,omitempty" yaml:"specialties,omitempty"`
}

// FAQEntry is a curated question/answer pair
type FAQEntry struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// EntityNames returns the proper names the knowledge base knows about:
// menu items, signature dishes, chefs and the business itself.
func (kb *KnowledgeBase) EntityNames() []string {
	if kb == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var names []string
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	add(kb.Business.Name)
	for _, items := range kb.Menu.Categories {
		for _, item := range items {
			add(item.Name)
		}
	}
	for _, dish := range kb.Menu.SignatureDishes {
		add(dish)
	}
	for _, chef := range kb.Chefs {
		add(chef.Name)
	}
	return names
}
