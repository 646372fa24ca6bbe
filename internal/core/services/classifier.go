package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// ClassifierRule tags an utterance when Match returns true
type ClassifierRule struct {
	Name  string
	Tag   domain.QueryTag
	Match func(utterance string) bool
}

// Classifier evaluates an ordered rule list; the first matching rule wins.
type Classifier struct {
	rules []ClassifierRule
}

// NewClassifier creates a classifier over rules, in the order given.
// A nil rule list uses DefaultClassifierRules.
func NewClassifier(rules []ClassifierRule) *Classifier {
	if rules == nil {
		rules = DefaultClassifierRules()
	}
	return &Classifier{rules: rules}
}

// Rules returns a copy of the rule list in evaluation order
func (c *Classifier) Rules() []ClassifierRule {
	out := make([]ClassifierRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify tags a normalised utterance
func (c *Classifier) Classify(utterance string) domain.Classification {
	text := strings.TrimRight(strings.TrimSpace(utterance), "?!. ")

	for _, rule := range c.rules {
		if rule.Match(text) {
			return classificationFor(rule.Tag, rule.Name)
		}
	}
	return classificationFor(domain.TagUnknown, "")
}

func classificationFor(tag domain.QueryTag, rule string) domain.Classification {
	c := domain.Classification{Tag: tag, Rule: rule}
	switch tag {
	case domain.TagIdentity:
		c.IsIdentityQuestion = true
	case domain.TagMemory:
		c.IsMemoryQuestion = true
	case domain.TagOffTopicNarrative:
		c.IsOffTopicNarrative = true
	case domain.TagGeneralKnowledge:
		c.IsGeneralKnowledge = true
	case domain.TagDomain, domain.TagContextual:
		c.InDomain = true
	}
	return c
}

// anyPattern matches when any of the patterns matches
func anyPattern(patterns ...string) func(string) bool {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return func(text string) bool {
		for _, re := range compiled {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	}
}

// anyKeyword matches whole words or phrases only, so "menu" does not match "menus"
// unless listed and "open" does not match "opening".
func anyKeyword(keywords ...string) func(string) bool {
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	re := regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return re.MatchString
}

// DomainKeywords is the vocabulary that marks an utterance as being about the business
var DomainKeywords = []string{
	"restaurant", "menu", "menus", "dish", "dishes", "food", "foods", "serve", "serves", "sell", "sells",
	"cook", "kitchen", "momo", "momos", "chow mein", "chowmein", "fried rice", "dal bhat", "curry",
	"curries", "thukpa", "samosa", "samosas", "fries", "price", "prices", "cost", "how much", "cheap",
	"expensive", "discount", "hours", "open", "opening", "close", "closing", "breakfast", "lunch",
	"dinner", "address", "location", "located", "where is", "where are you", "zip", "street", "halal",
	"vegan", "vegetarian", "gluten", "dairy", "nut", "nuts", "allergy", "allergies", "allergen",
	"allergens", "ingredient", "ingredients", "spice", "spices", "spicy", "recipe", "recipes", "sauce",
	"secret", "msg", "oil", "fry", "supplier", "suppliers", "nutrition", "calories", "chef", "chefs",
	"owner", "staff", "employee", "employees", "reservation", "reservations", "booking", "book a table",
	"catering", "delivery", "deliver", "pickup", "takeout", "refund", "policy", "policies", "cancel",
	"table", "seating", "capacity", "founded", "established", "recommend", "popular", "favorite",
	"favourite", "phone", "contact", "parking", "drinks", "dessert", "desserts", "appetizer",
	"appetizers", "special", "specials",
}

// DefaultClassifierRules returns the built-in rules in precedence order:
// identity, memory, off-topic narrative, general knowledge, domain keywords,
// then possessive and contextual phrasing. Memory and identity questions often
// mention food ("what food did i ask about") and must win over keywords.
func DefaultClassifierRules() []ClassifierRule {
	return []ClassifierRule{
		{
			Name: "identity",
			Tag:  domain.TagIdentity,
			Match: anyPattern(
				`^what'?s? my name$`,
				`^what is my name$`,
				`^do you (know|remember) my name$`,
				`^who am i$`,
				`^what am i$`,
				`^what did i say my name (is|was)$`,
			),
		},
		{
			Name: "memory",
			Tag:  domain.TagMemory,
			Match: anyPattern(
				`\bwhat (did|do|does) (i|you|we) (ask|asked|say|said|tell|told|mention|mentioned|discuss|discussed)\b`,
				`\bwhat (was|were) (i|you|we) (talking|discussing|saying|asking) (about|earlier|before)\b`,
				`\b(earlier|previously|just now|a moment ago|last question)\b`,
				`\b(remind|remember|recall|recap)( me| us)? (what|about)\b`,
				`\b(what|which) (food|dish|item|thing|question) (did|do) (i|you) (ask|mention|say|tell)\b`,
				`\bwhat (was|is) my (last|previous|first) question\b`,
				`\bwhat have we (talked|been talking) about\b`,
			),
		},
		{
			Name: "narrative",
			Tag:  domain.TagOffTopicNarrative,
			Match: anyPattern(
				`^(please )?tell me (a|an|another)( \w+)? (story|joke|tale|riddle)\b`,
				`^(please )?(write|give) me (a|an|another)( \w+)? (story|poem|joke|tale)\b`,
				`^(can|could) you tell me (a|an|another)( \w+)? (story|joke|tale)\b`,
			),
		},
		{
			Name: "general-knowledge",
			Tag:  domain.TagGeneralKnowledge,
			Match: anyPattern(
				`\brecommend (a|me a|me) (movie|film|book|show|song)\b`,
				`^explain (the|a|an) `,
				`^what (is|are) (python|programming|science|history|chemistry|physics|math|the weather)\b`,
				`^how does (the|a|an) (moon|earth|sun|computer|internet|phone|car)\b`,
				`^who (is|was) the (president|king|queen|prime minister)\b`,
			),
		},
		{
			Name:  "domain-keyword",
			Tag:   domain.TagDomain,
			Match: anyKeyword(DomainKeywords...),
		},
		{
			Name: "possessive",
			Tag:  domain.TagContextual,
			Match: anyPattern(
				`\b(your|you|ur) (food|menu|dish|dishes|restaurant|kitchen|chef|chefs|owner|staff|ingredients?|spices?|recipes?|sauces?|oils?|suppliers?|secret|best|recommendation|specialty|speciality|popular|favorite|favourite)\b`,
				`\b(you|ur) (use|uses|using|fry|fried|cook|cooks|cooking|make|makes|making|sell|sells|selling|serve|serves|serving|have|has|had|offer|offers|accept|take)\b`,
				`^(what|which|how|who|when|where) (do|does|did|is|are) (you|your|ur|the chef|the kitchen)\b`,
				`\bwho supplies (your|the)\b`,
			),
		},
	}
}
