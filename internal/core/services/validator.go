package services

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/custodia-labs/sercha-concierge/internal/core/domain"
)

// NarrativeDisclaimer replaces a story or joke that drifted into the business
const NarrativeDisclaimer = "I'd rather not invent stories about this place, but here is a generic one: " +
	"Once upon a time, a curious traveller walked from village to village collecting recipes, " +
	"and learned that the best meals are the ones shared with friends."

// NoPriorQuestionText answers a memory question when nothing was asked before
const NoPriorQuestionText = "You haven't asked me anything else yet."

var (
	nameDeclarations = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bmy name is ([a-z][a-z'-]*)`),
		regexp.MustCompile(`(?i)\bcall me ([a-z][a-z'-]*)`),
		regexp.MustCompile(`(?i)\bi'?m ([a-z][a-z'-]*)`),
		regexp.MustCompile(`(?i)\bi am ([a-z][a-z'-]*)`),
	}

	// words that follow "i'm" without being a name
	notNames = map[string]struct{}{
		"a": {}, "an": {}, "the": {}, "not": {}, "so": {}, "very": {}, "just": {}, "also": {}, "still": {},
		"hungry": {}, "fine": {}, "good": {}, "great": {}, "ok": {}, "okay": {}, "here": {}, "there": {},
		"looking": {}, "going": {}, "trying": {}, "wondering": {}, "asking": {}, "interested": {},
		"vegan": {}, "vegetarian": {}, "allergic": {}, "new": {}, "back": {}, "sorry": {}, "sure": {},
		"thinking": {}, "planning": {}, "visiting": {}, "from": {}, "in": {}, "at": {}, "on": {},
	}

	notFoundPhrases = []string{
		"don't have", "do not have", "don't know", "do not know", "not available", "no information",
		"not sure", "can't recall", "cannot recall", "can't remember", "cannot remember",
		"haven't told", "have not told", "not found", "unable to", "not aware", "didn't mention",
		"did not mention", "don't see", "no record",
	}

	placeholderPattern = regexp.MustCompile(`\[[^\]]*\]|\{\{?[^}]*\}\}?|<[a-z_ ]+>`)

	foundingKeywords = []string{
		"founded", "founder", "established", "family recipe", "grandmother", "grandfather",
		"opened our doors", "our story", "since 19", "since 20", "years ago",
	}

	narrativeKeywords = []string{
		"restaurant", "our kitchen", "our chef", "our menu", "our dishes", "our food", "momo",
		"himalayan", "the owner",
	}
)

// ValidationInput is everything a rule may inspect
type ValidationInput struct {
	Raw          string
	Utterance    string
	Class        domain.Classification
	History      []domain.ConversationTurn // excludes the current user turn
	Entities     []string
	BusinessName string
}

// ValidationRule corrects one known failure mode of generated answers
type ValidationRule struct {
	Name    string
	Applies func(domain.Classification) bool
	// Check returns the corrected answer and true when the rule fires
	Check func(in *ValidationInput) (string, bool)
}

// ValidationOutcome reports which rule, if any, changed the answer
type ValidationOutcome struct {
	Rule      string
	Corrected bool
	Err       error
}

// ValidatorConfig holds configuration for the validator
type ValidatorConfig struct {
	Rules  []ValidationRule
	Logger *slog.Logger
}

// Validator applies correction rules to generated answers
type Validator struct {
	rules  []ValidationRule
	logger *slog.Logger
}

// NewValidator creates a validator. Nil rules use DefaultValidationRules with
// the given classifier for recognising earlier memory questions.
func NewValidator(classifier *Classifier, cfg ValidatorConfig) *Validator {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultValidationRules(classifier)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{rules: rules, logger: logger.With("component", "validator")}
}

// Validate runs the applicable rules in order and returns the first
// correction. A rule that panics is reported in the outcome and the raw
// answer is returned unchanged.
func (v *Validator) Validate(in *ValidationInput) (string, ValidationOutcome) {
	if in == nil || !in.Class.NeedsValidation() {
		if in == nil {
			return "", ValidationOutcome{}
		}
		return in.Raw, ValidationOutcome{}
	}

	for _, rule := range v.rules {
		if rule.Applies != nil && !rule.Applies(in.Class) {
			continue
		}

		corrected, fired, err := v.runRule(rule, in)
		if err != nil {
			v.logger.Error("validation rule failed, returning raw answer", "rule", rule.Name, "error", err)
			return in.Raw, ValidationOutcome{Rule: rule.Name, Err: err}
		}
		if fired {
			v.logger.Debug("answer corrected", "rule", rule.Name)
			return corrected, ValidationOutcome{Rule: rule.Name, Corrected: true}
		}
	}
	return in.Raw, ValidationOutcome{}
}

func (v *Validator) runRule(rule ValidationRule, in *ValidationInput) (corrected string, fired bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.ValidationRuleError{Rule: rule.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	corrected, fired = rule.Check(in)
	return corrected, fired, nil
}

// DefaultValidationRules returns the identity, memory-fabrication and
// narrative rules, in that order.
func DefaultValidationRules(classifier *Classifier) []ValidationRule {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return []ValidationRule{
		{
			Name:    "identity",
			Applies: func(c domain.Classification) bool { return c.IsIdentityQuestion },
			Check:   checkIdentity,
		},
		{
			Name:    "memory-fabrication",
			Applies: func(c domain.Classification) bool { return c.IsMemoryQuestion },
			Check: func(in *ValidationInput) (string, bool) {
				return checkMemoryFabrication(classifier, in)
			},
		},
		{
			Name:    "narrative",
			Applies: func(c domain.Classification) bool { return c.IsOffTopicNarrative },
			Check:   checkNarrative,
		},
	}
}

func checkIdentity(in *ValidationInput) (string, bool) {
	name := DeclaredName(in.History)
	if name == "" {
		return "", false
	}

	lower := strings.ToLower(in.Raw)
	if !containsAny(lower, notFoundPhrases) && !placeholderPattern.MatchString(in.Raw) {
		return "", false
	}
	return fmt.Sprintf("Your name is %s.", name), true
}

// DeclaredName returns the most recent name the user gave, capitalised
func DeclaredName(history []domain.ConversationTurn) string {
	for i := len(history) - 1; i >= 0; i-- {
		turn := history[i]
		if turn.Role != domain.RoleUser {
			continue
		}
		for _, re := range nameDeclarations {
			m := re.FindStringSubmatch(turn.Content)
			if m == nil {
				continue
			}
			candidate := strings.ToLower(m[1])
			if _, skip := notNames[candidate]; skip {
				continue
			}
			return strings.ToUpper(candidate[:1]) + candidate[1:]
		}
	}
	return ""
}

func checkMemoryFabrication(classifier *Classifier, in *ValidationInput) (string, bool) {
	historyText := strings.ToLower(historyText(in.History))
	raw := strings.ToLower(in.Raw)

	fabricated := false
	for _, entity := range append(append([]string(nil), in.Entities...), in.BusinessName) {
		e := strings.ToLower(strings.TrimSpace(entity))
		if e == "" {
			continue
		}
		if containsWord(raw, e) && !strings.Contains(historyText, e) {
			fabricated = true
			break
		}
	}
	if !fabricated {
		for _, k := range foundingKeywords {
			if strings.Contains(raw, k) && !strings.Contains(historyText, k) {
				fabricated = true
				break
			}
		}
	}
	if !fabricated {
		return "", false
	}

	for i := len(in.History) - 1; i >= 0; i-- {
		turn := in.History[i]
		if turn.Role != domain.RoleUser {
			continue
		}
		class := classifier.Classify(turn.Content)
		if class.IsMemoryQuestion || class.IsIdentityQuestion {
			continue
		}
		return fmt.Sprintf("You asked: %q", turn.Content), true
	}
	return NoPriorQuestionText, true
}

func checkNarrative(in *ValidationInput) (string, bool) {
	raw := strings.ToLower(in.Raw)
	history := strings.ToLower(historyText(in.History))

	if name := strings.ToLower(strings.TrimSpace(in.BusinessName)); name != "" && strings.Contains(raw, name) {
		return NarrativeDisclaimer, true
	}

	keywords := append(append([]string(nil), narrativeKeywords...), in.Entities...)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if containsWord(raw, k) && !strings.Contains(history, k) {
			return NarrativeDisclaimer, true
		}
	}
	return "", false
}

func historyText(history []domain.ConversationTurn) string {
	parts := make([]string, len(history))
	for i, turn := range history {
		parts[i] = turn.Content
	}
	return strings.Join(parts, "\n")
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// containsWord reports whether phrase appears in text on word boundaries
func containsWord(text, phrase string) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(phrase))
	if err != nil {
		return strings.Contains(text, phrase)
	}
	return re.MatchString(text)
}
