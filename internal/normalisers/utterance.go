package normalisers

import (
	"regexp"
	"strings"
)

// WhitespaceNormaliser trims and collapses runs of whitespace.
type WhitespaceNormaliser struct{}

func (n *WhitespaceNormaliser) Normalise(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func (n *WhitespaceNormaliser) Name() string {
	return "whitespace"
}

func (n *WhitespaceNormaliser) Priority() int {
	return 100
}

// LowercaseNormaliser lowercases the utterance.
type LowercaseNormaliser struct{}

func (n *LowercaseNormaliser) Normalise(text string) string {
	return strings.ToLower(text)
}

func (n *LowercaseNormaliser) Name() string {
	return "lowercase"
}

func (n *LowercaseNormaliser) Priority() int {
	return 90
}

// PhraseFix rewrites a whole phrase. Phrase fixes run before word-level
// typo fixes so that "wut food u hav" is caught before "u" becomes "you".
type PhraseFix struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// DefaultPhraseFixes returns the built-in chat-speak phrase rewrites.
func DefaultPhraseFixes() []PhraseFix {
	fix := func(pattern, replacement string) PhraseFix {
		return PhraseFix{Pattern: regexp.MustCompile(pattern), Replacement: replacement}
	}
	return []PhraseFix{
		fix(`\b(?:wut|wat|what)\s*food\s*(?:u|you)\s*hav(?:e)?\b`, "what food do you have"),
		fix(`\bdo u\b`, "do you"),
		fix(`\bcan u\b`, "can you"),
		fix(`\bwill u\b`, "will you"),
		fix(`\bis ur\b`, "is your"),
		fix(`\bare ur\b`, "are your"),
		fix(`\bwhats (?:ur|your)\b`, "what is your"),
		fix(`\bwhere r u\b`, "where are you"),
		fix(`\bpick up\b`, "pickup"),
		fix(`\btake out\b`, "takeout"),
		fix(`\bfrd rice\b`, "fried rice"),
		fix(`\b(?:dhal bhat|dal bhaat)\b`, "dal bhat"),
		fix(`\b(gluten|dairy)-?free\b`, "$1 free"),
	}
}

// PhraseNormaliser applies regular-expression phrase rewrites in order.
type PhraseNormaliser struct {
	fixes []PhraseFix
}

// NewPhraseNormaliser creates a phrase normaliser with the given fixes.
func NewPhraseNormaliser(fixes []PhraseFix) *PhraseNormaliser {
	return &PhraseNormaliser{fixes: fixes}
}

func (n *PhraseNormaliser) Normalise(text string) string {
	for _, f := range n.fixes {
		text = f.Pattern.ReplaceAllString(text, f.Replacement)
	}
	return text
}

func (n *PhraseNormaliser) Name() string {
	return "phrases"
}

func (n *PhraseNormaliser) Priority() int {
	return 60
}

// DefaultTypoTable returns the built-in word corrections.
// "were" is deliberately absent: rewriting it to "where" breaks
// memory questions like "what were we talking about".
func DefaultTypoTable() map[string]string {
	return map[string]string{
		// business
		"resturant": "restaurant", "restraunt": "restaurant", "restaraunt": "restaurant",
		"adrres": "address", "adres": "address", "addres": "address", "adress": "address", "addr": "address",
		"wher": "where", "locaton": "location", "locatoin": "location", "locaiton": "location",

		// menu
		"menue": "menu", "meny": "menu", "dishe": "dish", "fod": "food", "foode": "food",
		"serv": "serve", "serveing": "serving", "sel": "sell", "selleing": "selling",
		"momoz": "momos", "mommos": "momos", "mommo": "momo",
		"chowmein": "chow mein", "friedrice": "fried rice", "dalbhat": "dal bhat",
		"curri": "curry", "samsoa": "samosa",

		// price and hours
		"prce": "price", "pric": "price", "cheep": "cheap", "expensiv": "expensive",
		"opn": "open", "clos": "close", "clsed": "closed",

		// dietary and kitchen
		"vegann": "vegan", "vegeterian": "vegetarian", "glutenfree": "gluten free", "dairyfree": "dairy free",
		"hallal": "halal", "ingrediant": "ingredient", "ingrediants": "ingredients",
		"spicey": "spicy", "receipe": "recipe", "cheff": "chef", "ownr": "owner",
		"stafff": "staff", "employe": "employee", "reservaton": "reservation", "delivry": "delivery",

		// chat speak
		"wut": "what", "wat": "what", "whut": "what", "wht": "what",
		"whos": "who is", "wats": "what is", "wheres": "where is", "howz": "how is",
		"u": "you", "ur": "your", "yur": "your", "youre": "you are", "youve": "you have",
		"hav": "have", "havent": "have not", "thru": "through",
		"thx": "thanks", "thnx": "thanks", "thanx": "thanks",
		"pls": "please", "plz": "please", "plez": "please",
		"r": "are", "im": "i am", "ive": "i have",

		// common misspellings
		"recieve": "receive", "recieved": "received", "seperate": "separate",
		"definately": "definitely", "definetly": "definitely",
		"teh": "the", "hte": "the", "taht": "that", "thta": "that", "tehm": "them",
		"thier": "their", "ther": "there",
	}
}

// TypoNormaliser replaces whole words found in a correction table.
type TypoNormaliser struct {
	table   map[string]string
	wordsRe *regexp.Regexp
}

// NewTypoNormaliser creates a typo normaliser for the given table.
func NewTypoNormaliser(table map[string]string) *TypoNormaliser {
	return &TypoNormaliser{
		table:   table,
		wordsRe: regexp.MustCompile(`[a-z]+`),
	}
}

func (n *TypoNormaliser) Normalise(text string) string {
	return n.wordsRe.ReplaceAllStringFunc(text, func(word string) string {
		if fixed, ok := n.table[word]; ok {
			return fixed
		}
		return word
	})
}

func (n *TypoNormaliser) Name() string {
	return "typos"
}

func (n *TypoNormaliser) Priority() int {
	return 20
}
