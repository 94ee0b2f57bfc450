package intent

import (
	"strings"

	"github.com/bhavanagoud111/The-Robot-driver/internal/catalog"
)

// Intent is the classified form of a free-text goal. Query holds the terms
// worth typing into a search box after filler and trigger verbs are removed.
type Intent struct {
	Category catalog.Category
	Query    string
	Matched  []string
}

// rule couples a category with its trigger vocabulary. Intent words mark the
// category and are stripped from the query (they describe what the user wants
// done, not what to search for). Subject words mark the category but stay in
// the query because they name the thing itself.
type rule struct {
	category catalog.Category
	intent   []string
	subject  []string
}

// rules are evaluated in order and the first match wins, so the more specific
// vocabularies sit above shopping, whose trigger list is broad.
var rules = []rule{
	{
		category: catalog.CategoryTravel,
		intent:   []string{"book a flight", "book flights"},
		subject:  []string{"flight", "flights", "travel", "trip", "vacation", "hotel", "booking", "airline", "airlines"},
	},
	{
		category: catalog.CategoryJobs,
		intent:   []string{"hiring", "apply for"},
		subject:  []string{"job", "jobs", "career", "careers", "employment", "position", "positions", "internship"},
	},
	{
		category: catalog.CategoryVideo,
		intent:   []string{"watch"},
		subject:  []string{"video", "videos", "tutorial", "tutorials", "course", "courses", "learn", "programming", "coding"},
	},
	{
		category: catalog.CategoryRestaurant,
		intent:   []string{"eat at", "dine at"},
		subject:  []string{"restaurant", "restaurants", "food", "dining", "meal", "meals", "eat"},
	},
	{
		category: catalog.CategoryBooks,
		intent:   []string{"read"},
		subject:  []string{"book", "books", "novel", "novels", "literature", "reading"},
	},
	{
		category: catalog.CategoryNews,
		intent:   []string{},
		subject:  []string{"news", "headline", "headlines", "article", "articles", "breaking"},
	},
	{
		category: catalog.CategoryShopping,
		intent:   []string{"buy", "purchase", "shop for", "shop", "order"},
		subject: []string{
			"price", "prices", "cost", "deal", "deals", "cheapest", "cheap",
			"laptop", "laptops", "computer", "electronics", "product", "products",
			"dress", "dresses", "clothing", "fashion", "halloween", "costume", "costumes",
		},
	},
}

// fillers are request phrasing with no search value. Stripped from every
// query regardless of category. Multi-word phrases first so "search for"
// wins over "for".
var fillers = []string{
	"show me the", "show me", "search for", "look for", "look up",
	"find me the", "find me", "find the", "find", "get me", "get",
	"i want to", "i want", "i need", "give me", "can you", "please",
	"the best", "best", "a", "an", "some",
}

// Classify maps a goal onto a category and a typed query. It is total: any
// input, including empty or nonsense text, resolves to the generic category
// with the cleaned goal as query.
func Classify(goal string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(goal))
	normalized = strings.Join(strings.Fields(normalized), " ")

	for _, r := range rules {
		matched, stripped := r.match(normalized)
		if len(matched) == 0 {
			continue
		}
		return Intent{
			Category: r.category,
			Query:    fallbackQuery(cleanQuery(stripped), normalized),
			Matched:  matched,
		}
	}
	return Intent{
		Category: catalog.CategoryGeneric,
		Query:    fallbackQuery(cleanQuery(normalized), normalized),
	}
}

// match reports the trigger words found in the goal and the goal with intent
// words removed. Subject words stay put.
func (r rule) match(goal string) (matched []string, stripped string) {
	stripped = goal
	for _, word := range r.intent {
		if containsWord(goal, word) {
			matched = append(matched, word)
			stripped = removeWord(stripped, word)
		}
	}
	for _, word := range r.subject {
		if containsWord(goal, word) {
			matched = append(matched, word)
		}
	}
	return matched, stripped
}

func cleanQuery(goal string) string {
	out := goal
	for _, filler := range fillers {
		out = removeWord(out, filler)
	}
	return strings.Join(strings.Fields(out), " ")
}

// fallbackQuery keeps Classify total on degenerate input. A goal made
// entirely of trigger and filler words still yields something typeable.
func fallbackQuery(query, original string) string {
	if query != "" {
		return query
	}
	if original != "" {
		return original
	}
	return "results"
}

// containsWord matches on word boundaries so "eat" does not fire inside
// "weather".
func containsWord(text, word string) bool {
	index := 0
	for {
		found := strings.Index(text[index:], word)
		if found < 0 {
			return false
		}
		start := index + found
		end := start + len(word)
		startOK := start == 0 || !isWordChar(text[start-1])
		endOK := end == len(text) || !isWordChar(text[end])
		if startOK && endOK {
			return true
		}
		index = start + 1
		if index >= len(text) {
			return false
		}
	}
}

func removeWord(text, word string) string {
	fields := strings.Fields(text)
	wordFields := strings.Fields(word)
	if len(wordFields) == 0 {
		return text
	}
	var out []string
	for i := 0; i < len(fields); {
		if i+len(wordFields) <= len(fields) && equalFold(fields[i:i+len(wordFields)], wordFields) {
			i += len(wordFields)
			continue
		}
		out = append(out, fields[i])
		i++
	}
	return strings.Join(out, " ")
}

func equalFold(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
