package entity

// NewsCategory is one of the six closed-set news sections crawled by the
// system. Numeric values are the section ids used by the upstream portal.
type NewsCategory int

const (
	Politics NewsCategory = 100
	Economy  NewsCategory = 101
	Society  NewsCategory = 102
	Culture  NewsCategory = 103
	World    NewsCategory = 104
	IT       NewsCategory = 105
)

// AllCategories lists the closed category set in ascending id order.
var AllCategories = []NewsCategory{Politics, Economy, Society, Culture, World, IT}

// categoryNames maps categories to their lower-case wire representation.
var categoryNames = map[NewsCategory]string{
	Politics: "politics",
	Economy:  "economy",
	Society:  "society",
	Culture:  "culture",
	World:    "world",
	IT:       "it",
}

var categoryByName = func() map[string]NewsCategory {
	m := make(map[string]NewsCategory, len(categoryNames))
	for c, n := range categoryNames {
		m[n] = c
	}
	return m
}()

// String returns the lower-case wire name for the category.
func (c NewsCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// IsValid reports whether c is a member of the closed category set.
func (c NewsCategory) IsValid() bool {
	_, ok := categoryNames[c]
	return ok
}

// ParseCategory parses a category from its lower-case wire name.
func ParseCategory(name string) (NewsCategory, error) {
	c, ok := categoryByName[name]
	if !ok {
		return 0, newValidationError("category", "unknown category name: "+name)
	}
	return c, nil
}

// PriorityWeight returns the scheduling weight used by the rotation
// scheduler's weighted round-robin (higher weight, more hours per day).
func (c NewsCategory) PriorityWeight() int {
	switch c {
	case Politics, Economy:
		return 3
	case Society, World, IT:
		return 2
	case Culture:
		return 1
	default:
		return 1
	}
}
