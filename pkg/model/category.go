package model

// Category is the decoded product category tag.
type Category int

const (
	// CategoryUnknown is any tag the pipeline does not understand. Such
	// products are billed but contribute nothing to the context.
	CategoryUnknown Category = iota
	CategoryKnowledgeText
	CategoryKnowledgeHTML
	CategoryKnowledgePDF
	CategoryKnowledgeURL
	CategoryPromptSet
)

var categoryTags = map[string]Category{
	"knowledge:text": CategoryKnowledgeText,
	"knowledge:html": CategoryKnowledgeHTML,
	"knowledge:pdf":  CategoryKnowledgePDF,
	"knowledge:url":  CategoryKnowledgeURL,
	"promptset":      CategoryPromptSet,
}

// ParseCategory decodes a stored category tag. Matching is exact.
func ParseCategory(tag string) Category {
	if c, ok := categoryTags[tag]; ok {
		return c
	}
	return CategoryUnknown
}

// String returns the stored tag for c, or "unknown".
func (c Category) String() string {
	for tag, v := range categoryTags {
		if v == c {
			return tag
		}
	}
	return "unknown"
}

// IsKnowledge reports whether c yields a knowledge document.
func (c Category) IsKnowledge() bool {
	switch c {
	case CategoryKnowledgeText, CategoryKnowledgeHTML, CategoryKnowledgePDF, CategoryKnowledgeURL:
		return true
	}
	return false
}
