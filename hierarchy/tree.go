package hierarchy

import "time"

// Tree is the ranked category → subcategory → event → article hierarchy.
// A Tree handed out by the cache is shared between callers and must not be
// modified.
type Tree struct {
	Categories []CategoryNode `json:"categories"`
	Warnings   []string       `json:"warnings,omitempty"`
}

type CategoryNode struct {
	ID            uint              `json:"id"`
	Name          string            `json:"name"`
	ArticleCount  int               `json:"article_count"`
	Subcategories []SubcategoryNode `json:"subcategories"`
}

type SubcategoryNode struct {
	ID           uint        `json:"id"`
	CategoryID   uint        `json:"category_id"`
	Name         string      `json:"name"`
	ArticleCount int         `json:"article_count"`
	Events       []EventNode `json:"events"`
}

type EventNode struct {
	ID             uint          `json:"id"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	Date           *time.Time    `json:"date"`
	ArticleCount   int           `json:"article_count"`
	NewspaperCount int           `json:"newspaper_count"`
	Articles       []ArticleNode `json:"articles"`
}

type ArticleNode struct {
	ID            uint      `json:"id"`
	Headline      string    `json:"headline"`
	URL           string    `json:"url"`
	PublishedAt   time.Time `json:"published_at"`
	Paywall       bool      `json:"paywall"`
	NewspaperName string    `json:"newspaper_name"`
	NewspaperLogo string    `json:"newspaper_logo"`
}

// Empty reports whether the tree has no categories.
func (t *Tree) Empty() bool {
	return t == nil || len(t.Categories) == 0
}

// ArticleCount is the sum of the category counts.
func (t *Tree) ArticleCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, c := range t.Categories {
		n += c.ArticleCount
	}
	return n
}
