package hierarchy

import "time"

// Collection holds the distinct articles of every event found in a set of
// join rows, along with the taxonomy the events hang from.
type Collection struct {
	categories    map[uint]string
	subcategories map[uint]subcategoryRef
	Events        map[uint]*EventArticles
}

type subcategoryRef struct {
	categoryID uint
	name       string
}

// EventArticles is the deduplicated article set of one event.
type EventArticles struct {
	EventID       uint
	SubcategoryID uint
	Title         string
	Description   string
	Date          *time.Time
	Articles      map[uint]ArticleNode
	// ByNewspaper groups article ids by newspaper name for display.
	ByNewspaper map[string][]uint
}

// Deduplicate collapses join rows so each article appears once per event.
// The same article under two events is kept under both. Rows that cannot
// be placed in the tree are dropped and reported.
func Deduplicate(rows []Row) (*Collection, []error) {
	c := &Collection{
		categories:    make(map[uint]string),
		subcategories: make(map[uint]subcategoryRef),
		Events:        make(map[uint]*EventArticles),
	}
	var dropped []error

	for _, r := range rows {
		if reason := checkRow(r); reason != "" {
			dropped = append(dropped, &SerializationError{EventID: r.EventID, ArticleID: r.ArticleID, Reason: reason})
			continue
		}

		if ref, ok := c.subcategories[r.SubcategoryID]; ok && ref.categoryID != r.CategoryID {
			dropped = append(dropped, &SerializationError{EventID: r.EventID, ArticleID: r.ArticleID, Reason: "subcategory under two categories"})
			continue
		}
		ev, ok := c.Events[r.EventID]
		if ok && ev.SubcategoryID != r.SubcategoryID {
			dropped = append(dropped, &SerializationError{EventID: r.EventID, ArticleID: r.ArticleID, Reason: "event under two subcategories"})
			continue
		}

		c.categories[r.CategoryID] = r.CategoryName
		c.subcategories[r.SubcategoryID] = subcategoryRef{categoryID: r.CategoryID, name: r.SubcategoryName}
		if !ok {
			ev = &EventArticles{
				EventID:       r.EventID,
				SubcategoryID: r.SubcategoryID,
				Title:         r.EventTitle,
				Description:   r.EventDescription,
				Date:          r.EventDate,
				Articles:      make(map[uint]ArticleNode),
				ByNewspaper:   make(map[string][]uint),
			}
			c.Events[r.EventID] = ev
		}

		if _, seen := ev.Articles[r.ArticleID]; seen {
			continue
		}
		ev.Articles[r.ArticleID] = ArticleNode{
			ID:            r.ArticleID,
			Headline:      r.Headline,
			URL:           r.URL,
			PublishedAt:   r.PublishedAt.UTC(),
			Paywall:       r.Paywall,
			NewspaperName: r.NewspaperName,
			NewspaperLogo: r.NewspaperLogo,
		}
		ev.ByNewspaper[r.NewspaperName] = append(ev.ByNewspaper[r.NewspaperName], r.ArticleID)
	}

	return c, dropped
}

func checkRow(r Row) string {
	switch {
	case r.CategoryID == 0 || r.SubcategoryID == 0 || r.EventID == 0 || r.ArticleID == 0:
		return "missing id"
	case r.PublishedAt == nil || r.PublishedAt.IsZero():
		return "missing publication date"
	default:
		return ""
	}
}
