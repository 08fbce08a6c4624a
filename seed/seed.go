// Package seed loads demo news data from a YAML fixture file.
package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"news-hierarchy/database"
	"news-hierarchy/models"
)

// Fixtures is the on-disk shape of a seed file. Times are given as ages
// relative to the moment of seeding so demo data always falls inside the
// default window.
type Fixtures struct {
	Newspapers []Newspaper `yaml:"newspapers"`
	Categories []Category  `yaml:"categories"`
	Articles   []Article   `yaml:"articles"`
}

type Newspaper struct {
	ID      uint   `yaml:"id"`
	Name    string `yaml:"name"`
	LogoURL string `yaml:"logo_url"`
}

type Category struct {
	ID            uint          `yaml:"id"`
	Name          string        `yaml:"name"`
	Description   string        `yaml:"description"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

type Subcategory struct {
	ID     uint    `yaml:"id"`
	Name   string  `yaml:"name"`
	Events []Event `yaml:"events"`
}

type Event struct {
	ID          uint   `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	// DateAgo is empty for undated events.
	DateAgo string `yaml:"date_ago"`
}

type Article struct {
	ID           uint   `yaml:"id"`
	Headline     string `yaml:"headline"`
	Subheadline  string `yaml:"subheadline"`
	URL          string `yaml:"url"`
	Paywall      bool   `yaml:"paywall"`
	PublishedAgo string `yaml:"published_ago"`
	Newspaper    uint   `yaml:"newspaper"`
	Summary      string `yaml:"summary"`
	Opinion      string `yaml:"opinion"`
	Events       []uint `yaml:"events"`
}

// Load parses a fixture file.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixtures from YAML.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// Apply migrates the schema and upserts the fixtures in one transaction.
// Running it twice leaves a single copy of every row.
func Apply(db *gorm.DB, f *Fixtures, now time.Time, log zerolog.Logger) error {
	if err := database.Migrate(db); err != nil {
		return err
	}

	rows, err := f.models(now.UTC())
	if err != nil {
		return err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// membership rows have a surrogate key, so replace them per article
		if len(rows.articles) > 0 {
			ids := make([]uint, 0, len(rows.articles))
			for _, a := range rows.articles {
				ids = append(ids, a.ID)
			}
			if err := tx.Where("articulo_id IN ?", ids).Delete(&models.ArticleEvent{}).Error; err != nil {
				return err
			}
		}
		upsert := func(n int, batch interface{}) error {
			if n == 0 {
				return nil
			}
			return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(batch).Error
		}
		if err := upsert(len(rows.newspapers), &rows.newspapers); err != nil {
			return err
		}
		if err := upsert(len(rows.categories), &rows.categories); err != nil {
			return err
		}
		if err := upsert(len(rows.subcategories), &rows.subcategories); err != nil {
			return err
		}
		if err := upsert(len(rows.events), &rows.events); err != nil {
			return err
		}
		if err := upsert(len(rows.articles), &rows.articles); err != nil {
			return err
		}
		if len(rows.links) > 0 {
			return tx.Create(&rows.links).Error
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	log.Info().
		Int("categories", len(rows.categories)).
		Int("events", len(rows.events)).
		Int("articles", len(rows.articles)).
		Msg("database seeded successfully")
	return nil
}

type modelRows struct {
	newspapers    []models.Newspaper
	categories    []models.Category
	subcategories []models.Subcategory
	events        []models.Event
	articles      []models.Article
	links         []models.ArticleEvent
}

func (f *Fixtures) models(now time.Time) (*modelRows, error) {
	out := &modelRows{
		newspapers:    []models.Newspaper{},
		categories:    []models.Category{},
		subcategories: []models.Subcategory{},
		events:        []models.Event{},
		articles:      []models.Article{},
	}
	events := make(map[uint]bool)

	for _, n := range f.Newspapers {
		out.newspapers = append(out.newspapers, models.Newspaper{ID: n.ID, Name: n.Name, LogoURL: n.LogoURL})
	}
	for _, c := range f.Categories {
		out.categories = append(out.categories, models.Category{ID: c.ID, Name: c.Name, Description: c.Description})
		for _, s := range c.Subcategories {
			out.subcategories = append(out.subcategories, models.Subcategory{ID: s.ID, Name: s.Name, CategoryID: c.ID})
			for _, e := range s.Events {
				ev := models.Event{ID: e.ID, Title: e.Title, Description: e.Description, SubcategoryID: s.ID}
				if e.DateAgo != "" {
					d, err := ago(now, e.DateAgo)
					if err != nil {
						return nil, fmt.Errorf("event %d: %w", e.ID, err)
					}
					ev.Date = &d
				}
				out.events = append(out.events, ev)
				events[e.ID] = true
			}
		}
	}

	for _, a := range f.Articles {
		published, err := ago(now, a.PublishedAgo)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", a.ID, err)
		}
		art := models.Article{
			ID:          a.ID,
			Headline:    a.Headline,
			Subheadline: a.Subheadline,
			URL:         a.URL,
			Paywall:     a.Paywall,
			PublishedAt: published,
			Summary:     a.Summary,
			Opinion:     a.Opinion,
		}
		if a.Newspaper != 0 {
			id := a.Newspaper
			art.NewspaperID = &id
		}
		out.articles = append(out.articles, art)

		for _, e := range a.Events {
			if !events[e] {
				return nil, fmt.Errorf("article %d references unknown event %d", a.ID, e)
			}
			out.links = append(out.links, models.ArticleEvent{ArticleID: a.ID, EventID: e})
		}
	}
	return out, nil
}

func ago(now time.Time, age string) (time.Time, error) {
	if age == "" {
		return now, nil
	}
	d, err := time.ParseDuration(age)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid age %q: %w", age, err)
	}
	return now.Add(-d), nil
}
