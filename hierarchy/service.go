package hierarchy

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"news-hierarchy/cache"
	"news-hierarchy/metrics"
	"news-hierarchy/models"
)

// Cache views
const (
	ViewTree          = "tree"
	ViewCategories    = "categories"
	ViewSubcategories = "subcategories"
)

// Store is the read-only data source behind the service. *Engine
// implements it.
type Store interface {
	Rows(ctx context.Context, spec FilterSpec) ([]Row, error)
	Category(ctx context.Context, id uint) (models.Category, error)
	Subcategory(ctx context.Context, id uint) (models.Subcategory, error)
	Categories(ctx context.Context) ([]models.Category, error)
	Subcategories(ctx context.Context, categoryID uint) ([]models.Subcategory, error)
	Article(ctx context.Context, id uint) (models.Article, error)
}

// Listing is the cached form of the navigation lists.
type Listing struct {
	Categories    []RankedCategory
	Subcategories []RankedSubcategory
}

// Options tune the service.
type Options struct {
	DefaultTimeFilter string
	MaxWindow         time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service answers hierarchy queries through the result caches.
type Service struct {
	store Store
	trees *cache.Cache[*Tree]
	lists *cache.Cache[*Listing]
	opts  Options
	log   zerolog.Logger
}

// NewService wires a store and its caches.
func NewService(store Store, trees *cache.Cache[*Tree], lists *cache.Cache[*Listing], opts Options, log zerolog.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultTimeFilter == "" {
		opts.DefaultTimeFilter = DefaultTimeFilter
	}
	return &Service{store: store, trees: trees, lists: lists, opts: opts, log: log}
}

// TimeFilter resolves a request token, falling back to the default.
func (s *Service) TimeFilter(token string) TimeFilter {
	tf, err := ResolveTimeFilter(token, s.opts.DefaultTimeFilter, int(s.opts.MaxWindow/time.Hour))
	if err != nil {
		s.log.Debug().Err(err).Str("fallback", tf.Token).Msg("using default time filter")
	}
	return tf
}

// DefaultTimeFilter returns the configured default window.
func (s *Service) DefaultTimeFilter() TimeFilter {
	return s.TimeFilter("")
}

// Tree returns the ranked hierarchy for a category and/or subcategory.
func (s *Service) Tree(ctx context.Context, p Params) (*Tree, error) {
	if !p.CategoryID.Valid && !p.SubcategoryID.Valid {
		return nil, ErrMissingFilterParameter
	}
	key := cache.Key{
		View:           ViewTree,
		CategoryID:     p.CategoryID.ID,
		HasCategory:    p.CategoryID.Valid,
		SubcategoryID:  p.SubcategoryID.ID,
		HasSubcategory: p.SubcategoryID.Valid,
		TimeFilter:     p.TimeFilter.Token,
		HidePaywall:    p.HidePaywall,
	}
	return s.trees.GetOrCompute(ctx, key, func(ctx context.Context) (*Tree, error) {
		return s.computeTree(ctx, p)
	})
}

func (s *Service) computeTree(ctx context.Context, p Params) (*Tree, error) {
	spec, err := NewFilterSpec(p, p.TimeFilter.Window(s.opts.Now()))
	if err != nil {
		return nil, err
	}

	// every supplied id must exist, even one the subcategory overrides
	if spec.CategoryID().Valid {
		if _, err := s.store.Category(ctx, spec.CategoryID().ID); err != nil {
			return nil, err
		}
	}
	if spec.SubcategoryID().Valid {
		sub, err := s.store.Subcategory(ctx, spec.SubcategoryID().ID)
		if err != nil {
			return nil, err
		}
		spec = spec.reconcile(sub.CategoryID)
		for _, w := range spec.Warnings() {
			s.log.Warn().Str("warning", w).Msg("inconsistent filter parameters")
		}
	}

	tree, err := s.build(ctx, spec)
	if err != nil {
		return nil, err
	}
	tree.Warnings = spec.Warnings()
	return tree, nil
}

// build runs the pipeline: query, deduplicate, aggregate, rank.
func (s *Service) build(ctx context.Context, spec FilterSpec) (*Tree, error) {
	rows, err := s.store.Rows(ctx, spec)
	if err != nil {
		return nil, err
	}

	collection, dropped := Deduplicate(rows)
	for _, d := range dropped {
		s.log.Warn().Err(d).Msg("dropping malformed row")
	}
	metrics.DroppedRows.Add(float64(len(dropped)))

	tree := Aggregate(collection)
	Rank(tree)

	s.log.Debug().
		Str("scope", spec.Scope().String()).
		Int("rows", len(rows)).
		Int("events", len(collection.Events)).
		Int("articles", tree.ArticleCount()).
		Msg("hierarchy built")
	return tree, nil
}

// Categories lists every category with its article count in the window,
// ranked. Categories without articles are included.
func (s *Service) Categories(ctx context.Context, tf TimeFilter, hidePaywall bool) ([]RankedCategory, error) {
	key := cache.Key{View: ViewCategories, TimeFilter: tf.Token, HidePaywall: hidePaywall}
	listing, err := s.lists.GetOrCompute(ctx, key, func(ctx context.Context) (*Listing, error) {
		cats, err := s.store.Categories(ctx)
		if err != nil {
			return nil, err
		}
		tree, err := s.build(ctx, AllCategories(tf.Window(s.opts.Now()), hidePaywall))
		if err != nil {
			return nil, err
		}

		counts := make(map[uint]int, len(tree.Categories))
		for _, c := range tree.Categories {
			counts[c.ID] = c.ArticleCount
		}
		list := make([]RankedCategory, 0, len(cats))
		for _, c := range cats {
			list = append(list, RankedCategory{ID: c.ID, Name: c.Name, ArticleCount: counts[c.ID]})
		}
		RankCategories(list)
		return &Listing{Categories: list}, nil
	})
	if err != nil {
		return nil, err
	}
	return listing.Categories, nil
}

// Subcategories lists the subcategories of a category with their article
// counts in the window, ranked. Subcategories without articles are
// included.
func (s *Service) Subcategories(ctx context.Context, categoryID uint, tf TimeFilter, hidePaywall bool) ([]RankedSubcategory, error) {
	key := cache.Key{
		View:        ViewSubcategories,
		CategoryID:  categoryID,
		HasCategory: true,
		TimeFilter:  tf.Token,
		HidePaywall: hidePaywall,
	}
	listing, err := s.lists.GetOrCompute(ctx, key, func(ctx context.Context) (*Listing, error) {
		if _, err := s.store.Category(ctx, categoryID); err != nil {
			return nil, err
		}
		subs, err := s.store.Subcategories(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		spec, err := NewFilterSpec(Params{CategoryID: Some(categoryID), HidePaywall: hidePaywall}, tf.Window(s.opts.Now()))
		if err != nil {
			return nil, err
		}
		tree, err := s.build(ctx, spec)
		if err != nil {
			return nil, err
		}

		counts := make(map[uint]int)
		for _, c := range tree.Categories {
			for _, sub := range c.Subcategories {
				counts[sub.ID] = sub.ArticleCount
			}
		}
		list := make([]RankedSubcategory, 0, len(subs))
		for _, sub := range subs {
			list = append(list, RankedSubcategory{ID: sub.ID, Name: sub.Name, ArticleCount: counts[sub.ID]})
		}
		RankSubcategories(list)
		return &Listing{Subcategories: list}, nil
	})
	if err != nil {
		return nil, err
	}
	return listing.Subcategories, nil
}

// Overview is the initial page state: every category ranked, and the tree
// of the top-ranked one.
type Overview struct {
	TimeFilter TimeFilter
	Categories []RankedCategory
	Initial    *Tree
}

// Overview builds the landing view.
func (s *Service) Overview(ctx context.Context, tf TimeFilter, hidePaywall bool) (*Overview, error) {
	cats, err := s.Categories(ctx, tf, hidePaywall)
	if err != nil {
		return nil, err
	}
	ov := &Overview{TimeFilter: tf, Categories: cats, Initial: &Tree{Categories: []CategoryNode{}}}
	if len(cats) == 0 {
		return ov, nil
	}

	tree, err := s.Tree(ctx, Params{CategoryID: Some(cats[0].ID), TimeFilter: tf, HidePaywall: hidePaywall})
	if err != nil {
		return nil, err
	}
	ov.Initial = tree
	return ov, nil
}

// Article loads one article for the detail view. Paywalled articles are
// returned; the flag is part of the payload.
func (s *Service) Article(ctx context.Context, id uint) (models.Article, error) {
	return s.store.Article(ctx, id)
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.opts.Now()
}
