package hierarchy

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"news-hierarchy/metrics"
	"news-hierarchy/models"
)

// Row is one result of the category, subcategory, event and article join. An
// article linked to an event through several membership rows shows up
// once per row.
type Row struct {
	CategoryID       uint
	CategoryName     string
	SubcategoryID    uint
	SubcategoryName  string
	EventID          uint
	EventTitle       string
	EventDescription string
	EventDate        *time.Time
	ArticleID        uint
	Headline         string
	URL              string
	PublishedAt      *time.Time
	Paywall          bool
	NewspaperName    string
	NewspaperLogo    string
}

const rowColumns = `c.categoria_id AS category_id, c.nombre AS category_name,
	s.subcategoria_id AS subcategory_id, s.nombre AS subcategory_name,
	e.evento_id AS event_id, e.titulo AS event_title,
	COALESCE(e.descripcion, '') AS event_description, e.fecha_evento AS event_date,
	a.articulo_id AS article_id, a.titular AS headline, COALESCE(a.url, '') AS url,
	a.fecha_publicacion AS published_at, COALESCE(a.paywall, false) AS paywall,
	COALESCE(p.nombre, '') AS newspaper_name, COALESCE(p.logo_url, '') AS newspaper_logo`

// Engine runs the read-only queries behind the hierarchy. Every call is
// bounded by the configured query timeout.
type Engine struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewEngine wraps db. A non-positive timeout disables the bound.
func NewEngine(db *gorm.DB, timeout time.Duration) *Engine {
	return &Engine{db: db, timeout: timeout}
}

// Rows returns the flat join rows matching spec, ordered by category,
// subcategory, event and article id. Only event-anchored articles are
// reachable.
func (e *Engine) Rows(ctx context.Context, spec FilterSpec) ([]Row, error) {
	var rows []Row
	err := e.run(ctx, "rows", func(db *gorm.DB) error {
		return db.Table("articulo_evento AS ae").
			Select(rowColumns).
			Joins("JOIN articulo a ON a.articulo_id = ae.articulo_id").
			Joins("JOIN evento e ON e.evento_id = ae.evento_id").
			Joins("JOIN subcategoria s ON s.subcategoria_id = e.subcategoria_id").
			Joins("JOIN categoria c ON c.categoria_id = s.categoria_id").
			Joins("LEFT JOIN periodico p ON p.periodico_id = a.periodico_id").
			Scopes(inWindow(e.db.Dialector.Name(), spec.Window()), inTaxonomy(spec), visible(spec.HidePaywall())).
			Order("c.categoria_id, s.subcategoria_id, e.evento_id, a.articulo_id").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Category looks up one category by id.
func (e *Engine) Category(ctx context.Context, id uint) (models.Category, error) {
	var cat models.Category
	err := e.run(ctx, "category", func(db *gorm.DB) error {
		return db.Where("categoria_id = ?", id).First(&cat).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return cat, notFound("category", id)
	}
	return cat, err
}

// Subcategory looks up one subcategory by id.
func (e *Engine) Subcategory(ctx context.Context, id uint) (models.Subcategory, error) {
	var sub models.Subcategory
	err := e.run(ctx, "subcategory", func(db *gorm.DB) error {
		return db.Where("subcategoria_id = ?", id).First(&sub).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sub, notFound("subcategory", id)
	}
	return sub, err
}

// Categories lists every category.
func (e *Engine) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := e.run(ctx, "categories", func(db *gorm.DB) error {
		return db.Order("categoria_id").Find(&cats).Error
	})
	return cats, err
}

// Subcategories lists the subcategories of a category.
func (e *Engine) Subcategories(ctx context.Context, categoryID uint) ([]models.Subcategory, error) {
	var subs []models.Subcategory
	err := e.run(ctx, "subcategories", func(db *gorm.DB) error {
		return db.Where("categoria_id = ?", categoryID).Order("subcategoria_id").Find(&subs).Error
	})
	return subs, err
}

// Article loads one article with its newspaper.
func (e *Engine) Article(ctx context.Context, id uint) (models.Article, error) {
	var art models.Article
	err := e.run(ctx, "article", func(db *gorm.DB) error {
		return db.Preload("Newspaper").Where("articulo_id = ?", id).First(&art).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return art, notFound("article", id)
	}
	return art, err
}

// Ping verifies the store is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	return e.run(ctx, "ping", func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(db.Statement.Context)
	})
}

func (e *Engine) run(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(e.db.WithContext(ctx))
	metrics.QueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	metrics.QueryErrors.WithLabelValues(op).Inc()
	return &QueryError{Op: op, Err: err}
}

// inWindow keeps articles published in [w.Start, w.End). sqlite stores
// timestamps as text with whatever offset the writer used, so both sides
// are converted to julian days before comparing.
func inWindow(dialect string, w Window) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if dialect == "sqlite" {
			return db.Where("julianday(a.fecha_publicacion) >= julianday(?) AND julianday(a.fecha_publicacion) < julianday(?)", w.Start, w.End)
		}
		return db.Where("a.fecha_publicacion >= ? AND a.fecha_publicacion < ?", w.Start, w.End)
	}
}

func inTaxonomy(spec FilterSpec) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch spec.Scope() {
		case ScopeSubcategory:
			return db.Where("s.subcategoria_id = ?", spec.SubcategoryID().ID)
		case ScopeCategory:
			return db.Where("c.categoria_id = ?", spec.CategoryID().ID)
		default:
			return db
		}
	}
}

func visible(hidePaywall bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !hidePaywall {
			return db
		}
		return db.Where("(a.paywall IS NULL OR a.paywall = ?)", false)
	}
}
