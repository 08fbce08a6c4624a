package hierarchy

import (
	"time"

	"news-hierarchy/models"
)

// DateLayout is the wire format of every date.
const DateLayout = "2006-01-02"

// Response is the wire document for a tree.
type Response struct {
	Categories []CategoryResponse `json:"categories"`
	Warnings   []string           `json:"warnings,omitempty"`
}

type CategoryResponse struct {
	ID            uint                  `json:"categoria_id"`
	Name          string                `json:"nombre"`
	ArticleCount  int                   `json:"article_count"`
	Subcategories []SubcategoryResponse `json:"subcategories"`
}

type SubcategoryResponse struct {
	ID           uint            `json:"subcategoria_id"`
	Name         string          `json:"nombre"`
	ArticleCount int             `json:"article_count"`
	Events       []EventResponse `json:"events"`
}

type EventResponse struct {
	ID           uint              `json:"evento_id"`
	Title        string            `json:"titulo"`
	Description  string            `json:"descripcion"`
	Date         *string           `json:"fecha_evento"`
	ArticleCount int               `json:"article_count"`
	Articles     []ArticleResponse `json:"articles"`
}

type ArticleResponse struct {
	ID            uint    `json:"id"`
	Headline      string  `json:"titular"`
	URL           string  `json:"url"`
	PublishedAt   *string `json:"fecha_publicacion"`
	Paywall       bool    `json:"paywall"`
	NewspaperName string  `json:"periodico_nombre"`
	NewspaperLogo string  `json:"periodico_logo"`
}

// NewResponse flattens a ranked tree into the wire document. Slices are
// never nil so they encode as [].
func NewResponse(t *Tree) Response {
	resp := Response{Categories: []CategoryResponse{}}
	if t == nil {
		return resp
	}
	resp.Warnings = t.Warnings

	for _, c := range t.Categories {
		cr := CategoryResponse{
			ID:            c.ID,
			Name:          c.Name,
			ArticleCount:  c.ArticleCount,
			Subcategories: make([]SubcategoryResponse, 0, len(c.Subcategories)),
		}
		for _, s := range c.Subcategories {
			sr := SubcategoryResponse{
				ID:           s.ID,
				Name:         s.Name,
				ArticleCount: s.ArticleCount,
				Events:       make([]EventResponse, 0, len(s.Events)),
			}
			for _, e := range s.Events {
				er := EventResponse{
					ID:           e.ID,
					Title:        e.Title,
					Description:  e.Description,
					Date:         formatDate(e.Date),
					ArticleCount: e.ArticleCount,
					Articles:     make([]ArticleResponse, 0, len(e.Articles)),
				}
				for _, a := range e.Articles {
					er.Articles = append(er.Articles, ArticleResponse{
						ID:            a.ID,
						Headline:      a.Headline,
						URL:           a.URL,
						PublishedAt:   formatDate(&a.PublishedAt),
						Paywall:       a.Paywall,
						NewspaperName: a.NewspaperName,
						NewspaperLogo: a.NewspaperLogo,
					})
				}
				sr.Events = append(sr.Events, er)
			}
			cr.Subcategories = append(cr.Subcategories, sr)
		}
		resp.Categories = append(resp.Categories, cr)
	}
	return resp
}

// SubcategoryEntry is one item of the subcategory navigation list.
type SubcategoryEntry struct {
	ID           uint   `json:"id"`
	Name         string `json:"nombre"`
	ArticleCount int    `json:"article_count"`
}

// NewSubcategoryList serializes a ranked subcategory list.
func NewSubcategoryList(list []RankedSubcategory) []SubcategoryEntry {
	out := make([]SubcategoryEntry, 0, len(list))
	for _, s := range list {
		out = append(out, SubcategoryEntry{ID: s.ID, Name: s.Name, ArticleCount: s.ArticleCount})
	}
	return out
}

// CategoryEntry is one item of the category navigation list.
type CategoryEntry struct {
	ID           uint   `json:"categoria_id"`
	Name         string `json:"nombre"`
	ArticleCount int    `json:"article_count"`
}

// NewCategoryList serializes a ranked category list.
func NewCategoryList(list []RankedCategory) []CategoryEntry {
	out := make([]CategoryEntry, 0, len(list))
	for _, c := range list {
		out = append(out, CategoryEntry{ID: c.ID, Name: c.Name, ArticleCount: c.ArticleCount})
	}
	return out
}

// OverviewResponse is the initial page state.
type OverviewResponse struct {
	Categories   []CategoryEntry `json:"categories"`
	InitialData  Response        `json:"initial_data"`
	TimeFilter   string          `json:"time_filter"`
	SelectedDate string          `json:"selected_date"`
}

// NewOverviewResponse serializes the landing view. A nil overview yields
// the empty page state.
func NewOverviewResponse(ov *Overview, tf TimeFilter, today time.Time) OverviewResponse {
	resp := OverviewResponse{
		Categories:   []CategoryEntry{},
		InitialData:  NewResponse(nil),
		TimeFilter:   tf.Token,
		SelectedDate: today.Format(DateLayout),
	}
	if ov == nil {
		return resp
	}
	resp.Categories = NewCategoryList(ov.Categories)
	resp.InitialData = NewResponse(ov.Initial)
	return resp
}

// ArticleDetail is the article modal payload.
type ArticleDetail struct {
	ID            uint    `json:"id"`
	Headline      string  `json:"titular"`
	Subheadline   string  `json:"subtitular"`
	URL           string  `json:"url"`
	PublishedAt   *string `json:"fecha_publicacion"`
	Paywall       bool    `json:"paywall"`
	NewspaperName string  `json:"periodico_nombre"`
	NewspaperLogo string  `json:"periodico_logo"`
	Summary       string  `json:"gpt_resumen"`
	Opinion       string  `json:"gpt_opinion"`
}

// NewArticleDetail serializes an article with its newspaper.
func NewArticleDetail(a models.Article) ArticleDetail {
	d := ArticleDetail{
		ID:          a.ID,
		Headline:    a.Headline,
		Subheadline: a.Subheadline,
		URL:         a.URL,
		PublishedAt: formatDate(&a.PublishedAt),
		Paywall:     a.Paywall,
		Summary:     a.Summary,
		Opinion:     a.Opinion,
	}
	if a.Newspaper != nil {
		d.NewspaperName = a.Newspaper.Name
		d.NewspaperLogo = a.Newspaper.LogoURL
	}
	return d
}

func formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(DateLayout)
	return &s
}
