package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-hierarchy/cache"
	"news-hierarchy/hierarchy"
	"news-hierarchy/models"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func ago(h int) *time.Time {
	t := now.Add(-time.Duration(h) * time.Hour)
	return &t
}

// fakeStore serves fixed rows, applying the filter the way the SQL does.
type fakeStore struct {
	cats     []models.Category
	subs     []models.Subcategory
	rows     []hierarchy.Row
	articles map[uint]models.Article
	err      error
}

func (f *fakeStore) Rows(ctx context.Context, spec hierarchy.FilterSpec) ([]hierarchy.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []hierarchy.Row
	for _, r := range f.rows {
		if !spec.Window().Contains(*r.PublishedAt) || (spec.HidePaywall() && r.Paywall) {
			continue
		}
		switch spec.Scope() {
		case hierarchy.ScopeSubcategory:
			if r.SubcategoryID != spec.SubcategoryID().ID {
				continue
			}
		case hierarchy.ScopeCategory:
			if r.CategoryID != spec.CategoryID().ID {
				continue
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Category(ctx context.Context, id uint) (models.Category, error) {
	for _, c := range f.cats {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, fmt.Errorf("category %d: %w", id, hierarchy.ErrNotFound)
}

func (f *fakeStore) Subcategory(ctx context.Context, id uint) (models.Subcategory, error) {
	for _, s := range f.subs {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Subcategory{}, fmt.Errorf("subcategory %d: %w", id, hierarchy.ErrNotFound)
}

func (f *fakeStore) Categories(ctx context.Context) ([]models.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.cats, nil
}

func (f *fakeStore) Subcategories(ctx context.Context, categoryID uint) ([]models.Subcategory, error) {
	var out []models.Subcategory
	for _, s := range f.subs {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) Article(ctx context.Context, id uint) (models.Article, error) {
	a, ok := f.articles[id]
	if !ok {
		return a, fmt.Errorf("article %d: %w", id, hierarchy.ErrNotFound)
	}
	return a, nil
}

func newsRow(article uint, published *time.Time, paywall bool, paper string) hierarchy.Row {
	return hierarchy.Row{
		CategoryID: 1, CategoryName: "Tech",
		SubcategoryID: 10, SubcategoryName: "AI",
		EventID: 100, EventTitle: "Launch",
		ArticleID: article, Headline: fmt.Sprintf("Article %d", article),
		PublishedAt: published, Paywall: paywall, NewspaperName: paper,
	}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cats: []models.Category{{ID: 1, Name: "Tech"}, {ID: 2, Name: "Sports"}},
		subs: []models.Subcategory{{ID: 10, Name: "AI", CategoryID: 1}, {ID: 11, Name: "Gadgets", CategoryID: 1}},
		rows: []hierarchy.Row{
			newsRow(1, ago(1), false, "Newspaper A"),
			newsRow(1, ago(1), false, "Newspaper A"),
			newsRow(2, ago(2), false, "Newspaper A"),
			newsRow(3, ago(3), true, "Newspaper B"),
		},
		articles: map[uint]models.Article{
			3: {ID: 3, Headline: "Article 3", PublishedAt: *ago(3), Paywall: true, Newspaper: &models.Newspaper{Name: "Newspaper B"}},
		},
	}
}

func newTestRouter(store hierarchy.Store, ping func(context.Context) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := hierarchy.NewService(
		store,
		cache.New[*hierarchy.Tree](cache.NewMemoryStore[*hierarchy.Tree](16), time.Minute, zerolog.Nop()),
		cache.New[*hierarchy.Listing](cache.NewMemoryStore[*hierarchy.Listing](16), time.Minute, zerolog.Nop()),
		hierarchy.Options{DefaultTimeFilter: "24h", MaxWindow: 720 * time.Hour, Now: func() time.Time { return now }},
		zerolog.Nop(),
	)
	return NewRouter(New(svc, ping, zerolog.Nop()), zerolog.Nop())
}

func get(t *testing.T, r http.Handler, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
}

func TestGetArticles(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	w := get(t, r, "/api/articles?category_id=1&time_filter=24h")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp hierarchy.Response
	decode(t, w, &resp)
	if len(resp.Categories) != 1 {
		t.Fatalf("expected 1 category, got %d", len(resp.Categories))
	}
	ev := resp.Categories[0].Subcategories[0].Events[0]
	if ev.ArticleCount != 3 || resp.Categories[0].ArticleCount != 3 {
		t.Errorf("expected 3 articles, got event %d category %d", ev.ArticleCount, resp.Categories[0].ArticleCount)
	}
	if ev.Articles[0].ID != 1 || ev.Articles[2].ID != 3 {
		t.Errorf("articles should be newest first: %+v", ev.Articles)
	}
	if ev.Articles[0].PublishedAt == nil || *ev.Articles[0].PublishedAt != "2026-10-19" {
		t.Errorf("unexpected date %v", ev.Articles[0].PublishedAt)
	}
}

func TestGetArticles_HidePaywall(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	for _, url := range []string{
		"/api/articles?subcategory_id=10&hide_paywall=true",
		"/api/articles?subcategory_id=10&hide_paywall=1",
		"/api/articles?subcategory_id=10&hide_paywall",
	} {
		w := get(t, r, url)
		var resp hierarchy.Response
		decode(t, w, &resp)
		ev := resp.Categories[0].Subcategories[0].Events[0]
		if ev.ArticleCount != 2 {
			t.Errorf("%s: expected 2 articles, got %d", url, ev.ArticleCount)
		}
		if strings.Contains(w.Body.String(), "Newspaper B") {
			t.Errorf("%s: paywalled article leaked", url)
		}
	}

	w := get(t, r, "/api/articles?subcategory_id=10&hide_paywall=false")
	var resp hierarchy.Response
	decode(t, w, &resp)
	if resp.Categories[0].ArticleCount != 3 {
		t.Errorf("hide_paywall=false should keep every article, got %d", resp.Categories[0].ArticleCount)
	}
}

func TestGetArticles_Errors(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	tests := []struct {
		url  string
		code int
	}{
		{"/api/articles", http.StatusBadRequest},
		{"/api/articles?time_filter=48h", http.StatusBadRequest},
		{"/api/articles?category_id=abc", http.StatusBadRequest},
		{"/api/articles?subcategory_id=-2", http.StatusBadRequest},
		{"/api/articles?category_id=99", http.StatusNotFound},
		{"/api/articles?subcategory_id=99", http.StatusNotFound},
		{"/api/articles?category_id=99&subcategory_id=10", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := get(t, r, tt.url)
		if w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d: %s", tt.url, tt.code, w.Code, w.Body.String())
		}
		var body map[string]interface{}
		decode(t, w, &body)
		if _, ok := body["error"]; !ok {
			t.Errorf("%s: missing error field", tt.url)
		}
	}
}

func TestGetArticles_StoreFailureIsGeneric500(t *testing.T) {
	store := newFakeStore()
	store.err = &hierarchy.QueryError{Op: "rows", Err: errors.New("dial tcp 10.0.0.5:5432: connection refused")}
	r := newTestRouter(store, nil)

	w := get(t, r, "/api/articles?category_id=1")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Errorf("store error leaked to client: %s", w.Body.String())
	}
}

func TestGetArticles_InconsistentFiltersWarn(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	w := get(t, r, "/api/articles?category_id=2&subcategory_id=10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp hierarchy.Response
	decode(t, w, &resp)
	if len(resp.Warnings) != 1 || resp.Categories[0].ID != 1 {
		t.Errorf("expected subcategory to win with a warning, got %+v", resp)
	}
}

func TestGetSubcategories(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	w := get(t, r, "/api/subcategories?category_id=1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []hierarchy.SubcategoryEntry
	decode(t, w, &list)
	if len(list) != 2 || list[0].Name != "AI" || list[0].ArticleCount != 3 || list[1].ArticleCount != 0 {
		t.Errorf("unexpected list %+v", list)
	}

	if w := get(t, r, "/api/subcategories"); w.Code != http.StatusBadRequest {
		t.Errorf("missing category_id: expected 400, got %d", w.Code)
	}
	if w := get(t, r, "/api/subcategories?category_id=77"); w.Code != http.StatusNotFound {
		t.Errorf("unknown category: expected 404, got %d", w.Code)
	}
}

func TestGetCategories(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	w := get(t, r, "/api/categories?hide_paywall=yes")
	var list []hierarchy.CategoryEntry
	decode(t, w, &list)
	if len(list) != 2 || list[0].Name != "Tech" || list[0].ArticleCount != 2 || list[1].ArticleCount != 0 {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestIndex(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	w := get(t, r, "/?time_filter=nonsense")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp hierarchy.OverviewResponse
	decode(t, w, &resp)
	if resp.TimeFilter != "24h" || resp.SelectedDate != "2026-10-19" {
		t.Errorf("unexpected page state %+v", resp)
	}
	if len(resp.Categories) != 2 || len(resp.InitialData.Categories) != 1 {
		t.Errorf("expected categories and the Tech tree, got %+v", resp)
	}
}

func TestIndex_DegradesToEmptyState(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("database is locked")
	r := newTestRouter(store, nil)

	w := get(t, r, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("index must not fail, got %d", w.Code)
	}
	var resp hierarchy.OverviewResponse
	decode(t, w, &resp)
	if len(resp.Categories) != 0 || len(resp.InitialData.Categories) != 0 {
		t.Errorf("expected empty state, got %+v", resp)
	}
}

func TestGetArticle(t *testing.T) {
	r := newTestRouter(newFakeStore(), nil)

	w := get(t, r, "/api/article/3")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var d hierarchy.ArticleDetail
	decode(t, w, &d)
	if d.ID != 3 || !d.Paywall || d.NewspaperName != "Newspaper B" {
		t.Errorf("unexpected detail %+v", d)
	}

	if w := get(t, r, "/api/article/x"); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if w := get(t, r, "/api/article/999"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	healthy := newTestRouter(newFakeStore(), func(context.Context) error { return nil })
	w := get(t, healthy, "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	healthy.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected caller's request id echoed, got %q", got)
	}

	down := newTestRouter(newFakeStore(), func(context.Context) error { return errors.New("down") })
	if w := get(t, down, "/healthz"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := get(t, r, "/boom")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "Internal server error" {
		t.Errorf("unexpected body %v", body)
	}
}
