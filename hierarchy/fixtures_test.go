package hierarchy

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"news-hierarchy/cache"
	"news-hierarchy/models"
)

// testNow is T in every fixture.
var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func hoursAgo(h int) time.Time {
	return testNow.Add(-time.Duration(h) * time.Hour)
}

func uintPtr(v uint) *uint { return &v }
func intPtr(v int) *int    { return &v }

// openTestDB returns a migrated in-memory database. A single connection
// keeps every statement on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, values ...interface{}) {
	t.Helper()
	for _, v := range values {
		if err := db.Create(v).Error; err != nil {
			t.Fatalf("create %T: %v", v, err)
		}
	}
}

// seedNews loads the shared fixture:
//
//	Tech(1)
//	  AI(10):       Launch(100) articles 1,2 (A) and 3 (B, paywall); Chips(101) articles 4, 5
//	  Gadgets(11):  Phone(110) article 5
//	Sports(2)
//	  Football(20): Final(200) articles 6 (T-30h), 7, 9 (T-24h), 10 (T), 11 (T-24h-1s)
//	Politics(3)
//	  Elections(30): Vote(300) article 8 (T-100h)
//
// Article 1 is linked to Launch twice with different cluster ids.
func seedNews(t *testing.T, db *gorm.DB) {
	t.Helper()
	launchDate := hoursAgo(24)
	finalDate := hoursAgo(2)

	mustCreate(t, db,
		&models.Category{ID: 1, Name: "Tech"},
		&models.Category{ID: 2, Name: "Sports"},
		&models.Category{ID: 3, Name: "Politics"},
		&models.Subcategory{ID: 10, Name: "AI", CategoryID: 1},
		&models.Subcategory{ID: 11, Name: "Gadgets", CategoryID: 1},
		&models.Subcategory{ID: 20, Name: "Football", CategoryID: 2},
		&models.Subcategory{ID: 30, Name: "Elections", CategoryID: 3},
		&models.Newspaper{ID: 1, Name: "Newspaper A", LogoURL: "/static/img/a.svg"},
		&models.Newspaper{ID: 2, Name: "Newspaper B", LogoURL: "/static/img/b.svg"},
		&models.Event{ID: 100, Title: "Launch", Description: "Model launch", Date: &launchDate, SubcategoryID: 10},
		&models.Event{ID: 101, Title: "Chips", SubcategoryID: 10},
		&models.Event{ID: 110, Title: "Phone", SubcategoryID: 11},
		&models.Event{ID: 200, Title: "Final", Date: &finalDate, SubcategoryID: 20},
		&models.Event{ID: 300, Title: "Vote", SubcategoryID: 30},
		&models.Article{ID: 1, Headline: "Launch day", URL: "https://a.example/1", PublishedAt: hoursAgo(1), NewspaperID: uintPtr(1)},
		&models.Article{ID: 2, Headline: "Launch reactions", URL: "https://a.example/2", PublishedAt: hoursAgo(2), NewspaperID: uintPtr(1)},
		&models.Article{ID: 3, Headline: "Launch analysis", URL: "https://b.example/3", PublishedAt: hoursAgo(3), Paywall: true, NewspaperID: uintPtr(2)},
		&models.Article{ID: 4, Headline: "Chip supply", PublishedAt: hoursAgo(5), NewspaperID: uintPtr(1)},
		&models.Article{ID: 5, Headline: "Phone chips", PublishedAt: hoursAgo(4), NewspaperID: uintPtr(2)},
		&models.Article{ID: 6, Headline: "Final preview", PublishedAt: hoursAgo(30), NewspaperID: uintPtr(1)},
		&models.Article{ID: 7, Headline: "Final result", PublishedAt: hoursAgo(6), NewspaperID: uintPtr(1)},
		&models.Article{ID: 8, Headline: "Vote count", PublishedAt: hoursAgo(100), NewspaperID: uintPtr(1)},
		&models.Article{ID: 9, Headline: "Final kickoff", PublishedAt: hoursAgo(24), NewspaperID: uintPtr(1)},
		&models.Article{ID: 10, Headline: "Final replay", PublishedAt: testNow, NewspaperID: uintPtr(1)},
		&models.Article{ID: 11, Headline: "Final eve", PublishedAt: hoursAgo(24).Add(-time.Second), NewspaperID: uintPtr(1)},
		&models.Article{ID: 12, Headline: "Unlinked", PublishedAt: hoursAgo(1), NewspaperID: uintPtr(1)},
		&models.ArticleEvent{ArticleID: 1, EventID: 100, ClusterID: intPtr(1)},
		&models.ArticleEvent{ArticleID: 1, EventID: 100, ClusterID: intPtr(2), ClusterDescription: "re-clustered"},
		&models.ArticleEvent{ArticleID: 2, EventID: 100},
		&models.ArticleEvent{ArticleID: 3, EventID: 100},
		&models.ArticleEvent{ArticleID: 4, EventID: 101},
		&models.ArticleEvent{ArticleID: 5, EventID: 101},
		&models.ArticleEvent{ArticleID: 5, EventID: 110},
		&models.ArticleEvent{ArticleID: 6, EventID: 200},
		&models.ArticleEvent{ArticleID: 7, EventID: 200},
		&models.ArticleEvent{ArticleID: 9, EventID: 200},
		&models.ArticleEvent{ArticleID: 10, EventID: 200},
		&models.ArticleEvent{ArticleID: 11, EventID: 200},
		&models.ArticleEvent{ArticleID: 8, EventID: 300},
	)
}

// newTestService wires the fixture database into a service with memory
// caches and a frozen clock.
func newTestService(t *testing.T, store Store) (*Service, *cache.MemoryStore[*Tree]) {
	t.Helper()
	treeStore := cache.NewMemoryStore[*Tree](64)
	listStore := cache.NewMemoryStore[*Listing](64)
	svc := NewService(
		store,
		cache.New[*Tree](treeStore, time.Minute, zerolog.Nop()),
		cache.New[*Listing](listStore, time.Minute, zerolog.Nop()),
		Options{DefaultTimeFilter: "24h", MaxWindow: 720 * time.Hour, Now: func() time.Time { return testNow }},
		zerolog.Nop(),
	)
	return svc, treeStore
}

func eventIDs(events []EventNode) []uint {
	ids := make([]uint, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}

func articleIDs(articles []ArticleNode) []uint {
	ids := make([]uint, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	return ids
}

func equalIDs(a, b []uint) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// assertCountsConsistent checks that every parent count is the sum of its
// children and that event counts match their article lists.
func assertCountsConsistent(t *testing.T, tree *Tree) {
	t.Helper()
	for _, c := range tree.Categories {
		sum := 0
		for _, s := range c.Subcategories {
			subSum := 0
			for _, e := range s.Events {
				if e.ArticleCount != len(e.Articles) {
					t.Errorf("event %d count %d != %d articles", e.ID, e.ArticleCount, len(e.Articles))
				}
				subSum += e.ArticleCount
			}
			if s.ArticleCount != subSum {
				t.Errorf("subcategory %d count %d != sum %d", s.ID, s.ArticleCount, subSum)
			}
			sum += s.ArticleCount
		}
		if c.ArticleCount != sum {
			t.Errorf("category %d count %d != sum %d", c.ID, c.ArticleCount, sum)
		}
	}
}
