package hierarchy

import "sort"

// Rank orders every level of the tree in place:
//   - categories and subcategories by article count desc, then name, then id
//   - events by article count desc, then event date desc (undated last), then id
//   - articles by publication time desc, then id
func Rank(t *Tree) {
	if t == nil {
		return
	}
	sort.SliceStable(t.Categories, func(i, j int) bool {
		a, b := t.Categories[i], t.Categories[j]
		return lessByCount(a.ArticleCount, b.ArticleCount, a.Name, b.Name, a.ID, b.ID)
	})
	for ci := range t.Categories {
		cat := &t.Categories[ci]
		sort.SliceStable(cat.Subcategories, func(i, j int) bool {
			a, b := cat.Subcategories[i], cat.Subcategories[j]
			return lessByCount(a.ArticleCount, b.ArticleCount, a.Name, b.Name, a.ID, b.ID)
		})
		for si := range cat.Subcategories {
			sub := &cat.Subcategories[si]
			rankEvents(sub.Events)
			for ei := range sub.Events {
				rankArticles(sub.Events[ei].Articles)
			}
		}
	}
}

func lessByCount(countA, countB int, nameA, nameB string, idA, idB uint) bool {
	if countA != countB {
		return countA > countB
	}
	if nameA != nameB {
		return nameA < nameB
	}
	return idA < idB
}

func rankEvents(events []EventNode) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.ArticleCount != b.ArticleCount {
			return a.ArticleCount > b.ArticleCount
		}
		switch {
		case a.Date != nil && b.Date == nil:
			return true
		case a.Date == nil && b.Date != nil:
			return false
		case a.Date != nil && b.Date != nil && !a.Date.Equal(*b.Date):
			return a.Date.After(*b.Date)
		}
		return a.ID < b.ID
	})
}

func rankArticles(articles []ArticleNode) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i], articles[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ID < b.ID
	})
}

// RankedSubcategory is a subcategory entry for navigation lists.
type RankedSubcategory struct {
	ID           uint
	Name         string
	ArticleCount int
}

// RankSubcategories applies the subcategory ordering to a flat list.
func RankSubcategories(list []RankedSubcategory) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		return lessByCount(a.ArticleCount, b.ArticleCount, a.Name, b.Name, a.ID, b.ID)
	})
}

// RankedCategory is a category entry for navigation lists.
type RankedCategory struct {
	ID           uint
	Name         string
	ArticleCount int
}

// RankCategories applies the category ordering to a flat list.
func RankCategories(list []RankedCategory) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		return lessByCount(a.ArticleCount, b.ArticleCount, a.Name, b.Name, a.ID, b.ID)
	})
}
