package hierarchy

// Aggregate turns a Collection into an unranked Tree. An event's count is
// its number of distinct articles; subcategory and category counts are the
// sums of their children. Branches with no articles are left out.
func Aggregate(c *Collection) *Tree {
	tree := &Tree{Categories: []CategoryNode{}}
	if c == nil {
		return tree
	}

	subs := make(map[uint]*SubcategoryNode)
	for _, ev := range c.Events {
		if len(ev.Articles) == 0 {
			continue
		}
		node := EventNode{
			ID:             ev.EventID,
			Title:          ev.Title,
			Description:    ev.Description,
			Date:           ev.Date,
			ArticleCount:   len(ev.Articles),
			NewspaperCount: len(ev.ByNewspaper),
			Articles:       make([]ArticleNode, 0, len(ev.Articles)),
		}
		for _, a := range ev.Articles {
			node.Articles = append(node.Articles, a)
		}

		sub, ok := subs[ev.SubcategoryID]
		if !ok {
			ref := c.subcategories[ev.SubcategoryID]
			sub = &SubcategoryNode{ID: ev.SubcategoryID, CategoryID: ref.categoryID, Name: ref.name}
			subs[ev.SubcategoryID] = sub
		}
		sub.Events = append(sub.Events, node)
		sub.ArticleCount += node.ArticleCount
	}

	cats := make(map[uint]*CategoryNode)
	var order []uint
	for _, sub := range subs {
		cat, ok := cats[sub.CategoryID]
		if !ok {
			cat = &CategoryNode{ID: sub.CategoryID, Name: c.categories[sub.CategoryID]}
			cats[sub.CategoryID] = cat
			order = append(order, sub.CategoryID)
		}
		cat.Subcategories = append(cat.Subcategories, *sub)
		cat.ArticleCount += sub.ArticleCount
	}

	for _, id := range order {
		tree.Categories = append(tree.Categories, *cats[id])
	}
	return tree
}
