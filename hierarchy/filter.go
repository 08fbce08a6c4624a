package hierarchy

import (
	"fmt"
	"strconv"
)

// Scope selects how much of the taxonomy a query covers.
type Scope int

const (
	// ScopeAll aggregates every category (the "all categories" view).
	ScopeAll Scope = iota
	// ScopeCategory restricts to one category.
	ScopeCategory
	// ScopeSubcategory restricts to one subcategory.
	ScopeSubcategory
)

func (s Scope) String() string {
	switch s {
	case ScopeCategory:
		return "category"
	case ScopeSubcategory:
		return "subcategory"
	default:
		return "all"
	}
}

// OptionalID is an id that may be absent. The zero value is absent.
type OptionalID struct {
	ID    uint
	Valid bool
}

// Some returns a present id.
func Some(id uint) OptionalID {
	return OptionalID{ID: id, Valid: true}
}

// ParseOptionalID reads a query-string id; empty means absent.
func ParseOptionalID(raw string) (OptionalID, error) {
	if raw == "" {
		return OptionalID{}, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return OptionalID{}, fmt.Errorf("invalid id %q", raw)
	}
	return Some(uint(id)), nil
}

func (o OptionalID) String() string {
	if !o.Valid {
		return "-"
	}
	return strconv.FormatUint(uint64(o.ID), 10)
}

// Params are the raw inputs of one aggregation request.
type Params struct {
	CategoryID    OptionalID
	SubcategoryID OptionalID
	TimeFilter    TimeFilter
	HidePaywall   bool
}

// FilterSpec is the resolved, immutable description of one aggregation
// query. Build it with NewFilterSpec or AllCategories.
type FilterSpec struct {
	scope         Scope
	categoryID    OptionalID
	subcategoryID OptionalID
	window        Window
	hidePaywall   bool
	warnings      []string
}

// NewFilterSpec builds a spec scoped to a category and/or subcategory.
// Returns ErrMissingFilterParameter when neither is given.
func NewFilterSpec(p Params, w Window) (FilterSpec, error) {
	spec := FilterSpec{
		categoryID:    p.CategoryID,
		subcategoryID: p.SubcategoryID,
		window:        w,
		hidePaywall:   p.HidePaywall,
	}
	switch {
	case p.SubcategoryID.Valid:
		spec.scope = ScopeSubcategory
	case p.CategoryID.Valid:
		spec.scope = ScopeCategory
	default:
		return FilterSpec{}, ErrMissingFilterParameter
	}
	return spec, nil
}

// AllCategories builds the unscoped view over every category.
func AllCategories(w Window, hidePaywall bool) FilterSpec {
	return FilterSpec{scope: ScopeAll, window: w, hidePaywall: hidePaywall}
}

func (s FilterSpec) Scope() Scope              { return s.scope }
func (s FilterSpec) CategoryID() OptionalID    { return s.categoryID }
func (s FilterSpec) SubcategoryID() OptionalID { return s.subcategoryID }
func (s FilterSpec) Window() Window            { return s.window }
func (s FilterSpec) HidePaywall() bool         { return s.hidePaywall }

// Warnings returns validation notes collected while resolving the filter.
func (s FilterSpec) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

// reconcile checks the category filter against the subcategory's real
// owner. The subcategory wins; a mismatch is recorded as a warning.
func (s FilterSpec) reconcile(ownerCategoryID uint) FilterSpec {
	if s.scope != ScopeSubcategory || !s.categoryID.Valid || s.categoryID.ID == ownerCategoryID {
		return s
	}
	out := s
	out.warnings = append(append([]string(nil), s.warnings...), fmt.Sprintf(
		"subcategory %d belongs to category %d, not %d; category_id ignored",
		s.subcategoryID.ID, ownerCategoryID, s.categoryID.ID))
	out.categoryID = Some(ownerCategoryID)
	return out
}
