/*
Package product defines the product vocabulary of the commission engine.

PURPOSE:
  Every contract is classified by a sub-category (the finest-grained product
  identifier, e.g. "Leben" or "KFZ"). The sub-category alone drives rate
  lookup and formula selection; the coarser category exists only for
  reporting roll-ups and is ALWAYS derived from the sub-category.

KEY CONCEPTS IN THIS FILE:
  - Category:     Coarse product family (Life, Health, Property, ...)
  - SubCategory:  Fine classifier, the key for rates and formulas
  - Selection:    Category + sub-category pair, constructed sub-category-first
  - PaymentFrequency: Cadence of the entered premium, with its
                      annualization factor

DESIGN PRINCIPLES:
  1. Closed enumerations: unknown sub-categories are rejected at
     construction, never defaulted.
  2. Derived category: Selection can only be built via Select(), so the
     invariant "category matches sub-category" holds by type, not by
     caller discipline.
  3. Precision: rates are decimal.Decimal, same as all money math.

SEE ALSO:
  - commission/: strategies and the calculator keyed by SubCategory
  - product/rates.go: system default rate per sub-category
*/
package product

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CATEGORY - Coarse product family (reporting dimension)
// =============================================================================

type Category string

const (
	CategoryLife     Category = "life"
	CategoryHealth   Category = "health"
	CategoryProperty Category = "property"
	CategoryVehicle  Category = "vehicle"
	CategoryLegal    Category = "legal"
	CategoryOther    Category = "other"
)

// Categories returns all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryLife, CategoryHealth, CategoryProperty,
		CategoryVehicle, CategoryLegal, CategoryOther,
	}
}

// =============================================================================
// SUB-CATEGORY - Fine classifier, drives rates and formula selection
// =============================================================================

type SubCategory string

const (
	SubLeben        SubCategory = "Leben"
	SubBU           SubCategory = "BU"
	SubKVVoll       SubCategory = "KV Voll"
	SubKVZusatz     SubCategory = "KV Zusatz"
	SubReiseKV      SubCategory = "Reise-KV"
	SubPHV          SubCategory = "PHV"
	SubHR           SubCategory = "HR"
	SubUNF          SubCategory = "UNF"
	SubSach         SubCategory = "Sach"
	SubKFZ          SubCategory = "KFZ"
	SubRechtsschutz SubCategory = "Rechtsschutz"
	SubSonstige     SubCategory = "Sonstige"
)

// subCategoryOwner maps every sub-category to the single category owning it.
var subCategoryOwner = map[SubCategory]Category{
	SubLeben:        CategoryLife,
	SubBU:           CategoryLife,
	SubKVVoll:       CategoryHealth,
	SubKVZusatz:     CategoryHealth,
	SubReiseKV:      CategoryHealth,
	SubPHV:          CategoryProperty,
	SubHR:           CategoryProperty,
	SubUNF:          CategoryProperty,
	SubSach:         CategoryProperty,
	SubKFZ:          CategoryVehicle,
	SubRechtsschutz: CategoryLegal,
	SubSonstige:     CategoryOther,
}

// categoryOrder keeps sub-category listings stable for UI pickers.
var categoryOrder = map[Category][]SubCategory{
	CategoryLife:     {SubLeben, SubBU},
	CategoryHealth:   {SubKVVoll, SubKVZusatz, SubReiseKV},
	CategoryProperty: {SubPHV, SubHR, SubUNF, SubSach},
	CategoryVehicle:  {SubKFZ},
	CategoryLegal:    {SubRechtsschutz},
	CategoryOther:    {SubSonstige},
}

// SubCategoriesOf returns the ordered sub-categories owned by a category.
func SubCategoriesOf(cat Category) []SubCategory {
	return categoryOrder[cat]
}

// Known reports whether the sub-category belongs to the closed enumeration.
func (s SubCategory) Known() bool {
	_, ok := subCategoryOwner[s]
	return ok
}

// =============================================================================
// SELECTION - Category derived from sub-category, never set independently
// =============================================================================

// Selection pairs a sub-category with its owning category. The zero value is
// invalid; use Select.
type Selection struct {
	Sub      SubCategory
	Category Category
}

// Select builds a Selection from a sub-category. The category is derived,
// which is the only way the pair can come into existence.
func Select(sub SubCategory) (Selection, bool) {
	cat, ok := subCategoryOwner[sub]
	if !ok {
		return Selection{}, false
	}
	return Selection{Sub: sub, Category: cat}, true
}

// =============================================================================
// PAYMENT FREQUENCY - Cadence of the entered premium
// =============================================================================

type PaymentFrequency string

const (
	PayMonthly    PaymentFrequency = "monthly"
	PayQuarterly  PaymentFrequency = "quarterly"
	PayHalfYearly PaymentFrequency = "half_yearly"
	PayYearly     PaymentFrequency = "yearly"
	PayOneTime    PaymentFrequency = "one_time"
)

var annualizationFactor = map[PaymentFrequency]int64{
	PayMonthly:    12,
	PayQuarterly:  4,
	PayHalfYearly: 2,
	PayYearly:     1,
	PayOneTime:    1,
}

// Known reports whether the frequency belongs to the closed enumeration.
func (f PaymentFrequency) Known() bool {
	_, ok := annualizationFactor[f]
	return ok
}

// AnnualizationFactor converts a per-period premium into a yearly premium.
// Unknown frequencies return 1; callers validate Known() first.
func (f PaymentFrequency) AnnualizationFactor() decimal.Decimal {
	factor, ok := annualizationFactor[f]
	if !ok {
		factor = 1
	}
	return decimal.NewFromInt(factor)
}
