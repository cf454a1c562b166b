// Package category assigns spending categories to vendor names using
// fixed keyword rules.
package category

import "strings"

// Category is one label from the fixed spending taxonomy
type Category string

const (
	Food      Category = "Food"
	Travel    Category = "Travel"
	Utilities Category = "Utilities"
	Rent      Category = "Rent"
	Misc      Category = "Misc"
)

// rules are checked in order; the first category with a matching keyword
// wins, so a vendor like "Cafe Hotel" is Food, not Travel. The ordering
// is part of the contract.
var rules = []struct {
	category Category
	keywords []string
}{
	{Food, []string{"restaurant", "cafe", "food", "grocer", "supermarket", "bakery"}},
	{Travel, []string{"hotel", "flight", "airline", "taxi", "uber", "lyft", "transport"}},
	{Utilities, []string{"electric", "water", "gas", "internet", "phone", "utility"}},
	{Rent, []string{"rent", "lease", "housing"}},
}

// Categorize maps a vendor name to a category by case-insensitive
// keyword membership. It always returns a category; Misc is the default.
func Categorize(vendor string) Category {
	vendor = strings.ToLower(vendor)
	for _, rule := range rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(vendor, keyword) {
				return rule.category
			}
		}
	}
	return Misc
}
