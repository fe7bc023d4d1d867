package services

import (
	"strings"

	"wardrobeapi/models"

	"golang.org/x/text/cases"
)

// FilterInventory keeps items matching the category filter and the search
// term. An all filter or empty term matches everything. Order is preserved.
func FilterInventory(items []models.ClothingItem, category string, term string) []models.ClothingItem {
	folder := cases.Fold()
	needle := folder.String(term)
	out := make([]models.ClothingItem, 0, len(items))
	for _, item := range items {
		if !models.IsCategoryFilterAll(category) && string(item.Category) != category {
			continue
		}
		if needle != "" && !matchesTerm(folder, item, needle) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// folder is not safe for concurrent use.
func matchesTerm(folder cases.Caser, item models.ClothingItem, needle string) bool {
	for _, field := range []string{item.Name, item.Location, item.Color} {
		if strings.Contains(folder.String(field), needle) {
			return true
		}
	}
	return false
}
