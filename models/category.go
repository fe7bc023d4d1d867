package models

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

type Category string

const (
	CategoryTop       Category = "TOP"
	CategoryBottom    Category = "BOTTOM"
	CategoryShoes     Category = "SHOES"
	CategoryOuterwear Category = "OUTERWEAR"
	CategoryAccessory Category = "ACCESSORY"
	CategoryDress     Category = "DRESS"
	CategoryOther     Category = "OTHER"
)

// CategoryFilterAll matches every category in inventory queries.
const CategoryFilterAll = "ALL"

// CategoryFilterAllLabel is the display form of CategoryFilterAll.
const CategoryFilterAllLabel = "全部"

var Categories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryShoes,
	CategoryOuterwear,
	CategoryAccessory,
	CategoryDress,
	CategoryOther,
}

var categoryLabels = map[Category]string{
	CategoryTop:       "上装",
	CategoryBottom:    "下装",
	CategoryShoes:     "鞋履",
	CategoryOuterwear: "外套",
	CategoryAccessory: "配饰",
	CategoryDress:     "连衣裙",
	CategoryOther:     "其他",
}

func (c *Category) Scan(value interface{}) error {
	*c = Category(value.(string))
	return nil
}

func (c Category) Value() (string, error) {
	return string(c), nil
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// ParseCategory accepts the enum name in any case or its display label.
func ParseCategory(value string) (Category, error) {
	value = strings.TrimSpace(value)
	candidate := Category(strings.ToUpper(value))
	if candidate.Valid() {
		return candidate, nil
	}
	for category, label := range categoryLabels {
		if label == value {
			return category, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", value)
}

func ValidateCategory(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).Valid()
}

// ValidateCategoryFilter accepts an exact category or the all sentinel.
func ValidateCategoryFilter(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return IsCategoryFilterAll(value) || Category(value).Valid()
}

func IsCategoryFilterAll(value string) bool {
	return value == "" || value == CategoryFilterAll || value == CategoryFilterAllLabel
}
