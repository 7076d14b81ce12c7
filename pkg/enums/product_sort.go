package enums

import (
	"fmt"
	"strings"
)

// ProductSort selects the catalog ordering.
type ProductSort string

const (
	ProductSortNewest    ProductSort = "newest"
	ProductSortPriceAsc  ProductSort = "price_asc"
	ProductSortPriceDesc ProductSort = "price_desc"
	ProductSortRating    ProductSort = "rating"
)

var validProductSorts = []ProductSort{
	ProductSortNewest,
	ProductSortPriceAsc,
	ProductSortPriceDesc,
	ProductSortRating,
}

func (p ProductSort) String() string {
	return string(p)
}

func (p ProductSort) IsValid() bool {
	for _, candidate := range validProductSorts {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductSort converts raw input into a ProductSort. Empty input means newest.
func ParseProductSort(value string) (ProductSort, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ProductSortNewest, nil
	}
	for _, candidate := range validProductSorts {
		if string(candidate) == trimmed {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sort %q", value)
}
