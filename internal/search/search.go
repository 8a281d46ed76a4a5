// Package search filters an already normalized listing in memory.
package search

import (
	"strings"
	"unicode/utf8"

	"go-firestore-estate/internal/model"
)

const (
	// AllTypes disables the type filter.
	AllTypes = "all"

	// PGHostels is the category page whose types match subCategory case-insensitively.
	PGHostels = "PG/Hostels"

	MaxQueryLength = 100
)

func searchable(p model.Property) []string {
	return []string{
		p.Title,
		p.Location,
		p.Category,
		p.Type,
		p.Description,
		p.Area,
		p.Price,
		p.BedroomsText(),
		p.BathroomsText(),
	}
}

// SearchProperties keeps the properties where any searchable field contains the query,
// ignoring case. A blank query returns the input unchanged.
func SearchProperties(properties []model.Property, query string) []model.Property {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return properties
	}

	out := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		for _, field := range searchable(p) {
			if field != "" && strings.Contains(strings.ToLower(field), q) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// FilterByType keeps exact matches on category, type or subCategory.
func FilterByType(properties []model.Property, propertyType string) []model.Property {
	if propertyType == "" || propertyType == AllTypes {
		return properties
	}

	out := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		if p.Category == propertyType || p.Type == propertyType || p.SubCategory == propertyType {
			out = append(out, p)
		}
	}
	return out
}

// FilterByCategory keeps the properties listed on a category page: category equal to the page
// ignoring case. The PGHostels page also lists records without a subCategory whose category
// names a PG or hostel.
func FilterByCategory(properties []model.Property, category string) []model.Property {
	if category == "" || category == AllTypes {
		return properties
	}

	out := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		if strings.EqualFold(p.Category, category) || (category == PGHostels && isLegacyPG(p)) {
			out = append(out, p)
		}
	}
	return out
}

func isLegacyPG(p model.Property) bool {
	if p.SubCategory != "" {
		return false
	}
	c := strings.ToLower(p.Category)
	return strings.HasPrefix(c, "pg") || strings.Contains(c, "hostel")
}

// FilterByCategoryType is FilterByType as applied on a category page. On the PGHostels page the
// selected type is compared with subCategory ignoring case and, only when subCategory is absent,
// looked up as a substring of category or type. Other pages use FilterByType.
func FilterByCategoryType(properties []model.Property, category, selectedType string) []model.Property {
	if category != PGHostels || selectedType == "" || selectedType == AllTypes {
		return FilterByType(properties, selectedType)
	}

	needle := strings.ToLower(selectedType)
	out := make([]model.Property, 0, len(properties))
	for _, p := range properties {
		if p.SubCategory != "" {
			if strings.EqualFold(p.SubCategory, selectedType) {
				out = append(out, p)
			}
			continue
		}
		if strings.Contains(strings.ToLower(p.Category), needle) || strings.Contains(strings.ToLower(p.Type), needle) {
			out = append(out, p)
		}
	}
	return out
}

// FilterProperties searches with exactly one query, the trimmed manual one when non-empty and the
// dropdown one otherwise, then applies the type filter.
func FilterProperties(properties []model.Property, dropdownQuery, manualQuery, propertyType string) []model.Property {
	query := dropdownQuery
	if strings.TrimSpace(manualQuery) != "" {
		query = manualQuery
	}

	return FilterByType(SearchProperties(properties, query), propertyType)
}

// SanitizeSearchInput trims the input and truncates it to MaxQueryLength characters.
func SanitizeSearchInput(input string) string {
	s := strings.TrimSpace(input)
	if utf8.RuneCountInString(s) <= MaxQueryLength {
		return s
	}

	runes := []rune(s)
	return string(runes[:MaxQueryLength])
}
