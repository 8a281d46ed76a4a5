package search

import (
	"strings"
	"testing"

	"go-firestore-estate/internal/model"

	"github.com/stretchr/testify/assert"
)

func ids(properties []model.Property) []string {
	out := make([]string, 0, len(properties))
	for _, p := range properties {
		out = append(out, p.Id)
	}
	return out
}

var listing = []model.Property{
	{Id: "1", Title: "Sea View Villa", Location: "Goa", Type: "For Sale", Category: "Villa", Price: "2 Cr", Bedrooms: model.IntCount(4)},
	{Id: "2", Title: "Budget room", Location: "Pune", Type: "For Rent", Category: "PG/Hostels", Description: "near campus"},
	{Id: "3", Title: "Loft", Location: "Mumbai", Type: "For Rent", Category: "Apartment", SubCategory: "pg/hostels", Area: "900 sqft", Bathrooms: model.FloatCount(2.5)},
	{Id: "4", Title: "Office", Location: "Goa", Type: "Commercial", Category: "Office", SubCategory: "Co-working", Bathrooms: model.IntCount(3)},
	{Id: "5", Title: "Shared flat", Location: "Delhi", Type: "For Rent", Category: "PG/Hostels", SubCategory: "Flatmates", Bedrooms: model.TextCount("1 BHK")},
}

func TestSearchProperties(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  []string
	}{
		{"blank keeps everything", "   ", []string{"1", "2", "3", "4", "5"}},
		{"case insensitive title", "villa", []string{"1"}},
		{"location", "GOA", []string{"1", "4"}},
		{"description", "campus", []string{"2"}},
		{"area", "sqft", []string{"3"}},
		{"price", "2 cr", []string{"1"}},
		{"bedrooms", "4", []string{"1"}},
		{"bathrooms", "3", []string{"4"}},
		{"fractional bathrooms", "2.5", []string{"3"}},
		{"text bedrooms", "bhk", []string{"5"}},
		{"trimmed", "  loft ", []string{"3"}},
		{"no match", "castle", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(SearchProperties(listing, tc.query)))
		})
	}
}

func TestSearchProperties_SubsetInOrder(t *testing.T) {
	for _, q := range []string{"a", "o", "for", "rent", "", "zz"} {
		got := SearchProperties(listing, q)
		assert.LessOrEqual(t, len(got), len(listing))

		j := 0
		for _, p := range got {
			for j < len(listing) && listing[j].Id != p.Id {
				j++
			}
			assert.Less(t, j, len(listing), "result %q for %q is not an ordered subset", p.Id, q)
			j++
		}
	}
}

func TestFilterByType(t *testing.T) {
	assert.Equal(t, listing, FilterByType(listing, AllTypes))
	assert.Equal(t, listing, FilterByType(listing, ""))
	assert.Equal(t, []string{"2", "3", "5"}, ids(FilterByType(listing, "For Rent")))
	assert.Equal(t, []string{"4"}, ids(FilterByType(listing, "Co-working")))
	assert.Equal(t, []string{"1"}, ids(FilterByType(listing, "Villa")))
	// exact match only
	assert.Empty(t, FilterByType(listing, "villa"))
	assert.Equal(t, []string{"2", "5"}, ids(FilterByType(listing, PGHostels)))
}

func TestFilterByCategory(t *testing.T) {
	assert.Equal(t, listing, FilterByCategory(listing, ""))
	assert.Equal(t, listing, FilterByCategory(listing, AllTypes))
	assert.Equal(t, []string{"1"}, ids(FilterByCategory(listing, "villa")))
	// 4 has the type Commercial but the category Office
	assert.Empty(t, FilterByCategory(listing, "Commercial"))
	assert.Equal(t, []string{"2", "5"}, ids(FilterByCategory(listing, PGHostels)))

	legacy := []model.Property{
		{Id: "a", Category: "PG Single Room"},
		{Id: "b", Category: "Boys Hostel"},
		{Id: "c", Category: "PG Single Room", SubCategory: "Single"},
		{Id: "d", Category: "Apartment"},
	}
	assert.Equal(t, []string{"a", "b"}, ids(FilterByCategory(legacy, PGHostels)))
	assert.Empty(t, FilterByCategory(legacy, "Villa"))
}

func TestFilterByCategoryType_PGHostels(t *testing.T) {
	pg := []model.Property{
		{Id: "a", Category: "PG/Hostels", SubCategory: "Single"},
		{Id: "b", Category: "PG Single Room"},
		{Id: "c", Category: "PG/Hostels", SubCategory: "Double"},
		{Id: "d", Category: "PG/Hostels", SubCategory: "Double", Type: "Single occupancy"},
		{Id: "e", Type: "single bed"},
	}

	cases := []struct {
		name     string
		selected string
		want     []string
	}{
		// d has a subCategory, so its type is not consulted
		{"lower case", "single", []string{"a", "b", "e"}},
		{"upper case", "SINGLE", []string{"a", "b", "e"}},
		{"exact subCategory", "Double", []string{"c", "d"}},
		{"all", AllTypes, []string{"a", "b", "c", "d", "e"}},
		{"no match", "Triple", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(FilterByCategoryType(pg, PGHostels, tc.selected)))
		})
	}
}

func TestFilterByCategoryType_OtherCategories(t *testing.T) {
	assert.Equal(t, ids(FilterByType(listing, "Office")), ids(FilterByCategoryType(listing, "Office", "Office")))
	// outside the PG page the comparison stays exact
	assert.Empty(t, FilterByCategoryType(listing, "Villa", "villa"))
	assert.Equal(t, listing, FilterByCategoryType(listing, "Villa", AllTypes))
}

func TestFilterProperties_ManualWins(t *testing.T) {
	got := FilterProperties(listing, "villa", "goa", AllTypes)
	assert.Equal(t, []string{"1", "4"}, ids(got))

	got = FilterProperties(listing, "villa", "   ", AllTypes)
	assert.Equal(t, []string{"1"}, ids(got))

	got = FilterProperties(listing, "", "goa", "Commercial")
	assert.Equal(t, []string{"4"}, ids(got))
}

func TestFilterProperties_SearchThenType(t *testing.T) {
	for _, q := range []string{"", "goa", "rent", "flat"} {
		for _, typ := range []string{AllTypes, "For Rent", "Villa"} {
			want := FilterByType(SearchProperties(listing, q), typ)
			assert.Equal(t, want, FilterProperties(listing, q, "", typ))
		}
	}
}

func TestSanitizeSearchInput(t *testing.T) {
	assert.Equal(t, "goa", SanitizeSearchInput("  goa \n"))
	assert.Equal(t, "", SanitizeSearchInput("   "))

	long := strings.Repeat("x", 150)
	assert.Len(t, SanitizeSearchInput(long), MaxQueryLength)

	multibyte := strings.Repeat("é", 120)
	got := SanitizeSearchInput(multibyte)
	assert.Equal(t, strings.Repeat("é", MaxQueryLength), got)

	for _, s := range []string{"  a  ", long, multibyte, ""} {
		once := SanitizeSearchInput(s)
		assert.Equal(t, once, SanitizeSearchInput(once))
	}
}
