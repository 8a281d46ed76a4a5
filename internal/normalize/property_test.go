package normalize

import (
	"testing"

	"go-firestore-estate/internal/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProperty_Defaults(t *testing.T) {
	r := Property("p1", map[string]interface{}{})

	want := model.Property{
		Id:          "p1",
		Title:       DefaultTitle,
		Price:       NotAvailable,
		Location:    NotAvailable,
		Type:        DefaultType,
		Area:        NotAvailable,
		Description: DefaultDescription,
		Images:      []string{PlaceholderImage},
	}

	require.True(t, r.Valid, r.Issues)
	assert.NoError(t, r.Err())
	if diff := cmp.Diff(want, r.Property); diff != "" {
		t.Errorf("normalized property mismatch (-want +got):\n%s", diff)
	}
}

func TestProperty_EmptyStringsTakeDefaults(t *testing.T) {
	r := Property("p1", map[string]interface{}{"title": "", "type": "", "category": ""})

	assert.Equal(t, DefaultTitle, r.Property.Title)
	assert.Equal(t, DefaultType, r.Property.Type)
	assert.Equal(t, "", r.Property.Category)
}

func TestProperty_KeepsStoredValues(t *testing.T) {
	approved := true
	r := Property("p2", map[string]interface{}{
		"title":       "Sea view flat",
		"price":       "₹ 45 Lakh",
		"location":    "Kochi",
		"type":        "For Rent",
		"category":    "Apartment",
		"subCategory": "2BHK",
		"images":      []interface{}{"https://cdn.example.com/a.jpg"},
		"bedrooms":    int64(2),
		"bathrooms":   "1",
		"area":        "900 sqft",
		"description": "Close to the beach",
		"featured":    true,
		"approved":    approved,
		"status":      "active",
	})

	require.True(t, r.Valid, r.Issues)
	want := model.Property{
		Id:          "p2",
		Title:       "Sea view flat",
		Price:       "₹ 45 Lakh",
		Location:    "Kochi",
		Type:        "For Rent",
		Category:    "Apartment",
		SubCategory: "2BHK",
		Images:      []string{"https://cdn.example.com/a.jpg"},
		Bedrooms:    model.IntCount(2),
		Bathrooms:   model.TextCount("1"),
		Area:        "900 sqft",
		Description: "Close to the beach",
		Featured:    true,
		Status:      "active",
		Approved:    &approved,
	}
	if diff := cmp.Diff(want, r.Property); diff != "" {
		t.Errorf("normalized property mismatch (-want +got):\n%s", diff)
	}
}

func TestProperty_NumericPriceIsText(t *testing.T) {
	r := Property("p", map[string]interface{}{"price": int64(4500000)})
	assert.True(t, r.Valid)
	assert.Equal(t, "4500000", r.Property.Price)
}

func TestProperty_AbsentCountsStayAbsent(t *testing.T) {
	r := Property("p", map[string]interface{}{"title": "x"})
	assert.Nil(t, r.Property.Bedrooms)
	assert.Nil(t, r.Property.Bathrooms)
	assert.Equal(t, "", r.Property.BedroomsText())
}

func TestProperty_WrongTypesAreInvalid(t *testing.T) {
	r := Property("p", map[string]interface{}{
		"title":    []interface{}{"a"},
		"images":   "https://x.example.com/a.jpg",
		"featured": "yes",
	})

	assert.False(t, r.Valid)
	assert.Len(t, r.Issues, 3)
	assert.Error(t, r.Err())
	// defaults still apply so the record can be shown in diagnostics
	assert.Equal(t, DefaultTitle, r.Property.Title)
	assert.Equal(t, []string{PlaceholderImage}, r.Property.Images)
}

func TestProperty_CountsPassThrough(t *testing.T) {
	cases := []struct {
		name     string
		in       interface{}
		want     *model.RoomCount
		text     string
		warnings int
	}{
		{"integer", int64(3), model.IntCount(3), "3", 0},
		{"fraction", 2.5, model.FloatCount(2.5), "2.5", 0},
		{"numeric text", "3", model.TextCount("3"), "3", 0},
		{"free text", "3 BHK", model.TextCount("3 BHK"), "3 BHK", 1},
		{"empty text", "", nil, "", 0},
		{"wrong type", true, nil, "", 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Property("p", map[string]interface{}{"title": "x", "bedrooms": tc.in})

			assert.True(t, r.Valid, r.Issues)
			assert.Empty(t, r.Issues)
			assert.Len(t, r.Warnings, tc.warnings)
			assert.True(t, tc.want.Equal(r.Property.Bedrooms), "got %v", r.Property.Bedrooms.Value())
			assert.Equal(t, tc.text, r.Property.BedroomsText())
		})
	}
}

func TestProperty_CountsWriteBackUnchanged(t *testing.T) {
	r := Property("p", map[string]interface{}{"title": "x", "bedrooms": "3 BHK", "bathrooms": 2.5})
	fields := r.Property.Fields()
	assert.Equal(t, "3 BHK", fields["bedrooms"])
	assert.Equal(t, 2.5, fields["bathrooms"])
}

func TestProperty_MissingIdIsInvalid(t *testing.T) {
	r := Property("", map[string]interface{}{"title": "x"})
	assert.False(t, r.Valid)
	assert.Contains(t, r.Issues, "id is required")
}

func TestProperty_ImagesKeepAcceptedInOrder(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want []string
	}{
		{
			name: "mixed",
			in: []interface{}{
				"http://insecure.example.com/a.jpg",
				"https://b.example.com/b.jpg",
				"",
				42,
				"data:image/png;base64,AAAA",
				"http://res.cloudinary.com/demo/c.jpg",
				"ftp://d",
			},
			want: []string{
				"https://b.example.com/b.jpg",
				"data:image/png;base64,AAAA",
				"http://res.cloudinary.com/demo/c.jpg",
			},
		},
		{
			name: "all rejected",
			in:   []interface{}{"http://a", "", "data:text/plain,x"},
			want: []string{PlaceholderImage},
		},
		{
			name: "empty",
			in:   []interface{}{},
			want: []string{PlaceholderImage},
		},
		{
			name: "absent",
			in:   nil,
			want: []string{PlaceholderImage},
		},
		{
			name: "typed strings",
			in:   []string{"https://a", "https://b"},
			want: []string{"https://a", "https://b"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw := map[string]interface{}{}
			if tc.in != nil {
				raw["images"] = tc.in
			}
			r := Property("p", raw)
			assert.True(t, r.Valid, r.Issues)
			assert.Equal(t, tc.want, r.Property.Images)
		})
	}
}

func TestNew_CustomPlaceholder(t *testing.T) {
	n := New("/static/no-image.png")
	r := n.Property("p", map[string]interface{}{"images": []interface{}{"http://a"}})

	assert.True(t, r.Valid, r.Issues)
	assert.Equal(t, []string{"/static/no-image.png"}, r.Property.Images)
	assert.Equal(t, "/static/no-image.png", n.Placeholder())
}

func TestAcceptImage(t *testing.T) {
	assert.True(t, AcceptImage("https://a"))
	assert.True(t, AcceptImage("data:image/jpeg;base64,xx"))
	assert.True(t, AcceptImage("res.cloudinary.com/x.png"))
	assert.False(t, AcceptImage(""))
	assert.False(t, AcceptImage("http://a"))
	assert.False(t, AcceptImage("HTTPS://A"))
}

func TestProperty_Deterministic(t *testing.T) {
	raw := map[string]interface{}{"title": "T", "images": []interface{}{"https://a", "http://b"}}
	assert.Equal(t, Property("x", raw), Property("x", raw))
}
