package main

import (
	"bytes"
	"strings"
	"testing"

	"go-firestore-estate/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSeed = `
- id: villa
  title: Sea Villa
  price: "$1,200,000"
  subCategory: Villas
  images:
    - https://example.com/villa.jpg
  bedrooms: 4
  featured: true
- id: studio
  title: Studio
  bedrooms: 1 RK
- id: flat
  title: City Flat
`

func TestDecodeProperties_YAML(t *testing.T) {
	properties, err := decodeProperties(strings.NewReader(yamlSeed), "yaml")
	require.NoError(t, err)
	require.Len(t, properties, 3)

	villa := properties[0]
	assert.Equal(t, "villa", villa.Id)
	assert.Equal(t, "$1,200,000", villa.Price)
	assert.Equal(t, "Villas", villa.SubCategory)
	assert.Equal(t, []string{"https://example.com/villa.jpg"}, villa.Images)
	require.NotNil(t, villa.Bedrooms)
	assert.Equal(t, int64(4), villa.Bedrooms.Value())
	assert.True(t, villa.Featured)

	assert.Equal(t, "1 RK", properties[1].BedroomsText())
	assert.Nil(t, properties[2].Bedrooms)
}

func TestDecodeProperties_Errors(t *testing.T) {
	_, err := decodeProperties(strings.NewReader("[]"), "csv")
	assert.Error(t, err)

	_, err = decodeProperties(strings.NewReader("{"), "json")
	assert.Error(t, err)

	_, err = decodeProperties(strings.NewReader("a: [b"), "yml")
	assert.Error(t, err)
}

func TestEncodeProperties_RoundTripsThroughYAML(t *testing.T) {
	in := []model.Property{{
		Id:        "loft",
		Title:     "Loft",
		Images:    []string{"https://example.com/a.jpg"},
		Bedrooms:  model.IntCount(2),
		Bathrooms: model.FloatCount(1.5),
	}}

	var buf bytes.Buffer
	require.NoError(t, encodeProperties(&buf, in, "yaml"))
	assert.Contains(t, buf.String(), "title: Loft")

	out, err := decodeProperties(&buf, "yaml")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "loft", out[0].Id)
	assert.Equal(t, int64(2), out[0].Bedrooms.Value())
	assert.Equal(t, 1.5, out[0].Bathrooms.Value())
}
