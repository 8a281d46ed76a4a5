package model

import "time"

type Property struct {
	Id          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Price       string     `json:"price"`
	Location    string     `json:"location"`
	Type        string     `json:"type"`
	Category    string     `json:"category"`
	SubCategory string     `json:"subCategory,omitempty"`
	Images      []string   `json:"images" validate:"min=1,dive,listingimage"`
	Bedrooms    *RoomCount `json:"bedrooms,omitempty"`
	Bathrooms   *RoomCount `json:"bathrooms,omitempty"`
	Area        string     `json:"area"`
	Description string     `json:"description"`
	Featured    bool       `json:"featured"`
	Status      string     `json:"status,omitempty"`
	Approved    *bool      `json:"approved,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt,omitempty"`
}

// Fields is the document form written to properties/{id}. Optional fields are left out when unset.
func (p Property) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"title":       p.Title,
		"price":       p.Price,
		"location":    p.Location,
		"type":        p.Type,
		"category":    p.Category,
		"images":      toInterfaces(p.Images),
		"area":        p.Area,
		"description": p.Description,
		"featured":    p.Featured,
	}

	if p.SubCategory != "" {
		fields["subCategory"] = p.SubCategory
	}
	if p.Bedrooms != nil {
		fields["bedrooms"] = p.Bedrooms.Value()
	}
	if p.Bathrooms != nil {
		fields["bathrooms"] = p.Bathrooms.Value()
	}
	if p.Status != "" {
		fields["status"] = p.Status
	}
	if p.Approved != nil {
		fields["approved"] = *p.Approved
	}
	if !p.CreatedAt.IsZero() {
		fields["createdAt"] = p.CreatedAt
	}
	if !p.UpdatedAt.IsZero() {
		fields["updatedAt"] = p.UpdatedAt
	}
	return fields
}

func (p Property) BedroomsText() string {
	return p.Bedrooms.String()
}

func (p Property) BathroomsText() string {
	return p.Bathrooms.String()
}

func toInterfaces(ss []string) []interface{} {
	out := make([]interface{}, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}

// Rejection describes a stored record that failed validation and was left out of a snapshot.
type Rejection struct {
	Id     string   `json:"id"`
	Issues []string `json:"issues"`
}
