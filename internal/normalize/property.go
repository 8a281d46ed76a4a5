// Package normalize turns raw document fields into the canonical listing and visitor-stat shapes.
// Missing fields fall back to presentation defaults; fields of the wrong type are reported.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-firestore-estate/internal/model"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultTitle       = "Property"
	DefaultType        = "For Sale"
	NotAvailable       = "N/A"
	DefaultDescription = "No description available."
	PlaceholderImage   = "https://via.placeholder.com/400x300?text=No+Image"
)

var validationMessages = map[string]string{
	"Property.Id.required":         "is required",
	"Property.Title.required":      "is required",
	"Property.Images.min":          "must contain at least one image",
	"Property.Images.listingimage": "must be a data:image/ URL, an https:// URL or a cloudinary.com URL",
}

// Result is the tagged outcome of normalising one stored property. Warnings describe fields that
// were kept or dropped without affecting Valid.
type Result struct {
	Property model.Property
	Valid    bool
	Issues   []string
	Warnings []string
}

func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("property %s: %s", r.Property.Id, strings.Join(r.Issues, "; "))
}

type Normalizer struct {
	placeholder string
	validate    *validator.Validate
}

// New returns a Normalizer substituting placeholder for listings without a usable image.
// An empty placeholder selects PlaceholderImage. It panics when the image rule cannot be registered.
func New(placeholder string) *Normalizer {
	if placeholder == "" {
		placeholder = PlaceholderImage
	}

	v := validator.New()
	err := v.RegisterValidation("listingimage", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == placeholder || AcceptImage(s)
	})
	if err != nil {
		panic(fmt.Errorf("register listingimage validation: %w", err))
	}

	return &Normalizer{placeholder: placeholder, validate: v}
}

var defaultNormalizer = New("")

// Property normalises with the default placeholder.
func Property(id string, raw map[string]interface{}) Result {
	return defaultNormalizer.Property(id, raw)
}

func (n *Normalizer) Placeholder() string {
	return n.placeholder
}

func (n *Normalizer) Property(id string, raw map[string]interface{}) Result {
	f := fields{raw: raw}

	p := model.Property{
		Id:          id,
		Title:       f.text("title", DefaultTitle),
		Price:       f.text("price", NotAvailable),
		Location:    f.text("location", NotAvailable),
		Type:        f.text("type", DefaultType),
		Category:    f.text("category", ""),
		SubCategory: f.text("subCategory", ""),
		Area:        f.text("area", NotAvailable),
		Description: f.text("description", DefaultDescription),
		Featured:    f.flag("featured"),
		Status:      f.text("status", ""),
		Approved:    f.optionalFlag("approved"),
		Bedrooms:    f.count("bedrooms"),
		Bathrooms:   f.count("bathrooms"),
		CreatedAt:   f.time("createdAt"),
		UpdatedAt:   f.time("updatedAt"),
	}

	images, ok := raw["images"]
	if ok && images != nil {
		if _, isList := images.([]interface{}); !isList {
			if _, isStrings := images.([]string); !isStrings {
				f.issue("images", "expected a list, got %T", images)
			}
		}
	}
	p.Images = FilterImages(images, n.placeholder)

	issues := append(f.issues, n.validationIssues(p)...)
	return Result{Property: p, Valid: len(issues) == 0, Issues: issues, Warnings: f.warnings}
}

func (n *Normalizer) validationIssues(p model.Property) []string {
	err := n.validate.Struct(p)
	if err == nil {
		return nil
	}

	var validationErr validator.ValidationErrors
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	issues := make([]string, 0, len(validationErr))
	for _, e := range validationErr {
		key := e.StructNamespace()
		if i := strings.Index(key, "["); i >= 0 {
			key = key[:i]
		}
		msg := "is invalid"
		if m, ok := validationMessages[key+"."+e.Tag()]; ok {
			msg = m
		}
		issues = append(issues, fmt.Sprintf("%s %s", strings.ToLower(e.Field()[:1])+e.Field()[1:], msg))
	}
	return issues
}

// AcceptImage is the image URL acceptance rule for listings.
func AcceptImage(s string) bool {
	if s == "" {
		return false
	}
	return strings.HasPrefix(s, "data:image/") ||
		strings.HasPrefix(s, "https://") ||
		strings.Contains(s, "cloudinary.com")
}

// FilterImages keeps accepted entries in their original order; an empty result becomes
// exactly one placeholder.
func FilterImages(raw interface{}, placeholder string) []string {
	var candidates []interface{}
	switch v := raw.(type) {
	case []interface{}:
		candidates = v
	case []string:
		for _, s := range v {
			candidates = append(candidates, s)
		}
	}

	images := make([]string, 0, len(candidates))
	for _, c := range candidates {
		s, ok := c.(string)
		if !ok || !AcceptImage(s) {
			continue
		}
		images = append(images, s)
	}

	if len(images) == 0 {
		return []string{placeholder}
	}
	return images
}

type fields struct {
	raw      map[string]interface{}
	issues   []string
	warnings []string
}

func (f *fields) issue(name, format string, args ...interface{}) {
	f.issues = append(f.issues, fmt.Sprintf("%s: %s", name, fmt.Sprintf(format, args...)))
}

func (f *fields) warn(name, format string, args ...interface{}) {
	f.warnings = append(f.warnings, fmt.Sprintf("%s: %s", name, fmt.Sprintf(format, args...)))
}

func (f *fields) text(name, fallback string) string {
	v, ok := f.raw[name]
	if !ok || v == nil {
		return fallback
	}

	switch t := v.(type) {
	case string:
		if t == "" {
			return fallback
		}
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}

	f.issue(name, "expected text, got %T", v)
	return fallback
}

func (f *fields) flag(name string) bool {
	b := f.optionalFlag(name)
	return b != nil && *b
}

func (f *fields) optionalFlag(name string) *bool {
	v, ok := f.raw[name]
	if !ok || v == nil {
		return nil
	}

	b, ok := v.(bool)
	if !ok {
		f.issue(name, "expected a boolean, got %T", v)
		return nil
	}
	return &b
}

// count keeps the stored value as is. Text that does not read as a number is kept for display and
// search but reported.
func (f *fields) count(name string) *model.RoomCount {
	v, ok := f.raw[name]
	if !ok || v == nil {
		return nil
	}

	switch t := v.(type) {
	case int64:
		return model.IntCount(t)
	case int:
		return model.IntCount(int64(t))
	case float64:
		return model.FloatCount(t)
	case string:
		if t == "" {
			return nil
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err != nil {
			f.warn(name, "not a number: %s", t)
		}
		return model.TextCount(t)
	}

	f.warn(name, "expected a number, got %T", v)
	return nil
}

func (f *fields) time(name string) time.Time {
	t, _ := asTime(f.raw[name])
	return t
}

func asTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
