package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// RoomCount is a bedroom or bathroom count kept exactly as it was stored: a whole number, a
// fractional number or free text such as "3 BHK". A nil *RoomCount means the field is absent.
type RoomCount struct {
	value interface{}
}

func IntCount(i int64) *RoomCount {
	return &RoomCount{value: i}
}

func FloatCount(f float64) *RoomCount {
	return &RoomCount{value: f}
}

// NumberCount stores whole numbers as integers.
func NumberCount(f float64) *RoomCount {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return IntCount(int64(f))
	}
	return FloatCount(f)
}

func TextCount(s string) *RoomCount {
	return &RoomCount{value: s}
}

// Value is the stored form: int64, float64 or string.
func (c *RoomCount) Value() interface{} {
	if c == nil {
		return nil
	}
	return c.value
}

// Number reports the count as a number when it was stored as one.
func (c *RoomCount) Number() (float64, bool) {
	if c == nil {
		return 0, false
	}
	switch v := c.value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func (c *RoomCount) String() string {
	if c == nil {
		return ""
	}
	switch v := c.value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return v
	}
	return ""
}

func (c *RoomCount) Equal(other *RoomCount) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.value == other.value
}

func (c RoomCount) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.value)
}

func (c *RoomCount) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			c.value = i
			return nil
		}
		f, err := t.Float64()
		if err != nil {
			return err
		}
		c.value = f
	case string:
		c.value = t
	default:
		return fmt.Errorf("room count: unsupported value %s", data)
	}
	return nil
}
