package utils

import "time"

func BoolToPointer(b bool) *bool {
	return &b
}

func TimeToPointer(t time.Time) *time.Time {
	return &t
}
