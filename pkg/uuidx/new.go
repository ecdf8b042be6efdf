package uuidx

import "github.com/google/uuid"

// New generates a version 7 UUID. Version 7 ids sort by creation time, which
// keeps scope ids in log output in the order the scopes were opened.
// It panics if the UUID generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString generates a new version 7 UUID and returns it as a string.
func NewString() string {
	return New().String()
}

// Prefixed returns a new version 7 UUID string with prefix and a dash in front
// of it, e.g. "scope-0193...". An empty prefix yields a bare id.
func Prefixed(prefix string) string {
	if prefix == "" {
		return NewString()
	}
	return prefix + "-" + NewString()
}
