// Package uuid hands out identifiers for roster changes behind an interface tests can replace
package uuid

import (
	"github.com/google/uuid"
)

// Generator produces unique identifiers
type Generator interface {
	New() string
}

// GeneratorFunc adapts a function to Generator
type GeneratorFunc func() string

// New calls f
func (f GeneratorFunc) New() string {
	return f()
}

// GoogleUUIDGenerator returns random (v4) UUID strings
type GoogleUUIDGenerator struct{}

// New generates a new UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.NewString()
}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}
