// Package id generates prefixed entity identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Entity prefixes.
const (
	PrefixUser     = "usr"
	PrefixReminder = "rem"
	PrefixLibrary  = "lib"
)

// Generate creates a prefixed NanoID, e.g. "usr-V1StGXR8_Z5jdHi6B-myT".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// HasPrefix reports whether id was generated with prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-") && len(id) > len(prefix)+1
}
