// Package id generates request identifiers and stable catalog document IDs.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/pagewise/pagewise-server/internal/domain"
)

// requestAlphabet avoids '-' and '_' so IDs survive being pasted into log queries.
const (
	requestAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	requestIDSize   = 16
)

// bookNamespace scopes catalog document IDs.
var bookNamespace = uuid.MustParse("8f7c0b8e-0d1a-4c0e-9a57-5b1f3e3f4a21")

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "req-V1StGXR8_Z5jdHi6B-myT").
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

// RequestID returns a short alphanumeric ID for correlating log lines.
func RequestID() string {
	id, err := gonanoid.Generate(requestAlphabet, requestIDSize)
	if err != nil {
		return "unknown"
	}
	return id
}

// BookID derives a deterministic document ID from a title and author, so
// re-ingesting the same catalog row overwrites instead of duplicating.
func BookID(title, author string) string {
	key := domain.TitleKey(title) + "\x00" + strings.ToLower(strings.TrimSpace(author))
	return uuid.NewSHA1(bookNamespace, []byte(key)).String()
}
