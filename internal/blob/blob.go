// Package blob describes the object store that hosts school images. The
// relational store only keeps the URL returned here; the two are not
// linked transactionally.
package blob

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ResourceImage asks the store to accept image content only.
const ResourceImage = "image"

// ErrNotImage is returned when ResourceImage was requested for bytes that
// do not sniff as an image.
var ErrNotImage = errors.New("blob: content is not an image")

// Options controls where and how an object is stored.
type Options struct {
	Folder       string
	PublicID     string
	ResourceType string
}

// Result describes a stored object.
type Result struct {
	// SecureURL is the durable public URL of the object.
	SecureURL string
	// Key identifies the object for Delete.
	Key string
}

// Uploader stores raw bytes and hands back a durable URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, opts Options) (Result, error)
	Delete(ctx context.Context, key string) error
}

// PublicID joins parts with '_' and replaces every character outside
// [a-zA-Z0-9] by '_', giving a key that is safe in any URL path segment.
func PublicID(parts ...string) string {
	joined := strings.Join(parts, "_")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, joined)
}

// UniquePublicID is PublicID(parts...) followed by a random uuid, so every
// upload gets its own object even when the parts repeat. A Delete of one
// upload can never remove an object that another record points to.
func UniquePublicID(parts ...string) string {
	return PublicID(append(parts, uuid.NewString())...)
}
