package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sirupsen/logrus"
)

// DefaultKey is the slot the comment collection is written under.
const DefaultKey = "comments"

var (
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrWriteFailed    = errors.New("storage write failed")
)

// Store persists the whole comment collection in a single key-value slot.
// Every write replaces the full collection.
type Store interface {
	// LoadAll returns the persisted collection in stored order. A missing or
	// malformed slot yields an empty collection and no error; errors are
	// reserved for backend failures.
	LoadAll(ctx context.Context) ([]*Comment, error)

	// SaveAll replaces the slot with the given collection.
	SaveAll(ctx context.Context, comments []*Comment) error

	// ClearAll removes the slot.
	ClearAll(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RawReader is implemented by backends that can hand back the slot bytes
// without decoding them.
type RawReader interface {
	Raw(ctx context.Context) ([]byte, error)
}

// Encode serializes the collection the way every backend stores it.
func Encode(comments []*Comment) ([]byte, error) {
	if comments == nil {
		comments = []*Comment{}
	}
	return json.Marshal(comments)
}

// Decode parses a stored slot. Anything that isn't a valid collection is
// treated as an empty one.
func Decode(data []byte) ([]*Comment, bool) {
	if len(data) == 0 {
		return []*Comment{}, true
	}

	var comments []*Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return []*Comment{}, false
	}

	out := make([]*Comment, 0, len(comments))
	for _, c := range comments {
		if c != nil {
			out = append(out, c)
		}
	}
	return out, true
}

// decodeSlot decodes a slot read by a backend and logs malformed data
// instead of reporting it.
func decodeSlot(backend, key string, data []byte) []*Comment {
	comments, ok := Decode(data)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"component": "store",
			"backend":   backend,
			"key":       key,
			"bytes":     len(data),
		}).Debug("discarding malformed comment slot")
	}
	return comments
}
