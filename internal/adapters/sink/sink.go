// Package sink persists the encoded dashboard document.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/okian/playdash/internal/domain/model"
)

// Meta describes the run that produced a document.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
}

// Sink stores one encoded document.
type Sink interface {
	Write(ctx context.Context, doc []byte, meta Meta) error
	Name() string
}

// Encode renders the document the way the dashboard expects it: two-space indented
// UTF-8 JSON without HTML escaping.
func Encode(doc model.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
