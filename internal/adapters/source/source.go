// Package source loads the raw user snapshot the dashboard is computed from.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/okian/playdash/internal/domain/model"
)

// Source loads one complete user snapshot.
type Source interface {
	Load(ctx context.Context) (model.RawUserMap, error)
	Name() string
}

// decode reads a snapshot document. A JSON null (an empty database) yields an empty
// map.
func decode(r io.Reader) (model.RawUserMap, error) {
	var users model.RawUserMap
	if err := json.NewDecoder(r).Decode(&users); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if users == nil {
		users = model.RawUserMap{}
	}
	return users, nil
}
