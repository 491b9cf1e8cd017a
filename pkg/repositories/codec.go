package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peerly/peerly/internal/types"
	"github.com/peerly/peerly/pkg/storage"
)

// LoadList reads a JSON array stored under key. A missing or empty value
// yields an empty list with found=false.
func LoadList[T any](ctx context.Context, st storage.Storage, key string) ([]T, bool, error) {
	raw, err := st.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return []T{}, false, nil
	}
	if err != nil {
		return nil, false, types.WrapError(types.ErrStorageError, fmt.Sprintf("failed to read %s", key), err)
	}
	if len(raw) == 0 {
		return []T{}, false, nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, true, types.WrapError(types.ErrCorruptData, fmt.Sprintf("malformed %s", key), err)
	}
	if items == nil {
		items = []T{}
	}
	return items, true, nil
}

// SaveList writes items as a JSON array under key
func SaveList[T any](ctx context.Context, st storage.Storage, key string, items []T) error {
	if items == nil {
		items = []T{}
	}

	raw, err := json.Marshal(items)
	if err != nil {
		return types.WrapError(types.ErrInternalError, fmt.Sprintf("failed to encode %s", key), err)
	}

	if err := st.Set(ctx, key, raw); err != nil {
		return types.WrapError(types.ErrStorageError, fmt.Sprintf("failed to write %s", key), err)
	}
	return nil
}
