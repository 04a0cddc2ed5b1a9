package notify

import (
	"context"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

// ValidateObjectIDs filters the entry's referenced ids down to those that
// still exist, preserving input order and dropping duplicates. An empty
// result means the entry can never become valid and must be deleted.
func (e *Engine) ValidateObjectIDs(ctx context.Context, objectType string, ids []string) ([]string, error) {
	tc, ok := registry[objectType]
	if !ok {
		return nil, ErrUnknownObjectType
	}
	ids = model.UnionIDs(ids)
	if tc.validatorTable == "" {
		return ids, nil
	}
	existing, err := e.store.ExistingIDs(ctx, tc.validatorTable, ids)
	if err != nil {
		return nil, err
	}
	alive := make(map[string]struct{}, len(existing))
	for _, id := range existing {
		alive[id] = struct{}{}
	}
	var out []string
	for _, id := range ids {
		if _, ok := alive[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}
