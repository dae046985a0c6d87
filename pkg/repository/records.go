package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

// RecordsKey is the key holding the saved item list
const RecordsKey = "VIDSCRIBE_CLOUD_STORE"

// Records is the local store of saved items. The whole list is stored under
// one key, newest first.
type Records struct {
	kv  KV
	key string
	now func() time.Time
}

type RecordsOption func(*Records)

// WithRecordsKey overrides the storage key
func WithRecordsKey(key string) RecordsOption {
	return func(r *Records) {
		r.key = key
	}
}

// WithClock overrides the clock used for item dates
func WithClock(now func() time.Time) RecordsOption {
	return func(r *Records) {
		r.now = now
	}
}

func NewRecords(kv KV, opts ...RecordsOption) *Records {
	r := &Records{kv: kv, key: RecordsKey, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns all items, newest first. Missing or unreadable data is an
// empty list.
func (r *Records) List(ctx context.Context) ([]*model.SavedItem, error) {
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load saved items")
	}
	return r.decode(ctx, raw, found), nil
}

// ListByType returns items of one type, newest first
func (r *Records) ListByType(ctx context.Context, typ model.ItemType) ([]*model.SavedItem, error) {
	if err := typ.Validate(); err != nil {
		return nil, err
	}

	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*model.SavedItem, 0, len(items))
	for _, item := range items {
		if item.Type == typ {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

func (r *Records) Get(ctx context.Context, id model.ItemID) (*model.SavedItem, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, goerr.Wrap(model.ErrItemNotFound, "no saved item with the id", goerr.V("id", id))
}

// Save assigns a new id and prepends the item. Nothing is persisted when
// the write fails.
func (r *Records) Save(ctx context.Context, input *model.NewItem) (*model.SavedItem, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	item := &model.SavedItem{
		ID:      model.NewItemID(),
		Type:    input.Type,
		Content: input.Content,
		Meta:    input.Meta,
	}
	if item.Meta.Date == "" {
		item.Meta.Date = model.Timestamp(r.now())
	}

	err := r.kv.Update(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		items := r.decode(ctx, current, found)
		return r.encode(append([]*model.SavedItem{item}, items...))
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save item", goerr.V("type", item.Type), goerr.V("size", len(item.Content)))
	}

	logging.From(ctx).Debug("saved item", "id", item.ID, "type", item.Type)
	return item, nil
}

// Delete removes the item with id. An unknown id is not an error.
func (r *Records) Delete(ctx context.Context, id model.ItemID) error {
	err := r.kv.Update(ctx, r.key, func(current []byte, found bool) ([]byte, error) {
		items := r.decode(ctx, current, found)

		kept := make([]*model.SavedItem, 0, len(items))
		for _, item := range items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(items) {
			return nil, nil
		}
		return r.encode(kept)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to delete item", goerr.V("id", id))
	}
	return nil
}

func (r *Records) decode(ctx context.Context, raw []byte, found bool) []*model.SavedItem {
	if !found || len(raw) == 0 {
		return []*model.SavedItem{}
	}

	var items []*model.SavedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		logging.From(ctx).Warn("saved items are corrupted, treating as empty", "key", r.key, "error", err)
		return []*model.SavedItem{}
	}

	valid := items[:0]
	for _, item := range items {
		if item != nil {
			valid = append(valid, item)
		}
	}
	return valid
}

func (r *Records) encode(items []*model.SavedItem) ([]byte, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal saved items")
	}
	return raw, nil
}
