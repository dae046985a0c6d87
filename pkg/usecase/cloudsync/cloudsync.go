package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/adapter"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"github.com/m-mizutani/vidscribe/pkg/utils/logging"
)

const (
	contentType = "application/json"
	objectExt   = ".json"

	// ListLimit is how many remote items List returns
	ListLimit = 20
)

// LocalItems is the source of Push
type LocalItems interface {
	List(ctx context.Context) ([]*model.SavedItem, error)
}

// UseCase mirrors saved items to object storage. It never reconciles with
// the local store on its own.
type UseCase struct {
	storage adapter.ObjectStorage
	prefix  string
}

type Option func(*UseCase)

// WithPrefix overrides the key prefix
func WithPrefix(prefix string) Option {
	return func(uc *UseCase) {
		if p := strings.Trim(prefix, "/"); p != "" {
			uc.prefix = p
		}
	}
}

func New(storage adapter.ObjectStorage, opts ...Option) *UseCase {
	uc := &UseCase{
		storage: storage,
		prefix:  model.DefaultSyncPrefix,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// Key returns the object key of an item
func (uc *UseCase) Key(typ model.ItemType, id model.ItemID) string {
	return path.Join(uc.prefix, string(typ), string(id)+objectExt)
}

// Test checks that the bucket is reachable by listing at most one object
func (uc *UseCase) Test(ctx context.Context) error {
	if _, err := uc.storage.List(ctx, uc.prefix+"/", 1); err != nil {
		return goerr.Wrap(err, "cloud storage connection test failed", goerr.V("prefix", uc.prefix))
	}
	return nil
}

func (uc *UseCase) Upload(ctx context.Context, item *model.SavedItem) error {
	if item == nil {
		return goerr.New("item is nil", goerr.T(model.TagValidation))
	}
	if err := item.Type.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal item", goerr.V("id", item.ID))
	}

	key := uc.Key(item.Type, item.ID)
	if err := uc.storage.Put(ctx, key, contentType, raw); err != nil {
		return goerr.Wrap(err, "failed to upload item", goerr.V("id", item.ID))
	}

	logging.From(ctx).Debug("uploaded item", "key", key, "size", len(raw))
	return nil
}

// List returns the most recently updated remote items, newest first.
// Objects that are not items are skipped.
func (uc *UseCase) List(ctx context.Context) ([]*model.SavedItem, error) {
	objects, err := uc.storage.List(ctx, uc.prefix+"/", 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list remote items", goerr.V("prefix", uc.prefix))
	}

	var candidates []*adapter.Object
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, objectExt) {
			candidates = append(candidates, obj)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Updated.After(candidates[j].Updated)
	})
	if len(candidates) > ListLimit {
		candidates = candidates[:ListLimit]
	}

	logger := logging.From(ctx)
	items := make([]*model.SavedItem, 0, len(candidates))
	for _, obj := range candidates {
		item, err := uc.fetch(ctx, obj.Key)
		if err != nil {
			logger.Warn("skipping unreadable remote item", "key", obj.Key, "error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (uc *UseCase) fetch(ctx context.Context, key string) (*model.SavedItem, error) {
	r, err := uc.storage.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := r.Close(); err != nil {
			logging.From(ctx).Warn("failed to close object reader", "key", key, "error", err)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, goerr.Wrap(err, "failed to read object", goerr.V("key", key))
	}

	var item model.SavedItem
	if err := json.Unmarshal(buf.Bytes(), &item); err != nil {
		return nil, goerr.Wrap(err, "failed to decode item", goerr.V("key", key), goerr.T(model.TagMalformed))
	}
	if item.ID == "" || item.Type.Validate() != nil {
		return nil, goerr.New("object is not a saved item", goerr.V("key", key), goerr.T(model.TagMalformed))
	}
	return &item, nil
}

// Delete removes a remote item. A missing object is not an error.
func (uc *UseCase) Delete(ctx context.Context, typ model.ItemType, id model.ItemID) error {
	if err := typ.Validate(); err != nil {
		return err
	}
	if err := uc.storage.Delete(ctx, uc.Key(typ, id)); err != nil {
		return goerr.Wrap(err, "failed to delete remote item", goerr.V("id", id))
	}
	return nil
}

// PushResult counts what Push did
type PushResult struct {
	Uploaded int
	Failed   int
}

// Push uploads every local item. A failed upload is logged and counted, and
// the first such error is returned after all items were tried.
func (uc *UseCase) Push(ctx context.Context, local LocalItems) (*PushResult, error) {
	items, err := local.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		result   PushResult
		firstErr error
	)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return &result, goerr.Wrap(err, "push cancelled")
		}
		if err := uc.Upload(ctx, item); err != nil {
			logging.From(ctx).Warn("failed to push item", "id", item.ID, "error", err)
			result.Failed++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		result.Uploaded++
	}

	return &result, firstErr
}
