package repository

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
)

const (
	fileValueExt   = ".json"
	fileLockExt    = ".lock"
	lockRetryDelay = 20 * time.Millisecond
)

// FileKV stores one file per key under a directory
type FileKV struct {
	dir   string
	quota int64

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type FileOption func(*FileKV)

// WithQuota limits the total size of all values. A write that would exceed
// it fails with storage exhaustion.
func WithQuota(bytes int64) FileOption {
	return func(kv *FileKV) {
		kv.quota = bytes
	}
}

func NewFileKV(dir string, opts ...FileOption) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, goerr.Wrap(err, "failed to create store directory", goerr.V("dir", dir))
	}

	kv := &FileKV{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(kv)
	}
	return kv, nil
}

func (kv *FileKV) path(key string) string {
	return filepath.Join(kv.dir, url.PathEscape(key)+fileValueExt)
}

func (kv *FileKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(kv.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to read value", goerr.V("key", key))
	}
	return data, true, nil
}

func (kv *FileKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	unlock, err := kv.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	current, found, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}

	next, err := fn(current, found)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	if err := kv.checkQuota(key, int64(len(next))); err != nil {
		return err
	}

	return kv.write(key, next)
}

func (kv *FileKV) Delete(ctx context.Context, key string) error {
	unlock, err := kv.lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(kv.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return goerr.Wrap(err, "failed to delete value", goerr.V("key", key))
	}
	return nil
}

func (kv *FileKV) Close() error {
	return nil
}

// lock takes the in-process mutex of key and then the file lock shared with
// other processes
func (kv *FileKV) lock(ctx context.Context, key string) (func(), error) {
	kv.mu.Lock()
	m, ok := kv.locks[key]
	if !ok {
		m = &sync.Mutex{}
		kv.locks[key] = m
	}
	kv.mu.Unlock()

	m.Lock()

	fl := flock.New(filepath.Join(kv.dir, url.PathEscape(key)+fileLockExt))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		m.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return nil, goerr.Wrap(err, "failed to lock key", goerr.V("key", key))
	}

	return func() {
		_ = fl.Unlock()
		m.Unlock()
	}, nil
}

func (kv *FileKV) checkQuota(key string, size int64) error {
	if kv.quota <= 0 {
		return nil
	}

	entries, err := os.ReadDir(kv.dir)
	if err != nil {
		return goerr.Wrap(err, "failed to read store directory", goerr.V("dir", kv.dir))
	}

	total := size
	self := filepath.Base(kv.path(key))
	for _, entry := range entries {
		name := entry.Name()
		if name == self || !strings.HasSuffix(name, fileValueExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}

	if total > kv.quota {
		return goerr.New("storage quota exceeded",
			goerr.T(model.TagStorageExhausted),
			goerr.V("key", key),
			goerr.V("required", total),
			goerr.V("quota", kv.quota),
		)
	}
	return nil
}

// write replaces the value through a temp file so that readers never see a
// partially written value
func (kv *FileKV) write(key string, data []byte) error {
	tmp, err := os.CreateTemp(kv.dir, ".tmp-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("key", key))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return writeError(err, key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return writeError(err, key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return writeError(err, key)
	}

	if err := os.Rename(tmpName, kv.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to replace value", goerr.V("key", key))
	}
	return nil
}

func writeError(err error, key string) error {
	opts := []goerr.Option{goerr.V("key", key)}
	if isNoSpace(err) {
		opts = append(opts, goerr.T(model.TagStorageExhausted))
	}
	return goerr.Wrap(err, "failed to write value", opts...)
}
