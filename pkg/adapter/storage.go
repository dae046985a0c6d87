package adapter

import (
	"context"
	"errors"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ObjectStorage is the interface for the remote item archive
type ObjectStorage interface {
	// Put stores body under key
	Put(ctx context.Context, key, contentType string, body []byte) error
	// Get opens the object. A missing object is tagged not_found.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns at most limit objects under prefix. limit <= 0 means no limit.
	List(ctx context.Context, prefix string, limit int) ([]*Object, error)
	// Delete removes the object. A missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// Object is metadata of a stored object
type Object struct {
	Key     string
	Size    int64
	Updated time.Time
}

// StorageConfig configures the Cloud Storage client
type StorageConfig struct {
	Bucket          string
	Project         string
	CredentialsFile string
}

// storageClient implements ObjectStorage using Cloud Storage
type storageClient struct {
	bucketName string
	client     *storage.Client
}

// NewStorage creates a new Cloud Storage client
func NewStorage(ctx context.Context, cfg StorageConfig) (ObjectStorage, error) {
	if cfg.Bucket == "" {
		return nil, goerr.New("bucket name is required", goerr.T(model.TagValidation))
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Project != "" {
		opts = append(opts, option.WithQuotaProject(cfg.Project))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.T(model.TagCredential))
	}

	return &storageClient{
		bucketName: cfg.Bucket,
		client:     client,
	}, nil
}

func (s *storageClient) Put(ctx context.Context, key, contentType string, body []byte) error {
	w := s.client.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("key", key), goerr.T(model.TagUpstream))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to commit object", goerr.V("key", key), goerr.T(model.TagUpstream))
	}
	return nil
}

func (s *storageClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	reader, err := s.client.Bucket(s.bucketName).Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, goerr.Wrap(err, "object not found", goerr.V("key", key), goerr.T(model.TagNotFound))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read from storage", goerr.V("key", key), goerr.T(model.TagUpstream))
	}

	return reader, nil
}

func (s *storageClient) List(ctx context.Context, prefix string, limit int) ([]*Object, error) {
	it := s.client.Bucket(s.bucketName).Objects(ctx, &storage.Query{Prefix: prefix})

	var objects []*Object
	for limit <= 0 || len(objects) < limit {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list objects", goerr.V("prefix", prefix), goerr.T(model.TagUpstream))
		}
		objects = append(objects, &Object{
			Key:     attrs.Name,
			Size:    attrs.Size,
			Updated: attrs.Updated,
		})
	}

	return objects, nil
}

func (s *storageClient) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucketName).Object(key).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return goerr.Wrap(err, "failed to delete object", goerr.V("key", key), goerr.T(model.TagUpstream))
}
