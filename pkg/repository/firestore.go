package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/vidscribe/pkg/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	firestoreValueField   = "value"
	firestoreUpdatedField = "updated_at"
)

// FirestoreKV stores one document per key in a collection
type FirestoreKV struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreKV(ctx context.Context, projectID, databaseID, collection string) (*FirestoreKV, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID),
		)
	}

	return &FirestoreKV{client: client, collection: collection}, nil
}

func (kv *FirestoreKV) doc(key string) *firestore.DocumentRef {
	return kv.client.Collection(kv.collection).Doc(key)
}

func (kv *FirestoreKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	snap, err := kv.doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to get document", goerr.V("key", key))
	}
	return documentValue(snap)
}

func (kv *FirestoreKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	ref := kv.doc(key)

	err := kv.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var current []byte
		found := false

		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return goerr.Wrap(err, "failed to get document", goerr.V("key", key))
		default:
			current, found, err = documentValue(snap)
			if err != nil {
				return err
			}
		}

		next, err := fn(current, found)
		if err != nil || next == nil {
			return err
		}

		return tx.Set(ref, map[string]any{
			firestoreValueField:   string(next),
			firestoreUpdatedField: firestore.ServerTimestamp,
		})
	})
	if err != nil {
		opts := []goerr.Option{goerr.V("key", key)}
		switch status.Code(err) {
		case codes.InvalidArgument, codes.ResourceExhausted:
			opts = append(opts, goerr.T(model.TagStorageExhausted))
		}
		return goerr.Wrap(err, "failed to update document", opts...)
	}
	return nil
}

func (kv *FirestoreKV) Delete(ctx context.Context, key string) error {
	if _, err := kv.doc(key).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to delete document", goerr.V("key", key))
	}
	return nil
}

func (kv *FirestoreKV) Close() error {
	return kv.client.Close()
}

func documentValue(snap *firestore.DocumentSnapshot) ([]byte, bool, error) {
	if snap == nil || !snap.Exists() {
		return nil, false, nil
	}
	raw, err := snap.DataAt(firestoreValueField)
	if err != nil {
		return nil, false, goerr.Wrap(err, "document has no value", goerr.V("id", snap.Ref.ID))
	}
	value, ok := raw.(string)
	if !ok {
		return nil, false, goerr.New("document value is not a string", goerr.V("id", snap.Ref.ID))
	}
	return []byte(value), true, nil
}
