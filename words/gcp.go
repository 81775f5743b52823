package words

import (
	"context"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPStore implements Store on a Google Cloud Platform Datastore kind
// keyed by the word itself.
type GCPStore struct {
	ds   *datastore.Client
	kind string
}

// NewGCPStore constructs a new *GCPStore.
func NewGCPStore(ds *datastore.Client) *GCPStore {
	return &GCPStore{
		ds:   ds,
		kind: "Word",
	}
}

type wordEntity struct {
	Name string `datastore:"name"`
}

// Put inserts the word with an insert mutation, which the datastore
// rejects atomically when the key already exists.
func (s *GCPStore) Put(ctx context.Context, name string) error {
	_, err := s.ds.Mutate(ctx, datastore.NewInsert(s.key(name), &wordEntity{Name: name}))
	if status.Code(err) == codes.AlreadyExists {
		return ErrExists
	}
	return err
}

// Delete removes the word inside a transaction so the present-check and
// the delete commit together.
func (s *GCPStore) Delete(ctx context.Context, name string) error {
	_, err := s.ds.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var w wordEntity
		if err := tx.Get(s.key(name), &w); err == datastore.ErrNoSuchEntity {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return tx.Delete(s.key(name))
	})
	return err
}

func (s *GCPStore) List(ctx context.Context) ([]string, error) {
	it := s.ds.Run(ctx, datastore.NewQuery(s.kind))

	var names []string
	for {
		var w wordEntity
		_, err := it.Next(&w)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, w.Name)
	}
	return names, nil
}

func (s *GCPStore) key(name string) *datastore.Key {
	return datastore.NameKey(s.kind, name, nil)
}
