package books

import "context"

// Service defines the catalog operations backed by the storage
// collaborator. The caller's access token travels on the context.
type Service interface {
	List(ctx context.Context, q Query) (*ListResponse, error)
	Get(ctx context.Context, id string) (*Book, error)
	Create(ctx context.Context, in CreateBookInput) (*Book, error)
	Update(ctx context.Context, id string, in UpdateBookInput) (*Book, error)
	Delete(ctx context.Context, id string) (*DeleteResponse, error)
}
