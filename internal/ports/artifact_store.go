package ports

import "context"

// ArtifactStore keeps generated document bytes. Put returns the path later passed to Delete.
type ArtifactStore interface {
	Put(ctx context.Context, name string, data []byte) (path string, err error)
	Delete(ctx context.Context, path string) error
}
