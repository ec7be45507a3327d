package observation

import "context"

// Repository loads the observation table from its backing source
type Repository interface {
	// Load returns all rows in source order together with the source headers
	Load(ctx context.Context) (*Dataset, error)
}
