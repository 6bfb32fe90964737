package searchapi

import "context"

const (
	// TableName is the single physical table shared by every logical index
	TableName = "search_index"
)

type Adapter interface {
	// Setup creates the physical schema. It is not idempotent and fails with
	// ErrSchemaAlreadyExists when the table is present.
	Setup(ctx context.Context) error
	// GetIndex binds an index to the given name. The name is used verbatim as the discriminator.
	GetIndex(name string) Index
}

type Index interface {
	Name() string

	// Query pages through documents whose content contains the search string.
	Query(ctx context.Context, q Query) (*QueryResult, error)
	// FindByIdentifier responds nil without error when no document matches.
	// When the identifier was indexed more than once, which row is returned is unspecified.
	FindByIdentifier(ctx context.Context, identifier string) (*Document, error)
	// Index appends one row per document. Existing rows with the same identifier
	// are kept, so indexing twice yields duplicates.
	Index(ctx context.Context, documents ...*Document) (OperationResult, error)
	// Delete removes every row of this index whose identifier is in the list.
	Delete(ctx context.Context, identifiers ...string) (OperationResult, error)
	// Purge removes every row of this index.
	Purge(ctx context.Context) (OperationResult, error)
}
