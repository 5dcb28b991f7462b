package lockbox

import "context"

// FileStore defines the key-value mapping items are persisted in.
// Implementations must be safe for concurrent use.
//
// All methods accept a context for cancellation and timeout control.
type FileStore interface {
	// Get retrieves the serialized value stored under key.
	//
	// Returns:
	//   - string: The stored value
	//   - error: ErrNotFound if key doesn't exist, or other storage errors
	Get(ctx context.Context, key string) (string, error)

	// Put stores value under key, overwriting any existing value.
	// A single Put must be atomic at key granularity.
	Put(ctx context.Context, key, value string) error

	// List returns one page of keys sharing q.Prefix in ascending order.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - q: ListQuery with prefix filter, page limit, and cursor from the previous page
	//
	// Returns:
	//   - ListResult: Keys of this page and NextCursor, empty on the last page
	//   - error: Any storage error, or ErrInvalidInput for a malformed cursor
	List(ctx context.Context, q ListQuery) (ListResult, error)
}
