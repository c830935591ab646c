package meta

import "errors"

// ErrNotFound is returned by GetCF when the key has no value in the column
// family. It is an expected outcome, not a failure.
var ErrNotFound = errors.New("meta: not found")

type Iterator interface {
	// Next returns false when the iterator is exhausted or failed.
	Next() bool

	Key() []byte
	Value() []byte

	Error() error

	// Release must be called once the iterator is no longer used.
	Release()
}

// Store is the transactional metadata store the control plane keeps its
// state in. Implementations must apply a committed Batch atomically.
type Store interface {
	GetCF(cf string, key []byte) ([]byte, error)
	PutCF(cf string, key, value []byte) error
	DeleteCF(cf string, key []byte) error
	ScanCF(cf string, startKey, limitKey []byte) Iterator
	NewBatch() Batch
	Close() error
}

// Batch buffers writes across column families until Commit.
type Batch interface {
	Put(cf string, key, value []byte)
	Delete(cf string, key []byte)

	Commit() error
}
