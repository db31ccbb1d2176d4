// Package store defines the document store the game services run on: a
// path-keyed map of JSON-serializable documents with snapshot subscriptions
// and a compare-and-swap transaction primitive. The in-memory
// implementation here is the only backend; a replicated one would slot in
// behind the same interface.
package store

import "errors"

// ErrAborted is returned by Transact when the transaction function asks to
// stop without writing.
var ErrAborted = errors.New("store: transaction aborted")

// Snapshot is one observed value of a document. Data is nil when the
// document does not exist.
type Snapshot struct {
	Path string
	Data []byte
}

// Exists reports whether the document was present at observation time.
func (s Snapshot) Exists() bool {
	return s.Data != nil
}

// TxFunc transforms the current value of a document. current is nil when
// the document does not exist. Returning nil next deletes the document;
// returning an error abandons the transaction. The function may run more
// than once, so it must not carry side effects.
type TxFunc func(current []byte) (next []byte, err error)

// Store is the seam between the game engines and their persistence.
type Store interface {
	// Subscribe delivers the current snapshot immediately and then one
	// snapshot per subsequent write or delete. The returned cancel func
	// releases the subscription and closes the channel.
	Subscribe(path string) (<-chan Snapshot, func())

	// ReadOnce returns the current snapshot without subscribing.
	ReadOnce(path string) Snapshot

	// Write replaces the document unconditionally. A nil value deletes it.
	Write(path string, value []byte)

	// Transact applies fn atomically with compare-and-swap retry: if the
	// document changed between read and commit, fn runs again on the fresh
	// value. It returns the committed snapshot.
	Transact(path string, fn TxFunc) (Snapshot, error)
}
