package rowdb

import "fmt"

// ErrorKind classifies why an append-shaped operation failed (distilled spec
// §4.5). There are exactly two kinds; InvalidRow only ever occurs when a
// validator was registered via WithValidator.
type ErrorKind int

const (
	// DuplicateKey means a KEY value collided with an existing row.
	DuplicateKey ErrorKind = iota
	// InvalidRow means the registered validator returned false.
	InvalidRow
)

func (k ErrorKind) String() string {
	switch k {
	case DuplicateKey:
		return "duplicate key"
	case InvalidRow:
		return "invalid row"
	default:
		return "unknown"
	}
}

// Error is returned by Append when a single row is rejected. It carries the
// offending row back to the caller (distilled spec §7: input preservation)
// and the prospective row index the row would have occupied (== Len() at
// the moment of failure).
type Error[T any] struct {
	Kind  ErrorKind
	Row   T
	Index int
}

func (e *Error[T]) Error() string {
	return fmt.Sprintf("rowdb: append rejected at row index %d: %s", e.Index, e.Kind)
}

// BulkError is returned by Extend and FromRows/FromSeq. It carries enough
// of the original input for the caller to retry without losing data
// (distilled spec §4.4's "RemainingIter" / the container passed to
// from_rows): Extend reports the offending row plus every row after it that
// was never attempted; FromRows/FromSeq reports the entire input slice
// unchanged, since none of it was committed.
type BulkError[T any] struct {
	Kind ErrorKind
	// Row is the offending row (the one that triggered Kind), for Extend and
	// FromRows/FromSeq alike; for FromRows/FromSeq it is also present in Rest.
	Row T
	// Rest is the unconsumed remainder: for Extend, every row after Row that
	// was never attempted (pass it back into Extend to resume); for
	// FromRows/FromSeq, the complete original input.
	Rest  []T
	Index int
}

func (e *BulkError[T]) Error() string {
	return fmt.Sprintf("rowdb: bulk append rejected at row index %d: %s", e.Index, e.Kind)
}
