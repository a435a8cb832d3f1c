package storage

import (
	"errors"

	"github.com/recallhq/recall/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateHash indicates that a record with the same content hash
	// already exists. The engine treats this as a dedup signal, not a
	// failure.
	ErrDuplicateHash = errors.New("duplicate content hash")
)

// RecordFilter enumerates the supported record list predicates.
// Zero values mean "no filter" for that predicate. Using an explicit struct
// instead of a free-form map prevents silently-ignored filter keys.
type RecordFilter struct {
	// Status restricts results to records with this lifecycle status.
	Status types.RecordStatus

	// UserID restricts results to records owned by this user
	// (context.user_id).
	UserID string

	// Project restricts results to records tagged with this project
	// (context.project).
	Project string

	// ContentHash restricts results to records with this content hash.
	ContentHash string

	// IDs restricts results to the given record IDs. Nil means no
	// restriction; an empty non-nil slice matches nothing.
	IDs []string

	// Limit caps the number of results (default: 20, max: 100).
	Limit int
}

// Normalize applies defaults and caps to the filter.
func (f *RecordFilter) Normalize() {
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// RecordUpdate is a partial update applied to an existing record.
// Nil pointer fields are left unchanged.
type RecordUpdate struct {
	Content     *string
	ContentHash *string
	Importance  *int
	Status      *types.RecordStatus
	VectorID    *string
	Metadata    map[string]interface{} // Replaces the stored metadata when non-nil
	Context     map[string]interface{} // Replaces the stored context when non-nil
}

// UserCount is an owner paired with their record count.
type UserCount struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// ProjectCount is a project paired with its record count.
type ProjectCount struct {
	Project string `json:"project"`
	Count   int    `json:"count"`
}

// ConceptCount is a concept name paired with the number of records linked
// to it.
type ConceptCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
