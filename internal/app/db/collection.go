/*
Package db persists StudyHive records as JSON documents.

Every entity type lives in its own collection: one JSON array file per entity under the
data directory, or one JSONB table per entity in PostgreSQL. Both backends implement the
same Collection interface, and both make Update an atomic read-modify-write of one record.
*/
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record matches the requested id or predicate.
	ErrNotFound = errors.New("db: record not found")

	// ErrDuplicate is returned when an insert or update collides with an existing
	// id or unique key.
	ErrDuplicate = errors.New("db: duplicate record")

	errIDChanged = errors.New("db: mutate must not change the record id")
)

// Document is a record stored in a collection.
type Document interface {
	GetID() string
}

// Where selects the documents of a bulk UpdateWhere or DeleteWhere.
//
// Field and Value narrow the candidates to documents whose top-level JSON string
// field equals Value. PostgreSQL evaluates that equality in SQL, so only matching
// rows are read and locked. Match, when set, refines the candidates in process.
// An empty Field scans every document.
type Where[T Document] struct {
	Field string
	Value string
	Match func(T) bool
}

// FieldEquals returns a Where on field == value, refined by match.
func FieldEquals[T Document](field, value string, match func(T) bool) Where[T] {
	return Where[T]{Field: field, Value: value, Match: match}
}

func (w Where[T]) matches(doc T) bool {
	return w.Match == nil || w.Match(doc)
}

// fieldMatches evaluates the Field equality in process.
func (w Where[T]) fieldMatches(doc T) (bool, error) {
	if w.Field == "" {
		return true, nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode document: %w", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return false, fmt.Errorf("failed to decode document: %w", err)
	}
	var value string
	if err := json.Unmarshal(fields[w.Field], &value); err != nil {
		return false, nil
	}
	return value == w.Value, nil
}

// Collection stores documents of one entity type.
//
// The mutate callbacks of Update and UpdateWhere run while the record is locked.
// Returning an error from mutate aborts the write and is passed back unchanged.
type Collection[T Document] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Find(ctx context.Context, match func(T) bool) (T, error)
	Filter(ctx context.Context, match func(T) bool) ([]T, error)
	Insert(ctx context.Context, doc T) error
	Update(ctx context.Context, id string, mutate func(*T) error) (T, error)
	UpdateWhere(ctx context.Context, where Where[T], mutate func(*T) error) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteWhere(ctx context.Context, where Where[T]) (int, error)
}

// Collection names, shared by both backends. File names are name + ".json";
// table names replace dashes with underscores.
const (
	UsersCollection         = "users"
	StudyJamsCollection     = "study-jams"
	ChatsCollection         = "chats"
	MessagesCollection      = "messages"
	NotificationsCollection = "notifications"
	ReviewsCollection       = "reviews"
)

func filterDocs[T Document](docs []T, match func(T) bool) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		if match(d) {
			out = append(out, d)
		}
	}
	return out
}
