package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCollection keeps a collection as a table of (id, doc jsonb, created_at) rows.
//
// Predicates are Go functions, so Find and Filter scan the table and match in
// process. UpdateWhere and DeleteWhere push Where.Field into SQL and only lock
// the rows it selects. Update locks the row with SELECT ... FOR UPDATE for the
// duration of mutate.
type PGCollection[T Document] struct {
	pool  *pgxpool.Pool
	table string
}

// NewPGCollection returns a collection backed by table.
func NewPGCollection[T Document](pool *pgxpool.Pool, table string) *PGCollection[T] {
	return &PGCollection[T]{
		pool:  pool,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

func decodeDoc[T Document](raw []byte) (T, error) {
	var doc T
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("failed to decode document: %w", err)
	}
	return doc, nil
}

func encodeDoc[T Document](doc T) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}

func mapWriteErr(err error) error {
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (c *PGCollection[T]) List(ctx context.Context) ([]T, error) {
	rows, err := c.pool.Query(ctx, "SELECT doc FROM "+c.table+" ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	defer rows.Close()

	docs := []T{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", c.table, err)
		}
		doc, err := decodeDoc[T](raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (c *PGCollection[T]) Get(ctx context.Context, id string) (T, error) {
	var raw []byte
	err := c.pool.QueryRow(ctx, "SELECT doc FROM "+c.table+" WHERE id = $1", id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		var zero T
		return zero, ErrNotFound
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to get %s/%s: %w", c.table, id, err)
	}
	return decodeDoc[T](raw)
}

func (c *PGCollection[T]) Find(ctx context.Context, match func(T) bool) (T, error) {
	var zero T
	docs, err := c.List(ctx)
	if err != nil {
		return zero, err
	}
	for _, d := range docs {
		if match(d) {
			return d, nil
		}
	}
	return zero, ErrNotFound
}

func (c *PGCollection[T]) Filter(ctx context.Context, match func(T) bool) ([]T, error) {
	docs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterDocs(docs, match), nil
}

func (c *PGCollection[T]) Insert(ctx context.Context, doc T) error {
	data, err := encodeDoc(doc)
	if err != nil {
		return err
	}
	_, err = c.pool.Exec(ctx,
		"INSERT INTO "+c.table+" (id, doc) VALUES ($1, $2::jsonb)", doc.GetID(), data)
	if err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (c *PGCollection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (T, error) {
	var updated T

	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		var raw []byte
		err := tx.QueryRow(ctx, "SELECT doc FROM "+c.table+" WHERE id = $1 FOR UPDATE", id).Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock %s/%s: %w", c.table, id, err)
		}

		doc, err := decodeDoc[T](raw)
		if err != nil {
			return err
		}
		if err := mutate(&doc); err != nil {
			return err
		}
		if doc.GetID() != id {
			return errIDChanged
		}

		data, err := encodeDoc(doc)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE "+c.table+" SET doc = $2::jsonb WHERE id = $1", id, data); err != nil {
			return mapWriteErr(err)
		}

		updated = doc
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return updated, nil
}

// selectWhere builds the locking candidate query for where.
func (c *PGCollection[T]) selectWhere(where Where[T]) (string, []any) {
	if where.Field == "" {
		return "SELECT id, doc FROM " + c.table + " ORDER BY created_at, id FOR UPDATE", nil
	}
	return "SELECT id, doc FROM " + c.table + " WHERE doc->>$1 = $2 ORDER BY created_at, id FOR UPDATE",
		[]any{where.Field, where.Value}
}

func (c *PGCollection[T]) UpdateWhere(ctx context.Context, where Where[T], mutate func(*T) error) (int, error) {
	count := 0

	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		query, args := c.selectWhere(where)
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", c.table, err)
		}

		type pending struct {
			id  string
			doc T
		}
		var changes []pending

		for rows.Next() {
			var id string
			var raw []byte
			if err := rows.Scan(&id, &raw); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s: %w", c.table, err)
			}
			doc, err := decodeDoc[T](raw)
			if err != nil {
				rows.Close()
				return err
			}
			if !where.matches(doc) {
				continue
			}
			if err := mutate(&doc); err != nil {
				rows.Close()
				return err
			}
			if doc.GetID() != id {
				rows.Close()
				return errIDChanged
			}
			changes = append(changes, pending{id: id, doc: doc})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, ch := range changes {
			data, err := encodeDoc(ch.doc)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "UPDATE "+c.table+" SET doc = $2::jsonb WHERE id = $1", ch.id, data); err != nil {
				return mapWriteErr(err)
			}
		}
		count = len(changes)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (c *PGCollection[T]) Delete(ctx context.Context, id string) error {
	tag, err := c.pool.Exec(ctx, "DELETE FROM "+c.table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", c.table, id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *PGCollection[T]) DeleteWhere(ctx context.Context, where Where[T]) (int, error) {
	count := 0

	err := pgx.BeginFunc(ctx, c.pool, func(tx pgx.Tx) error {
		query, args := c.selectWhere(where)
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", c.table, err)
		}

		var ids []string
		for rows.Next() {
			var id string
			var raw []byte
			if err := rows.Scan(&id, &raw); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan %s: %w", c.table, err)
			}
			doc, err := decodeDoc[T](raw)
			if err != nil {
				rows.Close()
				return err
			}
			if where.matches(doc) {
				ids = append(ids, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		tag, err := tx.Exec(ctx, "DELETE FROM "+c.table+" WHERE id = ANY($1)", ids)
		if err != nil {
			return fmt.Errorf("failed to delete from %s: %w", c.table, err)
		}
		count = int(tag.RowsAffected())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
