package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileCollection keeps a collection as a single JSON array file.
//
// All access goes through one lock per collection; writes replace the file
// atomically via a temp file and rename.
type FileCollection[T Document] struct {
	path      string
	uniqueKey func(T) string

	mu sync.RWMutex
}

// NewFileCollection returns a collection stored at path. When uniqueKey is
// non-nil, two records with the same non-empty key are rejected with ErrDuplicate.
func NewFileCollection[T Document](path string, uniqueKey func(T) string) *FileCollection[T] {
	return &FileCollection[T]{path: path, uniqueKey: uniqueKey}
}

func (c *FileCollection[T]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", c.path, err)
	}
	if len(data) == 0 {
		return []T{}, nil
	}

	var docs []T
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", c.path, err)
	}
	return docs, nil
}

func (c *FileCollection[T]) save(docs []T) error {
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", c.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", c.path, err)
	}
	return nil
}

func (c *FileCollection[T]) checkUnique(docs []T, doc T, skip int) error {
	if c.uniqueKey == nil {
		return nil
	}
	key := c.uniqueKey(doc)
	if key == "" {
		return nil
	}
	for i, d := range docs {
		if i != skip && c.uniqueKey(d) == key {
			return ErrDuplicate
		}
	}
	return nil
}

func (c *FileCollection[T]) List(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load()
}

func (c *FileCollection[T]) Get(ctx context.Context, id string) (T, error) {
	return c.Find(ctx, func(d T) bool { return d.GetID() == id })
}

func (c *FileCollection[T]) Find(ctx context.Context, match func(T) bool) (T, error) {
	var zero T

	c.mu.RLock()
	defer c.mu.RUnlock()

	docs, err := c.load()
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

func (c *FileCollection[T]) Filter(ctx context.Context, match func(T) bool) ([]T, error) {
	docs, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return filterDocs(docs, match), nil
}

func (c *FileCollection[T]) Insert(ctx context.Context, doc T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.load()
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.GetID() == doc.GetID() {
			return ErrDuplicate
		}
	}
	if err := c.checkUnique(docs, doc, -1); err != nil {
		return err
	}

	return c.save(append(docs, doc))
}

func (c *FileCollection[T]) Update(ctx context.Context, id string, mutate func(*T) error) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.load()
	if err != nil {
		return zero, err
	}

	for i := range docs {
		if docs[i].GetID() != id {
			continue
		}
		doc := docs[i]
		if err := mutate(&doc); err != nil {
			return zero, err
		}
		if doc.GetID() != id {
			return zero, errIDChanged
		}
		if err := c.checkUnique(docs, doc, i); err != nil {
			return zero, err
		}
		docs[i] = doc
		if err := c.save(docs); err != nil {
			return zero, err
		}
		return doc, nil
	}
	return zero, ErrNotFound
}

func (c *FileCollection[T]) UpdateWhere(ctx context.Context, where Where[T], mutate func(*T) error) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.load()
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range docs {
		ok, err := c.selects(where, docs[i])
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		doc := docs[i]
		if err := mutate(&doc); err != nil {
			return 0, err
		}
		if doc.GetID() != docs[i].GetID() {
			return 0, errIDChanged
		}
		docs[i] = doc
		updated++
	}

	if updated == 0 {
		return 0, nil
	}
	if err := c.save(docs); err != nil {
		return 0, err
	}
	return updated, nil
}

func (c *FileCollection[T]) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.load()
	if err != nil {
		return err
	}
	for i, d := range docs {
		if d.GetID() == id {
			return c.save(append(docs[:i], docs[i+1:]...))
		}
	}
	return ErrNotFound
}

func (c *FileCollection[T]) DeleteWhere(ctx context.Context, where Where[T]) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	docs, err := c.load()
	if err != nil {
		return 0, err
	}

	kept := docs[:0]
	for _, d := range docs {
		ok, err := c.selects(where, d)
		if err != nil {
			return 0, err
		}
		if !ok {
			kept = append(kept, d)
		}
	}

	removed := len(docs) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := c.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

func (c *FileCollection[T]) selects(where Where[T], doc T) (bool, error) {
	ok, err := where.fieldMatches(doc)
	if err != nil || !ok {
		return false, err
	}
	return where.matches(doc), nil
}
