package store

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/predicate"
	"github.com/roach88/exprc/internal/querysql"
	"github.com/roach88/exprc/internal/value"
)

// ErrIndexNotFound is returned when an index does not exist.
var ErrIndexNotFound = errors.New("index not found")

// fetchChunk bounds the number of ids bound into one IN list.
const fetchChunk = 500

// Document is a stored document.
type Document struct {
	ID     int64
	Values map[string]value.Value
}

// Index is a handle on one index in the store.
type Index struct {
	store  *Store
	schema predicate.Schema
	sql    *querysql.SQLCompiler
}

// CreateIndex creates an index for schema. Creating an index that already
// exists with identical fields is a no-op; different fields are an error.
func (s *Store) CreateIndex(ctx context.Context, schema predicate.Schema) (*Index, error) {
	fields, fingerprint, err := encodeFields(schema)
	if err != nil {
		return nil, err
	}

	var existing string
	err = s.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM indexes WHERE name = ?", schema.Name).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO indexes (name, fields, fingerprint) VALUES (?, ?, ?)",
			schema.Name, fields, fingerprint); err != nil {
			return nil, fmt.Errorf("create index %s: %w", schema.Name, err)
		}
		s.logger.Debug("Created index",
			zap.String("index", schema.Name),
			zap.Strings("fields", schema.FieldNames()))
	case err != nil:
		return nil, fmt.Errorf("look up index %s: %w", schema.Name, err)
	case existing != fingerprint:
		return nil, fmt.Errorf("index %s already exists with different fields", schema.Name)
	}
	return s.newIndex(schema), nil
}

// OpenIndex returns a handle on an existing index.
func (s *Store) OpenIndex(ctx context.Context, name string) (*Index, error) {
	var fields string
	err := s.db.QueryRowContext(ctx, "SELECT fields FROM indexes WHERE name = ?", name).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", name, err)
	}

	var raw map[string]string
	if err := json.Unmarshal([]byte(fields), &raw); err != nil {
		return nil, fmt.Errorf("decode fields of index %s: %w", name, err)
	}
	schema := predicate.Schema{Name: name, Fields: make(map[string]value.DataType, len(raw))}
	for field, typeName := range raw {
		t, ok := value.ParseDataType(typeName)
		if !ok {
			return nil, fmt.Errorf("index %s: field %s has unknown type %q", name, field, typeName)
		}
		schema.Fields[field] = t
	}
	return s.newIndex(schema), nil
}

func (s *Store) newIndex(schema predicate.Schema) *Index {
	return &Index{store: s, schema: schema, sql: querysql.NewSQLCompiler(schema.Name)}
}

func encodeFields(schema predicate.Schema) (string, string, error) {
	if schema.Name == "" {
		return "", "", fmt.Errorf("index name is required")
	}
	m := make(map[string]any, len(schema.Fields))
	for field, t := range schema.Fields {
		m[field] = string(t)
	}
	fields, err := value.MarshalCanonical(m)
	if err != nil {
		return "", "", fmt.Errorf("encode fields of index %s: %w", schema.Name, err)
	}
	fingerprint, err := value.Fingerprint(value.DomainPredicate, m)
	if err != nil {
		return "", "", err
	}
	return string(fields), fingerprint, nil
}

// Schema returns the index schema.
func (ix *Index) Schema() predicate.Schema {
	return ix.schema
}

// Insert stores a document under id, replacing any previous document with
// that id. Values are coerced to the field storage types; null values are
// stored but not indexed.
func (ix *Index) Insert(ctx context.Context, id int64, values map[string]value.Value) (err error) {
	stored := make(map[string]any, len(values))
	type posting struct {
		field string
		key   []byte
	}
	var postings []posting
	for field, v := range values {
		encoded, err := ix.schema.Encode(field, v)
		if err != nil {
			return fmt.Errorf("insert %d: field %s: %w", id, field, err)
		}
		stored[field] = encoded
		if value.IsNull(encoded) {
			continue
		}
		key, err := predicate.EncodeKey(encoded)
		if err != nil {
			return fmt.Errorf("insert %d: field %s: %w", id, field, err)
		}
		postings = append(postings, posting{field: field, key: key})
	}
	doc, err := value.MarshalCanonical(stored)
	if err != nil {
		return fmt.Errorf("insert %d: %w", id, err)
	}

	tx, err := ix.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	name := ix.schema.Name
	if _, err = tx.ExecContext(ctx,
		"DELETE FROM postings WHERE index_name = ? AND doc_id = ?", name, id); err != nil {
		return fmt.Errorf("insert %d: clear postings: %w", id, err)
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents (index_name, id, doc) VALUES (?, ?, ?)",
		name, id, string(doc)); err != nil {
		return fmt.Errorf("insert %d: %w", id, err)
	}
	for _, p := range postings {
		if _, err = tx.ExecContext(ctx,
			"INSERT INTO postings (index_name, field, key, doc_id) VALUES (?, ?, ?, ?)",
			name, p.field, p.key, id); err != nil {
			return fmt.Errorf("insert %d: posting %s: %w", id, p.field, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Search returns the ids of documents matching n, in ascending order.
func (ix *Index) Search(ctx context.Context, n predicate.Node) ([]int64, error) {
	query, params, err := ix.sql.Compile(n)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", ix.schema.Name, err)
	}
	ix.store.logger.Debug("Search",
		zap.String("index", ix.schema.Name),
		zap.Stringer("predicate", n))

	rows, err := ix.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", ix.schema.Name, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Fetch returns the documents with the given ids in ascending id order.
// Unknown ids are skipped.
func (ix *Index) Fetch(ctx context.Context, ids []int64) ([]Document, error) {
	var docs []Document
	for start := 0; start < len(ids); start += fetchChunk {
		end := min(start+fetchChunk, len(ids))
		chunk, err := ix.fetchChunk(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		docs = append(docs, chunk...)
	}
	if len(ids) > fetchChunk {
		slices.SortFunc(docs, func(a, b Document) int { return cmp.Compare(a.ID, b.ID) })
	}
	return docs, nil
}

func (ix *Index) fetchChunk(ctx context.Context, ids []int64) ([]Document, error) {
	params := make([]any, 0, len(ids)+1)
	params = append(params, ix.schema.Name)
	for _, id := range ids {
		params = append(params, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := "SELECT id, doc FROM documents WHERE index_name = ? AND id IN (" + placeholders + ") ORDER BY id ASC"

	rows, err := ix.store.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ix.schema.Name, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		values, err := ix.decodeDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", id, err)
		}
		docs = append(docs, Document{ID: id, Values: values})
	}
	return docs, rows.Err()
}

// Count returns the number of documents in the index.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	err := ix.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE index_name = ?", ix.schema.Name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", ix.schema.Name, err)
	}
	return n, nil
}

// decodeDocument restores typed values from a stored document. Numbers are
// decoded exactly and coerced back to the field storage type.
func (ix *Index) decodeDocument(raw string) (map[string]value.Value, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}

	values := make(map[string]value.Value, len(m))
	for field, v := range m {
		if n, ok := v.(json.Number); ok {
			if i, err := n.Int64(); err == nil {
				v = i
			} else if f, err := n.Float64(); err == nil {
				v = f
			} else {
				return nil, fmt.Errorf("field %s: %w", field, err)
			}
		}
		decoded, err := value.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		t, ok := ix.schema.FieldType(field)
		if !ok {
			return nil, fmt.Errorf("field %s is not part of index %s", field, ix.schema.Name)
		}
		values[field], err = value.Coerce(decoded, t)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
	}
	return values, nil
}
