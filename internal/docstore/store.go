// Package docstore is a schemaless document store on PostgreSQL JSONB.
//
// Documents live under slash separated paths and are grouped by their parent
// collection. Every write publishes a change event on Redis so that watchers
// can refresh their result sets.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/config"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidPath   = errors.New("invalid document path")
	ErrInvalidQuery  = errors.New("invalid query")
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Document is a stored document with its raw JSON data.
type Document struct {
	Path       string
	Collection string
	ID         string
	Data       json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DataTo decodes the document data into v.
func (d Document) DataTo(v interface{}) error {
	if err := json.Unmarshal(d.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", d.Path, err)
	}
	return nil
}

// Identifiable is a pointer to a model that records its document id.
type Identifiable[T any] interface {
	*T
	SetID(id string)
}

// Decode decodes one document into T and assigns its id.
func Decode[T any, PT Identifiable[T]](d Document) (T, error) {
	var v T
	if err := d.DataTo(&v); err != nil {
		return v, err
	}
	PT(&v).SetID(d.ID)
	return v, nil
}

// DecodeAll decodes documents in order.
func DecodeAll[T any, PT Identifiable[T]](docs []Document) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := Decode[T, PT](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ChangeEvent is published on the collection channel after each write.
type ChangeEvent struct {
	Path string `json:"path"`
	Op   string `json:"op"`
}

// Store reads and writes documents.
type Store struct {
	pool *pgxpool.Pool
	db   Querier
	rdb  *redis.Client
	log  zerolog.Logger

	// Set on transaction-bound stores; events are held until commit.
	mu      *sync.Mutex
	pending *[]ChangeEvent
}

// New creates a Store.
func New(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *Store {
	return &Store{
		pool: pool,
		db:   pool,
		rdb:  rdb,
		log:  log.With().Str("component", "docstore").Logger(),
	}
}

// Get returns the document at path or ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) (*Document, error) {
	if _, _, err := splitDocPath(path); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM documents WHERE path = $1`, path)
	d, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return d, nil
}

// Set writes data at path, replacing any existing document.
func (s *Store) Set(ctx context.Context, path string, data interface{}) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO documents (path, collection, doc_id, data)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (path) DO UPDATE
		 SET data = EXCLUDED.data, updated_at = NOW()`,
		path, collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	s.notify(ctx, collection, ChangeEvent{Path: path, Op: "set"})
	return nil
}

// Create writes data at path only if no document exists there yet.
func (s *Store) Create(ctx context.Context, path string, data interface{}) error {
	collection, id, err := splitDocPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tag, err := s.db.Exec(ctx,
		`INSERT INTO documents (path, collection, doc_id, data)
		 VALUES ($1, $2, $3, $4::jsonb)
		 ON CONFLICT (path) DO NOTHING`,
		path, collection, id, string(raw),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	s.notify(ctx, collection, ChangeEvent{Path: path, Op: "create"})
	return nil
}

// Update merges top-level fields into an existing document.
func (s *Store) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	collection, _, err := splitDocPath(path)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE documents SET data = data || $2::jsonb, updated_at = NOW()
		 WHERE path = $1`,
		path, string(raw),
	)
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.notify(ctx, collection, ChangeEvent{Path: path, Op: "update"})
	return nil
}

// Query runs q and returns matching documents.
func (s *Store) Query(ctx context.Context, q Query) ([]Document, error) {
	sql, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", q.Collection, err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// RunInTx runs fn inside a database transaction. The tx-bound store passed to
// fn shares the transaction; change events are published only after commit.
func (s *Store) RunInTx(ctx context.Context, fn func(tx pgx.Tx, docs *Store) error) error {
	pending := make([]ChangeEvent, 0)

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		txStore := &Store{
			pool:    s.pool,
			db:      tx,
			rdb:     s.rdb,
			log:     s.log,
			mu:      &sync.Mutex{},
			pending: &pending,
		}
		return fn(tx, txStore)
	})
	if err != nil {
		return err
	}

	for _, ev := range pending {
		collection, _, _ := splitDocPath(ev.Path)
		s.publish(ctx, collection, ev)
	}
	return nil
}

func (s *Store) notify(ctx context.Context, collection string, ev ChangeEvent) {
	if s.pending != nil {
		s.mu.Lock()
		*s.pending = append(*s.pending, ev)
		s.mu.Unlock()
		return
	}
	s.publish(ctx, collection, ev)
}

// publish failures are logged only: the write itself has succeeded.
func (s *Store) publish(ctx context.Context, collection string, ev ChangeEvent) {
	if s.rdb == nil {
		return
	}
	payload, _ := json.Marshal(ev)
	if err := s.rdb.Publish(ctx, config.CacheKey.CollectionChannel(collection), payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("path", ev.Path).Msg("Change event publish failed")
	}
}

func scanDocument(row pgx.Row) (*Document, error) {
	var (
		d    Document
		data []byte
	)
	if err := row.Scan(&d.Path, &d.Collection, &d.ID, &data, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Data = json.RawMessage(data)
	return &d, nil
}
