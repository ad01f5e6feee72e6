// Package sqlite provides a VectorIndex persisted in a local SQLite database.
//
// Vectors are stored as little-endian float32 blobs and ranked by cosine
// similarity with a linear scan, which suits single-user document sets.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector"
	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// dbFile is the database file name inside the data directory.
const dbFile = "vectors.db"

// metaDimension is the index_meta key holding the fixed dimension.
const metaDimension = "dimension"

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a SQLite-backed implementation of driven.VectorIndex.
type Index struct {
	db   *sql.DB
	path string
	name string
}

// NewIndex opens or creates the index in dataDir.
// If dataDir is empty, defaults to ~/.pdfchat/data.
// A positive dimension is fixed now; zero lets the first upsert fix it.
func NewIndex(dataDir, name string, dimension int) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".pdfchat", "data")
	}
	if name == "" {
		name = "local"
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// WAL lets the server read while an ingest transaction is open.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	idx := &Index{db: db, path: dbPath, name: name}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	if dimension > 0 {
		if err := idx.fixDimension(context.Background(), dimension); err != nil {
			db.Close()
			return nil, err
		}
	}

	return idx, nil
}

// Close closes the database connection.
func (i *Index) Close() error {
	return i.db.Close()
}

// Path returns the database file path.
func (i *Index) Path() string {
	return i.path
}

// Upsert writes the batch in one transaction. Existing ids are overwritten.
func (i *Index) Upsert(ctx context.Context, batch []domain.IndexedVector) error {
	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return i.fail("upsert", fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := dimension(ctx, tx)
	if err != nil {
		return i.fail("upsert", err)
	}
	dim, err := vector.CheckBatch(batch, current)
	if err != nil {
		return err
	}
	if current == 0 {
		if err := setDimension(ctx, tx, dim); err != nil {
			return i.fail("upsert", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, dimension, embedding, payload, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			dimension = excluded.dimension,
			embedding = excluded.embedding,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return i.fail("upsert", fmt.Errorf("prepare statement: %w", err))
	}
	defer stmt.Close()

	for _, v := range batch {
		payload, err := json.Marshal(v.Payload)
		if err != nil {
			return domain.InvalidArgument("vector %q payload: %v", v.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, len(v.Values), float32SliceToBytes(v.Values), string(payload)); err != nil {
			return i.fail("upsert", fmt.Errorf("insert %q: %w", v.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return i.fail("upsert", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Query returns the topK stored vectors most similar to values.
func (i *Index) Query(
	ctx context.Context, values []float32, topK int, includeMetadata bool,
) ([]domain.RetrievalResult, error) {
	dim, err := dimension(ctx, i.db)
	if err != nil {
		return nil, i.fail("query", err)
	}
	if err := vector.CheckQuery(values, topK, dim); err != nil {
		return nil, err
	}

	rows, err := i.db.QueryContext(ctx, "SELECT id, embedding, payload FROM vectors")
	if err != nil {
		return nil, i.fail("query", err)
	}
	defer rows.Close()

	var matches []vector.Match
	payloads := make(map[string]string)
	for rows.Next() {
		var (
			id      string
			blob    []byte
			payload string
		)
		if err := rows.Scan(&id, &blob, &payload); err != nil {
			return nil, i.fail("query", fmt.Errorf("scan: %w", err))
		}
		stored := bytesToFloat32Slice(blob)
		if len(stored) != len(values) {
			continue
		}
		matches = append(matches, vector.Match{ID: id, Score: vector.Cosine(values, stored)})
		payloads[id] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, i.fail("query", err)
	}

	// Rank without metadata so only the returned rows have their payload decoded.
	results := vector.Rank(matches, topK, false)
	if !includeMetadata {
		return results, nil
	}
	for n, r := range results {
		var payload map[string]any
		if err := json.Unmarshal([]byte(payloads[r.ID]), &payload); err != nil {
			return nil, i.fail("query", fmt.Errorf("decode payload of %q: %w", r.ID, err))
		}
		results[n] = domain.ResultFromPayload(r.ID, r.Score, payload)
	}
	return results, nil
}

// Stats describes the index contents.
func (i *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	dim, err := dimension(ctx, i.db)
	if err != nil {
		return domain.IndexStats{}, i.fail("stats", err)
	}
	var total int
	if err := i.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&total); err != nil {
		return domain.IndexStats{}, i.fail("stats", err)
	}
	return domain.IndexStats{Name: i.name, Dimension: dim, TotalVectors: total}, nil
}

// fixDimension records dim, or checks it against the recorded dimension.
func (i *Index) fixDimension(ctx context.Context, dim int) error {
	current, err := dimension(ctx, i.db)
	if err != nil {
		return err
	}
	if current == 0 {
		return setDimension(ctx, i.db, dim)
	}
	if current != dim {
		return domain.InvalidArgument("index %s has dimension %d, configured %d", i.path, current, dim)
	}
	return nil
}

func (i *Index) fail(op string, err error) error {
	return domain.NewProviderError(domain.ProviderIndex, op, err)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// dimension returns the recorded dimension, or 0 if none is recorded.
func dimension(ctx context.Context, q querier) (int, error) {
	var value string
	err := q.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", metaDimension).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading dimension: %w", err)
	}
	dim, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parsing dimension %q: %w", value, err)
	}
	return dim, nil
}

func setDimension(ctx context.Context, q querier, dim int) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO index_meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		metaDimension, strconv.Itoa(dim))
	if err != nil {
		return fmt.Errorf("recording dimension: %w", err)
	}
	return nil
}

// migrate runs all pending migrations, each in its own transaction.
func (i *Index) migrate(fsys embed.FS) error {
	_, err := i.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := i.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_vectors.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := i.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (i *Index) apply(version int, script string) error {
	tx, err := i.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
