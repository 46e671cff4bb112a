package vector

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pagewise/pagewise-server/internal/domain"
	"github.com/pagewise/pagewise-server/internal/id"
	"github.com/pagewise/pagewise-server/internal/retriever"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store keeps catalog embeddings in a Postgres table with a pgvector column.
type Store struct {
	pool     *pgxpool.Pool
	table    string // sanitized identifier
	embedder Embedder
	logger   *slog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn, table string, embedder Embedder, logger *slog.Logger) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid vector table name %q", table)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool:     pool,
		table:    pgx.Identifier{table}.Sanitize(),
		embedder: embedder,
		logger:   logger,
	}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the extension, table and HNSW index if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding  vector(%d) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.table, s.embedder.Dimensions()),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
			pgx.Identifier{strings.Trim(s.table, `"`) + "_embedding_idx"}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure vector schema: %w", err)
		}
	}
	return nil
}

// Query embeds every text and returns its topK nearest books by cosine
// distance. It implements retriever.Retriever.
func (s *Store) Query(ctx context.Context, texts []string, topK int) ([][]retriever.Candidate, error) {
	results := make([][]retriever.Candidate, len(texts))
	if topK <= 0 || len(texts) == 0 {
		for i := range results {
			results[i] = []retriever.Candidate{}
		}
		return results, nil
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`
		SELECT id, title, metadata, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`, s.table)

	for i, vec := range vectors {
		rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(vec), topK)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}

		hits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (retriever.Candidate, error) {
			var c retriever.Candidate
			err := row.Scan(&c.ID, &c.Title, &c.Metadata, &c.Score)
			return c, err
		})
		if err != nil {
			return nil, fmt.Errorf("scan vector hits: %w", err)
		}
		results[i] = hits
	}

	return results, nil
}

// Upsert embeds and writes books, replacing rows with the same ID.
// The embedded text is the title followed by the genre names.
func (s *Store) Upsert(ctx context.Context, books []domain.BookRecord) (int, error) {
	written := 0
	for start := 0; start < len(books); start += maxBatch {
		chunk := make([]domain.BookRecord, 0, maxBatch)
		for _, b := range books[start:min(start+maxBatch, len(books))] {
			if b.Title != "" {
				chunk = append(chunk, b)
			}
		}
		if len(chunk) == 0 {
			continue
		}

		texts := make([]string, len(chunk))
		for i, b := range chunk {
			texts[i] = EmbeddingText(b)
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return written, err
		}

		batch := &pgx.Batch{}
		stmt := fmt.Sprintf(`
			INSERT INTO %s (id, title, metadata, embedding, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title,
				metadata = excluded.metadata,
				embedding = excluded.embedding,
				updated_at = excluded.updated_at`, s.table)
		for i, b := range chunk {
			batch.Queue(stmt, id.BookID(b.Title, b.Author), b.Title, metadataOf(b), pgvector.NewVector(vectors[i]))
		}
		if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
			return written, fmt.Errorf("upsert vectors: %w", err)
		}
		written += len(chunk)

		if s.logger != nil {
			s.logger.Debug("upserted vector batch", "rows", len(chunk), "total", written)
		}
	}
	return written, nil
}

// Replace empties the table and writes books.
func (s *Store) Replace(ctx context.Context, books []domain.BookRecord) (int, error) {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`TRUNCATE %s`, s.table)); err != nil {
		return 0, fmt.Errorf("truncate vectors: %w", err)
	}
	return s.Upsert(ctx, books)
}

// EmbeddingText is the text embedded for a book.
func EmbeddingText(b domain.BookRecord) string {
	if len(b.Genres) == 0 {
		return b.Title
	}
	return b.Title + " " + strings.Join(b.Genres, ", ")
}

func metadataOf(b domain.BookRecord) map[string]any {
	return map[string]any{
		retriever.MetaAuthor:     b.Author,
		retriever.MetaNumPages:   b.NumPages,
		retriever.MetaCoverImage: b.CoverImageURI,
		retriever.MetaDetails:    b.Details,
		retriever.MetaGenres:     b.Genres,
		retriever.MetaAvailable:  b.Available,
	}
}

var _ retriever.Retriever = (*Store)(nil)
