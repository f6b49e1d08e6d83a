// Package knowledge is the retrieval side of the bot: tutoring documentation
// stored in Postgres with pgvector embeddings, searched by cosine similarity.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/samsondavid964/AI-Customer-Support-Agent/internal/llm"
)

// DefaultSearchLimit caps how many documents a single lookup returns.
const DefaultSearchLimit = 3

type Document struct {
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Similarity float64           `json:"similarity"`
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id        BIGSERIAL PRIMARY KEY,
	content   TEXT NOT NULL,
	metadata  JSONB NOT NULL DEFAULT '{}',
	embedding vector(1536)
);
`

type Store struct {
	db            *sql.DB
	embedder      llm.Embedder
	minSimilarity float64
}

// Open connects to the document store. minSimilarity is the confidence floor:
// search results scoring below it are discarded rather than surfaced as
// low-quality context.
func Open(dsn string, embedder llm.Embedder, minSimilarity float64) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init knowledge schema: %w", err)
	}
	return &Store{db: db, embedder: embedder, minSimilarity: minSimilarity}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Search embeds the query and returns the closest documents by cosine
// distance, most similar first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
		 FROM documents
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vec), limit)
	if err != nil {
		return nil, fmt.Errorf("knowledge search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []Document
	for rows.Next() {
		var (
			d    Document
			meta []byte
		)
		if err := rows.Scan(&d.Content, &meta, &d.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &d.Metadata); err != nil {
				d.Metadata = nil
			}
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return Filter(docs, s.minSimilarity), nil
}

// Filter drops documents whose similarity is below the floor. Order is
// preserved; a zero floor keeps everything.
func Filter(docs []Document, minSimilarity float64) []Document {
	if minSimilarity <= 0 {
		return docs
	}
	var kept []Document
	for _, d := range docs {
		if d.Similarity >= minSimilarity {
			kept = append(kept, d)
		}
	}
	return kept
}

// Add embeds and stores one document. Used by ingestion tooling, not the
// message pipeline.
func (s *Store) Add(ctx context.Context, content string, metadata map[string]string) error {
	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}
	meta := "{}"
	if len(metadata) > 0 {
		b, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		meta = string(b)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (content, metadata, embedding) VALUES ($1, $2, $3)`,
		content, meta, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// RelevantContext renders search results into a prompt-ready block.
func RelevantContext(docs []Document) string {
	if len(docs) == 0 {
		return "No relevant documentation found."
	}
	var b strings.Builder
	b.WriteString("Relevant TeachPro Documentation:\n\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. %s\n", i+1, d.Content)
		if src, ok := d.Metadata["source"]; ok {
			fmt.Fprintf(&b, "   Source: %s\n", src)
		}
		b.WriteString("\n")
	}
	return b.String()
}
