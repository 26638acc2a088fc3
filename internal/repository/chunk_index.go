package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkIndex is the pgvector-backed vector index over document chunks.
// Distances are cosine distances in [0, 2].
type ChunkIndex struct {
	db dbtx
	tx *TxRunner
}

func NewChunkIndex(pool *pgxpool.Pool) *ChunkIndex {
	return &ChunkIndex{db: pool, tx: NewTxRunner(pool)}
}

// Upsert replaces the indexed chunks of docID with chunks in one transaction.
// Chunks are written by id; ids of docID that are not in chunks are removed.
func (r *ChunkIndex) Upsert(ctx context.Context, docID string, chunks []domain.IndexedChunk) error {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		if c.DocID != docID {
			return fmt.Errorf("chunk %s belongs to %q, not %q", c.ID, c.DocID, docID)
		}
		ids[i] = c.ID
	}

	return r.tx.WithTx(ctx, func(tx pgx.Tx) error {
		for _, c := range chunks {
			_, err := tx.Exec(ctx,
				`INSERT INTO document_chunks (id, doc_id, section, chunk_index, content, embedding)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 ON CONFLICT (id) DO UPDATE SET
					doc_id = EXCLUDED.doc_id,
					section = EXCLUDED.section,
					chunk_index = EXCLUDED.chunk_index,
					content = EXCLUDED.content,
					embedding = EXCLUDED.embedding`,
				c.ID, c.DocID, c.Section, c.ChunkIndex, c.Text, pgvector.NewVector(c.Embedding),
			)
			if err != nil {
				return fmt.Errorf("upsert chunk %s: %w", c.ID, err)
			}
		}

		_, err := tx.Exec(ctx,
			`DELETE FROM document_chunks WHERE doc_id = $1 AND NOT (id = ANY($2))`,
			docID, ids,
		)
		return err
	})
}

// Search returns the k chunks nearest to vector, closest first.
func (r *ChunkIndex) Search(ctx context.Context, vector []float32, k int) ([]domain.RetrievedChunk, error) {
	if k <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, doc_id, section, chunk_index, content, embedding <=> $1 AS distance
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(vector), k,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []domain.RetrievedChunk{}
	for rows.Next() {
		var rc domain.RetrievedChunk
		var distance float64
		if err := rows.Scan(&rc.ID, &rc.Metadata.DocID, &rc.Metadata.Section, &rc.Metadata.ChunkIndex, &rc.Text, &distance); err != nil {
			return nil, err
		}
		rc.Distance = &distance
		results = append(results, rc)
	}
	return results, rows.Err()
}

// DeleteByDocID removes every chunk of docID and reports how many were removed.
func (r *ChunkIndex) DeleteByDocID(ctx context.Context, docID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE doc_id = $1`, docID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

