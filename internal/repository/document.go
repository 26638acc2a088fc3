package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/legalrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository stores the records of ingested documents.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

// Save inserts the record, replacing any previous record with the same doc_id.
func (r *DocumentRepository) Save(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (doc_id, filename, doc_type, word_count, char_count, chunk_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (doc_id) DO UPDATE SET
			filename = EXCLUDED.filename,
			doc_type = EXCLUDED.doc_type,
			word_count = EXCLUDED.word_count,
			char_count = EXCLUDED.char_count,
			chunk_count = EXCLUDED.chunk_count,
			created_at = EXCLUDED.created_at`,
		d.DocID, d.Filename, d.Metadata.DocType, d.Metadata.WordCount, d.Metadata.CharCount, d.ChunkCount, d.Metadata.Timestamp,
	)
	return err
}

func (r *DocumentRepository) GetByID(ctx context.Context, docID string) (*domain.Document, error) {
	var d domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT doc_id, filename, doc_type, word_count, char_count, chunk_count, created_at
		 FROM documents WHERE doc_id = $1`,
		docID,
	).Scan(&d.DocID, &d.Filename, &d.Metadata.DocType, &d.Metadata.WordCount, &d.Metadata.CharCount, &d.ChunkCount, &d.Metadata.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns all records, newest first.
func (r *DocumentRepository) List(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT doc_id, filename, doc_type, word_count, char_count, chunk_count, created_at
		 FROM documents ORDER BY created_at DESC, doc_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.DocID, &d.Filename, &d.Metadata.DocType, &d.Metadata.WordCount, &d.Metadata.CharCount, &d.ChunkCount, &d.Metadata.Timestamp); err != nil {
			return nil, err
		}
		docs = append(docs, &d)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, docID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE doc_id = $1`, docID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}
