package repository

import (
	"context"

	"talent-split/internal/database"

	"github.com/google/uuid"
)

// DocumentRepository is the boundary to the document store. The engine only
// ever asks whether a document exists; storage and upload live elsewhere.
type DocumentRepository interface {
	Exists(ctx context.Context, documentID uuid.UUID) (bool, error)
}

type PostgresDocumentRepository struct {
	db database.DB
}

func NewPostgresDocumentRepository(db database.DB) *PostgresDocumentRepository {
	return &PostgresDocumentRepository{db: db}
}

func (r *PostgresDocumentRepository) Exists(ctx context.Context, documentID uuid.UUID) (bool, error) {
	var exists bool
	err := withRetry(ctx, func() error {
		return r.db.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`,
			documentID,
		).Scan(&exists)
	})
	return exists, err
}
