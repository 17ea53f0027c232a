package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

type documentRepository struct {
	db *sql.DB
}

// NewDocumentRepository creates a new DocumentRepository implementation
func NewDocumentRepository(db *sql.DB) repository.DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Insert(ctx context.Context, d models.Document) error {
	log := logger.FromContext(ctx).WithPrefix("document_repo")
	log.Debug("inserting document: id=%s, user_id=%s, size=%d", d.ID, d.UserID, d.FileSize)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO documents (id, user_id, filename, original_name, file_size, mime_type, storage_path, extracted_text, processing_status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, d.ID, d.UserID, d.Filename, d.OriginalName, d.FileSize, d.MimeType, d.StoragePath, d.ExtractedText, d.ProcessingStatus, d.CreatedAt)
	if err != nil {
		log.Error("failed to insert document: %v", err)
	}
	return err
}

func (r *documentRepository) GetForUser(ctx context.Context, id, userID string) (*models.Document, error) {
	log := logger.FromContext(ctx).WithPrefix("document_repo")
	log.Debug("getting document: id=%s, user_id=%s", id, userID)

	var d models.Document
	err := r.db.QueryRowContext(ctx, `
SELECT id, user_id, filename, original_name, file_size, mime_type, storage_path, extracted_text, processing_status, created_at
FROM documents
WHERE id = ? AND user_id = ?
`, id, userID).Scan(&d.ID, &d.UserID, &d.Filename, &d.OriginalName, &d.FileSize, &d.MimeType, &d.StoragePath, &d.ExtractedText, &d.ProcessingStatus, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("document not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get document: %v", err)
		return nil, err
	}
	return &d, nil
}

// ListForUser returns document metadata newest first; extracted text is not loaded.
func (r *documentRepository) ListForUser(ctx context.Context, userID string) ([]models.Document, error) {
	log := logger.FromContext(ctx).WithPrefix("document_repo")
	log.Debug("listing documents: user_id=%s", userID)

	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, filename, original_name, file_size, mime_type, storage_path, processing_status, created_at
FROM documents
WHERE user_id = ?
ORDER BY created_at DESC, rowid DESC
`, userID)
	if err != nil {
		log.Error("failed to query documents: %v", err)
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.UserID, &d.Filename, &d.OriginalName, &d.FileSize, &d.MimeType, &d.StoragePath, &d.ProcessingStatus, &d.CreatedAt); err != nil {
			log.Error("failed to scan document row: %v", err)
			return nil, err
		}
		docs = append(docs, d)
	}
	log.Debug("found %d documents", len(docs))
	return docs, rows.Err()
}
