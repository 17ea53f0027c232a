package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/extract"
	"github.com/vytor/flashgenius/internal/generation"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
	"github.com/vytor/flashgenius/internal/storage"
)

const (
	minDocumentChars   = 100
	minGenerationChars = 50
	defaultCardCount   = 10
	maxCardCount       = 50
)

type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

type GenerateResult struct {
	Deck       models.Deck       `json:"deck"`
	Flashcards []models.Card     `json:"flashcards"`
	Source     generation.Source `json:"source"`
}

// DocumentService handles uploads and turning documents into decks
type DocumentService interface {
	Upload(ctx context.Context, userID string, in UploadInput) (*models.Document, error)
	List(ctx context.Context, userID string) ([]models.Document, error)
	// GenerateFlashcards builds a deck from a document. A count of 0 means the default.
	GenerateFlashcards(ctx context.Context, userID, documentID string, count int) (*GenerateResult, error)
}

type documentService struct {
	docs      repository.DocumentRepository
	decks     repository.DeckRepository
	blobs     storage.BlobStore
	generator generation.Generator
	maxBytes  int64
	now       func() time.Time
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	docs repository.DocumentRepository,
	decks repository.DeckRepository,
	blobs storage.BlobStore,
	generator generation.Generator,
	maxBytes int64,
) DocumentService {
	return &documentService{
		docs:      docs,
		decks:     decks,
		blobs:     blobs,
		generator: generator,
		maxBytes:  maxBytes,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// FileTooLarge builds the FILE_TOO_LARGE error for a byte limit.
func FileTooLarge(maxBytes int64) *errors.AppError {
	return errors.NewPayloadTooLargeError(errors.ErrCodeFileTooLarge, fmt.Sprintf("file exceeds the %d MB limit", maxBytes>>20))
}

func (s *documentService) Upload(ctx context.Context, userID string, in UploadInput) (*models.Document, error) {
	log := logger.FromContext(ctx)
	mediaType := extract.MediaType(in.ContentType)
	log.Debug("uploading document: name=%s, type=%s, bytes=%d", in.Filename, mediaType, len(in.Data))

	if len(in.Data) == 0 {
		return nil, errors.NewBadRequestError("no file uploaded").WithCode(errors.ErrCodeNoFile)
	}
	if !extract.Supported(mediaType) {
		return nil, errors.NewBadRequestError("only PDF and TXT files are allowed").WithCode(errors.ErrCodeUnsupportedFile)
	}
	if s.maxBytes > 0 && int64(len(in.Data)) > s.maxBytes {
		return nil, FileTooLarge(s.maxBytes)
	}

	text, err := extract.Text(in.Data, mediaType)
	if err != nil {
		log.Warn("failed to extract document text: %v", err)
		return nil, errors.NewBadRequestError("could not read text from the document").WithCode(errors.ErrCodeInsufficientContent)
	}
	if utf8.RuneCountInString(text) < minDocumentChars {
		return nil, errors.NewBadRequestError("document does not contain enough text content").WithCode(errors.ErrCodeInsufficientContent)
	}

	now := s.now()
	original := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Filename), "\\", "/"))
	if original == "" || original == "." || original == "/" {
		original = "document"
	}
	filename := fmt.Sprintf("%d_%s", now.UnixMilli(), original)
	key := path.Join("documents", userID, filename)

	location, err := s.blobs.Put(ctx, key, in.Data, mediaType)
	if err != nil {
		log.Error("failed to store document blob: %v", err)
		return nil, errors.NewInternalError(err)
	}

	doc := models.Document{
		ID:               uuid.NewString(),
		UserID:           userID,
		Filename:         filename,
		OriginalName:     original,
		FileSize:         int64(len(in.Data)),
		MimeType:         mediaType,
		StoragePath:      location,
		ExtractedText:    text,
		ProcessingStatus: models.ProcessingStatusCompleted,
		CreatedAt:        now,
	}
	if err := s.docs.Insert(ctx, doc); err != nil {
		log.Error("failed to insert document: %v", err)
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.Warn("failed to remove orphaned blob %s: %v", key, delErr)
		}
		return nil, errors.NewInternalError(err)
	}

	log.Info("document uploaded: document_id=%s, chars=%d", doc.ID, utf8.RuneCountInString(text))
	return &doc, nil
}

func (s *documentService) List(ctx context.Context, userID string) ([]models.Document, error) {
	docs, err := s.docs.ListForUser(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list documents: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return docs, nil
}

func (s *documentService) GenerateFlashcards(ctx context.Context, userID, documentID string, count int) (*GenerateResult, error) {
	log := logger.FromContext(ctx).WithField("document_id", documentID)
	if count == 0 {
		count = defaultCardCount
	}
	log.Debug("generating flashcards: count=%d", count)

	if count < 1 || count > maxCardCount {
		return nil, errors.NewValidationError("cardCount", fmt.Sprintf("must be between 1 and %d", maxCardCount))
	}

	doc, err := s.docs.GetForUser(ctx, documentID, userID)
	if err != nil {
		log.Error("failed to load document: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if doc == nil {
		return nil, errors.NewNotFoundError("document", documentID)
	}
	if utf8.RuneCountInString(strings.TrimSpace(doc.ExtractedText)) < minGenerationChars {
		return nil, errors.NewBadRequestError("document has no usable text content").WithCode(errors.ErrCodeNoTextContent)
	}

	res := s.generator.Generate(ctx, doc.ExtractedText, count)

	now := s.now()
	docID := doc.ID
	deck := models.Deck{
		ID:           uuid.NewString(),
		UserID:       userID,
		DocumentID:   &docID,
		DocumentName: doc.OriginalName,
		Title:        "Flashcards from " + doc.OriginalName,
		Description:  "Auto-generated flashcards from " + doc.OriginalName,
		TotalCards:   len(res.Cards),
		CreatedAt:    now,
	}
	cards := make([]models.Card, 0, len(res.Cards))
	for i, gc := range res.Cards {
		// Distinct timestamps keep insertion order stable under (created_at, rowid).
		at := now.Add(time.Duration(i) * time.Microsecond)
		cards = append(cards, models.Card{
			ID:         uuid.NewString(),
			DeckID:     deck.ID,
			Question:   gc.Question,
			Answer:     gc.Answer,
			Difficulty: models.DifficultyMedium,
			CreatedAt:  at,
			UpdatedAt:  at,
		})
	}

	if err := s.decks.InsertWithCards(ctx, deck, cards); err != nil {
		log.Error("failed to store generated deck: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("generated deck: deck_id=%s, cards=%d, source=%s", deck.ID, len(cards), res.Source)
	return &GenerateResult{Deck: deck, Flashcards: cards, Source: res.Source}, nil
}
