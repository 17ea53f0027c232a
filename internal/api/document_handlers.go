package api

import (
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/extract"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/services"
)

const (
	uploadField       = "document"
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

type generateRequest struct {
	CardCount *int `json:"cardCount" validate:"omitempty,min=1,max=50"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.DocumentService.List(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			handleError(w, r, services.FileTooLarge(s.MaxUploadBytes))
			return
		}
		log.Debug("failed to parse multipart form: %v", err)
		handleError(w, r, errors.NewBadRequestError("no file uploaded").WithCode(errors.ErrCodeNoFile))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		handleError(w, r, errors.NewBadRequestError("no file uploaded").WithCode(errors.ErrCodeNoFile))
		return
	}
	defer file.Close()

	if header.Size > s.MaxUploadBytes {
		handleError(w, r, services.FileTooLarge(s.MaxUploadBytes))
		return
	}
	data, err := io.ReadAll(io.LimitReader(file, s.MaxUploadBytes+1))
	if err != nil {
		handleError(w, r, errors.NewInternalError(err))
		return
	}

	doc, err := s.DocumentService.Upload(r.Context(), userFromContext(r.Context()).ID, services.UploadInput{
		Filename:    header.Filename,
		ContentType: uploadContentType(header.Header.Get("Content-Type"), header.Filename),
		Data:        data,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, map[string]any{"document": doc})
}

// uploadContentType falls back to the file extension when the client sent
// no part type or a generic one.
func uploadContentType(partType, filename string) string {
	mt := extract.MediaType(partType)
	if mt != "" && mt != "application/octet-stream" {
		return partType
	}
	if byExt := mime.TypeByExtension(filepath.Ext(filename)); byExt != "" {
		return byExt
	}
	return partType
}

func (s *Server) handleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	count := 0
	if req.CardCount != nil {
		count = *req.CardCount
	}

	res, err := s.DocumentService.GenerateFlashcards(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "documentID"), count)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, res)
}
