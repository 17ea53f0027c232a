package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/services"
)

type completeSessionRequest struct {
	CardsReviewed  *int                `json:"cardsReviewed" validate:"required,min=0,max=1000"`
	CorrectAnswers *int                `json:"correctAnswers" validate:"required,min=0,max=1000"`
	CardResults    []cardResultRequest `json:"cardResults" validate:"omitempty,max=1000,dive"`
}

type cardResultRequest struct {
	CardID  string `json:"cardId" validate:"required"`
	Correct *bool  `json:"correct" validate:"required"`
}

type updateCardRequest struct {
	Question *string `json:"question"`
	Answer   *string `json:"answer"`
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.DeckService.ListDecks(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"decks": decks})
}

func (s *Server) handleDeckCards(w http.ResponseWriter, r *http.Request) {
	out, err := s.DeckService.DeckCards(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "deckID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, out)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	out, err := s.StudyService.StartSession(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "deckID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, out)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req completeSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	in := services.CompleteSessionInput{
		CardsReviewed:  *req.CardsReviewed,
		CorrectAnswers: *req.CorrectAnswers,
		CardResults:    make([]models.CardResult, 0, len(req.CardResults)),
	}
	for _, cr := range req.CardResults {
		in.CardResults = append(in.CardResults, models.CardResult{CardID: cr.CardID, Correct: *cr.Correct})
	}

	summary, err := s.StudyService.CompleteSession(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "sessionID"), in)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"session": summary})
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var req updateCardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.DeckService.UpdateCard(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "cardID"), models.CardPatch{
		Question: req.Question,
		Answer:   req.Answer,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]any{"card": card})
}
