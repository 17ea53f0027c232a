package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashgenius/internal/auth"
	"github.com/vytor/flashgenius/internal/cache"
	"github.com/vytor/flashgenius/internal/generation"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository/sqlite"
	"github.com/vytor/flashgenius/internal/services"
	"github.com/vytor/flashgenius/internal/storage"
	"github.com/vytor/flashgenius/internal/testutil"
	"github.com/vytor/flashgenius/internal/testutil/mocks"
	"golang.org/x/crypto/bcrypt"
)

const lecture = "Mitochondria are the powerhouse of the cell and produce most of its ATP. " +
	"The inner membrane is folded into cristae to increase surface area. " +
	"Cellular respiration consumes oxygen and releases carbon dioxide as a by-product."

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details []json.RawMessage `json:"details"`
	} `json:"error"`
}

type APISuite struct {
	suite.Suite
	db      *sql.DB
	ai      *mocks.MockAIClient
	queue   *mocks.MockJobQueue
	server  *Server
	handler http.Handler
}

func (s *APISuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.ai = new(mocks.MockAIClient)
	s.ai.On("Configured").Return(false).Maybe()
	s.queue = new(mocks.MockJobQueue)
	s.queue.On("EnqueueLeaderboardRefresh").Return(nil).Maybe()
	s.build(func(*Server) {})
}

func (s *APISuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *APISuite) build(tweak func(*Server)) {
	users := sqlite.NewUserRepository(s.db)
	decks := sqlite.NewDeckRepository(s.db)
	cards := sqlite.NewCardRepository(s.db)
	blobs, err := storage.NewLocalStore(s.T().TempDir())
	s.Require().NoError(err)

	s.server = &Server{
		AuthService:        services.NewAuthService(users, auth.NewBcryptHasher(bcrypt.MinCost), auth.NewJWTManager("api-test-secret-that-is-long-enough!!", "flashgenius", time.Hour)),
		DocumentService:    services.NewDocumentService(sqlite.NewDocumentRepository(s.db), decks, blobs, generation.New(s.ai, 1), 1<<20),
		DeckService:        services.NewDeckService(decks, cards),
		StudyService:       services.NewStudyService(decks, cards, sqlite.NewStudySessionRepository(s.db), s.queue),
		LeaderboardService: services.NewLeaderboardService(users, sqlite.NewLeaderboardRepository(s.db), cache.NewMemoryCache(time.Minute)),
		ChatService:        services.NewChatService(s.ai),
		DB:                 s.db,
		Version:            "1.0.0",
		Environment:        "test",
		CORSOrigins:        []string{"http://localhost:3000"},
		MaxUploadBytes:     1 << 20,
		StartedAt:          time.Now(),
		RateLimitWindow:    15 * time.Minute,
		RateLimitMax:       1000,
		AuthRateLimitMax:   100,
		UploadRateLimit:    100,
	}
	tweak(s.server)
	s.handler = s.server.Routes()
}

func (s *APISuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, response) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		s.Require().NoError(err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	return s.serve(req, token)
}

func (s *APISuite) serve(req *http.Request, token string) (*httptest.ResponseRecorder, response) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out response
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *APISuite) decode(raw json.RawMessage, dst any) {
	s.Require().NoError(json.Unmarshal(raw, dst))
}

// register creates an account and returns its id and token.
func (s *APISuite) register(email string) (string, string) {
	rec, res := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret1", "firstName": "Ada", "lastName": "Lovelace",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	s.decode(res.Data, &data)
	return data.User.ID, data.Token
}

func (s *APISuite) upload(token, filename, contentType string, content []byte) (*httptest.ResponseRecorder, response) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="document"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
	} else {
		s.Require().NoError(mw.WriteField("note", "no file"))
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.serve(req, token)
}

func (s *APISuite) TestHealthAndMetrics() {
	rec, _ := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"status":"OK"`)
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
	s.Empty(rec.Header().Get("Strict-Transport-Security"))
	s.NotEmpty(rec.Header().Get("X-Request-ID"))

	for _, path := range []string{"/api/health", "/health/ready", "/health/live", "/health/detailed"} {
		rec, _ = s.do(http.MethodGet, path, "", nil)
		s.Equal(http.StatusOK, rec.Code, path)
	}
	s.Contains(rec.Body.String(), `"database":"connected"`)
	s.Contains(rec.Body.String(), `"ai":"not_configured"`)

	rec, _ = s.do(http.MethodGet, "/api", "", nil)
	s.Contains(rec.Body.String(), "FlashGenius AI API v1.0.0")

	rec, _ = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "flashgenius_http_requests_total")
}

func (s *APISuite) TestReadinessFailsWithClosedDatabase() {
	closed := testutil.NewTestDB(s.T())
	s.Require().NoError(closed.Close())
	s.build(func(srv *Server) { srv.DB = closed })

	rec, _ := s.do(http.MethodGet, "/health/ready", "", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)

	rec, _ = s.do(http.MethodGet, "/health/detailed", "", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Contains(rec.Body.String(), "DEGRADED")
}

func (s *APISuite) TestUnknownRoute() {
	rec, res := s.do(http.MethodGet, "/api/nope", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.False(res.Success)
	s.Equal("NOT_FOUND", res.Error.Code)
}

func (s *APISuite) TestAuthFlow() {
	_, token := s.register("flow@example.com")

	rec, res := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "FLOW@example.com", "password": "secret1", "firstName": "A", "lastName": "B",
	})
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal("USER_EXISTS", res.Error.Code)

	rec, res = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "flow@example.com", "password": "nope!!"})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("INVALID_CREDENTIALS", res.Error.Code)

	rec, res = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "flow@example.com", "password": "secret1"})
	s.Equal(http.StatusOK, rec.Code)
	s.True(res.Success)

	rec, res = s.do(http.MethodGet, "/api/auth/profile", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("NO_TOKEN", res.Error.Code)

	rec, res = s.do(http.MethodGet, "/api/auth/profile", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("INVALID_TOKEN", res.Error.Code)

	rec, res = s.do(http.MethodGet, "/api/auth/profile", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(string(res.Data), `"email":"flow@example.com"`)
	s.NotContains(string(res.Data), "passwordHash")
}

func (s *APISuite) TestRegisterValidation() {
	rec, res := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "nope", "password": "123"})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)
	s.Len(res.Error.Details, 4)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	rec, res = s.serve(req, "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("BAD_REQUEST", res.Error.Code)
}

func (s *APISuite) TestStudyFlow() {
	userID, token := s.register("study@example.com")
	deck, cards := testutil.InsertDeck(s.T(), s.db, userID,
		models.Card{Difficulty: models.DifficultyEasy},
		models.Card{Difficulty: models.DifficultyHard},
	)

	rec, res := s.do(http.MethodGet, "/api/flashcards/decks", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var decks struct {
		Decks []models.Deck `json:"decks"`
	}
	s.decode(res.Data, &decks)
	s.Require().Len(decks.Decks, 1)

	rec, res = s.do(http.MethodPost, "/api/flashcards/decks/"+deck.ID+"/study-session", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var started models.StartedSession
	s.decode(res.Data, &started)
	s.Require().Len(started.Cards, 2)
	s.Equal(cards[1].ID, started.Cards[0].ID)

	body := map[string]any{
		"cardsReviewed":  2,
		"correctAnswers": 2,
		"cardResults": []map[string]any{
			{"cardId": cards[0].ID, "correct": true},
			{"cardId": cards[1].ID, "correct": true},
		},
	}
	path := "/api/flashcards/study-sessions/" + started.Session.ID + "/complete"
	for i := 0; i < 2; i++ {
		rec, res = s.do(http.MethodPut, path, token, body)
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var done struct {
			Session models.SessionSummary `json:"session"`
		}
		s.decode(res.Data, &done)
		s.Equal(70, done.Session.PointsEarned)
		s.Equal(1.0, done.Session.Accuracy)
	}
	s.queue.AssertNumberOfCalls(s.T(), "EnqueueLeaderboardRefresh", 1)

	rec, res = s.do(http.MethodGet, "/api/leaderboard", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var lb models.Leaderboard
	s.decode(res.Data, &lb)
	s.Require().Len(lb.Entries, 1)
	s.Equal(70, lb.Entries[0].Points)
	s.True(lb.Entries[0].IsCurrentUser)
	s.Equal(1, lb.CurrentUserRank)
	s.NotContains(string(res.Data), userID)

	rec, res = s.do(http.MethodGet, "/api/leaderboard/weekly", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var weekly struct {
		Entries []models.WeeklyEntry `json:"weeklyLeaderboard"`
	}
	s.decode(res.Data, &weekly)
	s.Require().Len(weekly.Entries, 1)
	s.Equal(70, weekly.Entries[0].WeeklyPoints)

	rec, res = s.do(http.MethodGet, "/api/leaderboard/stats", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var report models.UserStatsReport
	s.decode(res.Data, &report)
	s.Equal(1, report.Stats.TotalSessions)
	s.Equal(70, report.Stats.TotalPointsEarned)
	s.Require().Len(report.RecentActivity, 1)
	s.Equal(100, report.RecentActivity[0].Accuracy)

	rec, res = s.do(http.MethodGet, "/api/flashcards/decks/"+deck.ID+"/cards", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var dc models.DeckWithCards
	s.decode(res.Data, &dc)
	for _, c := range dc.Cards {
		s.Equal(1, c.TimesReviewed)
		s.Equal(1, c.CorrectAnswers)
	}
}

func (s *APISuite) TestCompleteSessionErrors() {
	ownerID, ownerToken := s.register("owner@example.com")
	_, otherToken := s.register("other@example.com")
	deck, _ := testutil.InsertDeck(s.T(), s.db, ownerID, models.Card{})

	rec, res := s.do(http.MethodPost, "/api/flashcards/decks/"+deck.ID+"/study-session", otherToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("DECK_NOT_FOUND", res.Error.Code)

	rec, res = s.do(http.MethodPost, "/api/flashcards/decks/"+deck.ID+"/study-session", ownerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var started models.StartedSession
	s.decode(res.Data, &started)
	path := "/api/flashcards/study-sessions/" + started.Session.ID + "/complete"

	rec, res = s.do(http.MethodPut, path, ownerToken, map[string]any{"cardsReviewed": 1})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)

	rec, res = s.do(http.MethodPut, path, ownerToken, map[string]any{"cardsReviewed": 1, "correctAnswers": 2})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)

	rec, res = s.do(http.MethodPut, path, ownerToken, map[string]any{"cardsReviewed": "many", "correctAnswers": 0})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)

	rec, res = s.do(http.MethodPut, path, ownerToken, map[string]any{"cardsReviewed": 1000000, "correctAnswers": 0})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)
	s.Contains(rec.Body.String(), "must be at most 1000")

	rec, res = s.do(http.MethodPut, path, ownerToken, map[string]any{"cardsReviewed": 2, "correctAnswers": 2})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)
	s.Contains(rec.Body.String(), "cardsReviewed")

	rec, res = s.do(http.MethodGet, "/api/auth/profile", ownerToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(string(res.Data), `"totalPoints":0`)

	rec, res = s.do(http.MethodPut, path, otherToken, map[string]any{"cardsReviewed": 1, "correctAnswers": 1})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("SESSION_NOT_FOUND", res.Error.Code)
}

func (s *APISuite) TestUpdateCard() {
	ownerID, ownerToken := s.register("cards@example.com")
	_, otherToken := s.register("snoop@example.com")
	_, cards := testutil.InsertDeck(s.T(), s.db, ownerID, models.Card{Question: "Old question?", Answer: "Old answer."})
	path := "/api/flashcards/cards/" + cards[0].ID

	rec, res := s.do(http.MethodPut, path, ownerToken, map[string]string{"answer": "  A better answer.  "})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Card models.Card `json:"card"`
	}
	s.decode(res.Data, &out)
	s.Equal("Old question?", out.Card.Question)
	s.Equal("A better answer.", out.Card.Answer)

	rec, res = s.do(http.MethodPut, path, ownerToken, map[string]string{"question": " "})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)

	rec, res = s.do(http.MethodPut, path, otherToken, map[string]string{"question": "Mine now?"})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("CARD_NOT_FOUND", res.Error.Code)
}

func (s *APISuite) TestDocumentUploadAndGenerate() {
	_, token := s.register("docs@example.com")

	rec, res := s.upload(token, "cells.txt", "text/plain", []byte(lecture))
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var uploaded struct {
		Document models.Document `json:"document"`
	}
	s.decode(res.Data, &uploaded)
	s.Equal("cells.txt", uploaded.Document.OriginalName)
	s.NotContains(string(res.Data), "extractedText")

	rec, res = s.do(http.MethodGet, "/api/documents", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(string(res.Data), uploaded.Document.ID)

	rec, res = s.do(http.MethodPost, "/api/documents/"+uploaded.Document.ID+"/generate-flashcards", token, map[string]int{"cardCount": 3})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var generated services.GenerateResult
	s.decode(res.Data, &generated)
	s.Equal(generation.SourceFallback, generated.Source)
	s.Equal("Flashcards from cells.txt", generated.Deck.Title)
	s.NotEmpty(generated.Flashcards)

	rec, res = s.do(http.MethodPost, "/api/documents/"+uploaded.Document.ID+"/generate-flashcards", token, map[string]int{"cardCount": 51})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", res.Error.Code)

	_, otherToken := s.register("thief@example.com")
	rec, res = s.do(http.MethodPost, "/api/documents/"+uploaded.Document.ID+"/generate-flashcards", otherToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("DOCUMENT_NOT_FOUND", res.Error.Code)
}

func (s *APISuite) TestUploadRejections() {
	_, token := s.register("rejects@example.com")

	rec, res := s.upload(token, "", "", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("NO_FILE", res.Error.Code)

	rec, res = s.upload(token, "slides.pptx", "application/vnd.ms-powerpoint", []byte(lecture))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("UNSUPPORTED_FILE_TYPE", res.Error.Code)

	rec, res = s.upload(token, "huge.txt", "text/plain", bytes.Repeat([]byte("a"), 1<<20+10))
	s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	s.Equal("FILE_TOO_LARGE", res.Error.Code)

	rec, res = s.upload(token, "short.txt", "text/plain", []byte("tiny"))
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("INSUFFICIENT_CONTENT", res.Error.Code)
}

func (s *APISuite) TestChat() {
	_, token := s.register("chat@example.com")

	rec, res := s.do(http.MethodGet, "/api/chat/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(string(res.Data), `"status":"unavailable"`)

	rec, res = s.do(http.MethodPost, "/api/chat/message", token, map[string]string{"message": "hi"})
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("SERVICE_UNAVAILABLE", res.Error.Code)

	s.ai = new(mocks.MockAIClient)
	s.ai.On("Configured").Return(true)
	s.ai.On("Complete", mock.Anything, mock.Anything).Return("Use active recall.", nil)
	s.build(func(*Server) {})

	rec, res = s.do(http.MethodPost, "/api/chat/message", token, map[string]any{
		"message":             "How should I study?",
		"conversationHistory": []map[string]string{{"role": "user", "content": "hello"}, {"role": "assistant", "content": "hi!"}},
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Contains(string(res.Data), "Use active recall.")

	rec, _ = s.do(http.MethodPost, "/api/chat/message", "", map[string]string{"message": "hi"})
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *APISuite) TestAuthRateLimit() {
	s.build(func(srv *Server) { srv.AuthRateLimitMax = 2 })
	creds := map[string]string{"email": "x@example.com", "password": "whatever"}

	for i := 0; i < 2; i++ {
		rec, _ := s.do(http.MethodPost, "/api/auth/login", "", creds)
		s.Equal(http.StatusUnauthorized, rec.Code)
	}
	rec, res := s.do(http.MethodPost, "/api/auth/login", "", creds)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal("RATE_LIMIT_EXCEEDED", res.Error.Code)
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func (s *APISuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	s.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}
