package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/vytor/flashgenius/internal/auth"
	"github.com/vytor/flashgenius/internal/errors"
	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

const minPasswordLength = 6

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService handles accounts and bearer tokens
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	Profile(ctx context.Context, userID string) (*models.User, error)
	// Authenticate resolves a bearer token to its user.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	tokens   auth.TokenManager
	validate *validator.Validate
	now      func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens auth.TokenManager) AuthService {
	return &authService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		validate: validator.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	log := logger.FromContext(ctx)
	email := normalizeEmail(in.Email)
	firstName := strings.TrimSpace(in.FirstName)
	lastName := strings.TrimSpace(in.LastName)
	log.Debug("registering user: email=%s", email)

	var fieldErrs []errors.FieldError
	if err := s.validate.Var(email, "required,email"); err != nil {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "email", Reason: "must be a valid email address"})
	}
	if len(in.Password) < minPasswordLength {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "password", Reason: "must be at least 6 characters"})
	}
	if firstName == "" {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "firstName", Reason: "is required"})
	}
	if lastName == "" {
		fieldErrs = append(fieldErrs, errors.FieldError{Field: "lastName", Reason: "is required"})
	}
	if len(fieldErrs) > 0 {
		return nil, errors.NewValidationErrors(fieldErrs)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password: %v", err)
		return nil, errors.NewInternalError(err)
	}

	now := s.now()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.NewConflictError(errors.ErrCodeUserExists, "user with this email already exists")
		}
		log.Error("failed to insert user: %v", err)
		return nil, errors.NewInternalError(err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue token: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("user registered: user_id=%s", user.ID)
	return &AuthResult{User: &user, Token: token}, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContext(ctx)
	email = normalizeEmail(email)
	log.Debug("login attempt: email=%s", email)

	invalid := errors.NewUnauthorizedError(errors.ErrCodeInvalidCredentials, "invalid email or password")
	if email == "" || password == "" {
		return nil, invalid
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		log.Error("failed to look up user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, invalid
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		log.Error("failed to compare password: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if !ok {
		return nil, invalid
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		log.Error("failed to issue token: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("user logged in: user_id=%s", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, errors.NewNotFoundError("user", userID)
	}
	return user, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	log := logger.FromContext(ctx)

	userID, err := s.tokens.Verify(token)
	if err != nil {
		log.Debug("token rejected: %v", err)
		return nil, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "invalid or expired token")
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		log.Error("failed to load token user: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if user == nil {
		return nil, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "invalid or expired token")
	}
	return user, nil
}
