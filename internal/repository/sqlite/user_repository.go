package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vytor/flashgenius/internal/logger"
	"github.com/vytor/flashgenius/internal/models"
	"github.com/vytor/flashgenius/internal/repository"
)

const userColumns = `id, email, password_hash, first_name, last_name, total_points, current_streak, longest_streak, email_verified, created_at, updated_at`

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository implementation
func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Insert(ctx context.Context, u models.User) error {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("inserting user: id=%s", u.ID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.TotalPoints, u.CurrentStreak, u.LongestStreak, u.EmailVerified, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("user email already registered")
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
		log.Error("failed to insert user: %v", err)
		return err
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("getting user: id=%s", id)

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("user not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user: %v", err)
		return nil, err
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	log := logger.FromContext(ctx).WithPrefix("user_repo")

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get user by email: %v", err)
		return nil, err
	}
	return u, nil
}

// IncrementPoints adds delta in a single UPDATE so concurrent credits never lose updates.
func (r *userRepository) IncrementPoints(ctx context.Context, id string, delta int) error {
	log := logger.FromContext(ctx).WithPrefix("user_repo")
	log.Debug("incrementing points: id=%s, delta=%d", id, delta)

	if err := incrementPoints(ctx, r.db, id, delta, time.Now().UTC()); err != nil {
		log.Error("failed to increment points: %v", err)
		return err
	}
	return nil
}

// incrementPoints is shared with the session completion transaction.
func incrementPoints(ctx context.Context, ex execer, id string, delta int, at time.Time) error {
	res, err := ex.ExecContext(ctx, `UPDATE users SET total_points = total_points + ?, updated_at = ? WHERE id = ?`, delta, at, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.TotalPoints,
		&u.CurrentStreak, &u.LongestStreak, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
