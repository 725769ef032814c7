package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"gitshop/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, email, full_name, password_hash, role, phone_number, address, business_name, created_at`

func (r *UserRepo) one(ctx context.Context, q string, args ...any) (*domain.User, error) {
	var u domain.User
	err := get(ctx, r.DB, &u, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := exec(ctx, r.DB, `
		INSERT INTO users(`+userCols+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.FullName, u.Hash, u.Role, u.PhoneNumber, u.Address, u.BusinessName, u.CreatedAt)
	return err
}

// UpdateProfile rewrites the editable profile fields.
func (r *UserRepo) UpdateProfile(ctx context.Context, u *domain.User) error {
	_, err := exec(ctx, r.DB, `
		UPDATE users SET full_name = ?, phone_number = ?, address = ?, business_name = ?
		WHERE id = ?
	`, u.FullName, u.PhoneNumber, u.Address, u.BusinessName, u.ID)
	return err
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	out := []domain.User{}
	err := sel(ctx, r.DB, &out, `SELECT `+userCols+` FROM users ORDER BY created_at, email`)
	return out, err
}

func (r *UserRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	_, err := exec(ctx, r.DB, `
		INSERT INTO sessions(id, user_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	return err
}

// SessionUser resolves a non-expired session to its user.
func (r *UserRepo) SessionUser(ctx context.Context, sid string, at time.Time) (*domain.User, error) {
	return r.one(ctx, `
		SELECT u.id, u.email, u.full_name, u.password_hash, u.role, u.phone_number, u.address, u.business_name, u.created_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ? AND s.expires_at > ?
	`, sid, at)
}

func (r *UserRepo) DeleteSession(ctx context.Context, sid string) error {
	_, err := exec(ctx, r.DB, `DELETE FROM sessions WHERE id = ?`, sid)
	return err
}

// DeleteUserCascade removes the user with their sessions, cart and, for sellers,
// their products. Orders are kept for audit.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, userID string) error {
	return InTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, `DELETE FROM sessions WHERE user_id = ?`, userID); err != nil {
			return err
		}
		if err := NewCartRepo(r.DB).WithTx(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		if err := NewProductRepo(r.DB).WithTx(tx).DeleteBySeller(ctx, userID); err != nil {
			return err
		}
		if _, err := exec(ctx, tx, `DELETE FROM reviews WHERE user_id = ?`, userID); err != nil {
			return err
		}
		_, err := exec(ctx, tx, `DELETE FROM users WHERE id = ?`, userID)
		return err
	})
}
