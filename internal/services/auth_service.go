package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gitshop/internal/domain"
	"gitshop/internal/repos"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users      *repos.UserRepo
	SessionTTL time.Duration
}

func NewAuthService(users *repos.UserRepo, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthService{Users: users, SessionTTL: ttl}
}

type Signup struct {
	Email        string      `json:"email"`
	Password     string      `json:"password"`
	FullName     string      `json:"full_name"`
	Role         domain.Role `json:"role"`
	PhoneNumber  *string     `json:"phone_number,omitempty"`
	Address      *string     `json:"address,omitempty"`
	BusinessName *string     `json:"business_name,omitempty"`
}

// Profile holds the fields a user may change about themselves.
type Profile struct {
	FullName     string  `json:"full_name"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
	Address      *string `json:"address,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
}

// Register creates a consumer or seller account. Admins are never self-assigned.
func (s *AuthService) Register(ctx context.Context, in Signup) (*domain.User, error) {
	role := in.Role
	if role == "" {
		role = domain.RoleConsumer
	}
	if !role.Valid() || role == domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		Hash:         string(h),
		Role:         role,
		PhoneNumber:  in.PhoneNumber,
		Address:      in.Address,
		BusinessName: in.BusinessName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks credentials and opens a session; the returned token is the session id.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, "", domain.ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", domain.ErrBadCreds
	}
	now := time.Now().UTC()
	sess := &domain.Session{ID: uuid.NewString(), UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(s.SessionTTL)}
	if err := s.Users.CreateSession(ctx, sess); err != nil {
		return nil, "", err
	}
	return u, sess.ID, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.DeleteSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	if sid == "" {
		return nil, domain.ErrUnauthenticated
	}
	u, err := s.Users.SessionUser(ctx, sid, time.Now().UTC())
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	return u, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, u *domain.User, p Profile) (*domain.User, error) {
	if name := strings.TrimSpace(p.FullName); name != "" {
		u.FullName = name
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = p.PhoneNumber
	}
	if p.Address != nil {
		u.Address = p.Address
	}
	if p.BusinessName != nil {
		u.BusinessName = p.BusinessName
	}
	if err := s.Users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.Users.DeleteUserCascade(ctx, userID)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}
