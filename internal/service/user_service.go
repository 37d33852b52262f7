package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/logger"
)

// UserStore is the durable user collection.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	SetPassword(ctx context.Context, id int64, hash string) error
	SetResetOTP(ctx context.Context, id int64, otp string, expires time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.User, error)
}

const otpTTL = 10 * time.Minute

// UserService handles account lifecycle: registration, login, profile
// updates and password flows.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "":
		return nil, domain.Missing("username")
	case email == "":
		return nil, domain.Missing("email")
	case len(password) < 6:
		return nil, &domain.ValidationError{Msg: "password must be at least 6 characters"}
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username: username,
		Email:    email,
		Password: hash,
		Role:     domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a session token.
func (s *UserService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !VerifyPassword(password, u.Password) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// List returns every user. Admin only.
func (s *UserService) List(ctx context.Context, p domain.Principal) ([]*domain.User, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.users.List(ctx)
}

// ProfilePatch carries partial profile updates; empty fields keep their
// previous values.
type ProfilePatch struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Image    string `json:"image"`
}

// UpdateProfile applies a patch to the given user. Self only.
func (s *UserService) UpdateProfile(ctx context.Context, p domain.Principal, userID int64, patch ProfilePatch) (*domain.User, error) {
	if p.ID != userID {
		return nil, domain.ErrForbidden
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(patch.Username); v != "" {
		u.Username = v
	}
	if v := strings.TrimSpace(patch.Email); v != "" {
		u.Email = v
	}
	if v := strings.TrimSpace(patch.Image); v != "" {
		u.Image = v
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetImage records an uploaded image URI on the principal's profile.
func (s *UserService) SetImage(ctx context.Context, p domain.Principal, uri string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	u.Image = uri
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user account. Admin only.
func (s *UserService) Delete(ctx context.Context, p domain.Principal, userID int64) error {
	if !p.IsAdmin() {
		return domain.ErrForbidden
	}
	return s.users.Delete(ctx, userID)
}

// UpdatePassword verifies the current password before storing a new hash.
func (s *UserService) UpdatePassword(ctx context.Context, p domain.Principal, current, next string) error {
	u, err := s.users.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}

	if !VerifyPassword(current, u.Password) {
		return domain.ErrInvalidCredentials
	}
	if len(next) < 6 {
		return &domain.ValidationError{Msg: "password must be at least 6 characters"}
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, u.ID, hash)
}

// SendOTP generates a reset code and stores it with an expiry. Delivery is
// handled outside this service; the code is logged for the operator and
// never returned over the wire.
func (s *UserService) SendOTP(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return err
	}

	if err := s.users.SetResetOTP(ctx, u.ID, otp, time.Now().Add(otpTTL)); err != nil {
		return err
	}

	logger.Info("password reset otp issued", "user_id", u.ID)
	return nil
}

// ResetPassword exchanges a valid OTP for a new password.
func (s *UserService) ResetPassword(ctx context.Context, email, otp, next string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if u.ResetOTP == "" || u.ResetOTP != otp {
		return domain.ErrInvalidOTP
	}
	if u.ExpiresAt == nil || time.Now().After(*u.ExpiresAt) {
		return domain.ErrInvalidOTP
	}
	if len(next) < 6 {
		return &domain.ValidationError{Msg: "password must be at least 6 characters"}
	}

	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.users.SetPassword(ctx, u.ID, hash)
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
