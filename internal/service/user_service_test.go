package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"taskboard/internal/domain"
)

// memUserStore mirrors the repository's behavior: emails are stored
// lowercased and must be unique.
type memUserStore struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*domain.User)}
}

func (s *memUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memUserStore) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == email {
			return domain.ErrEmailTaken
		}
	}
	s.seq++
	u.ID = s.seq
	u.Email = email
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return domain.ErrNotFound
	}
	u.Email = strings.ToLower(u.Email)
	u.UpdatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUserStore) SetPassword(_ context.Context, id int64, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.Password = hash
	u.ResetOTP = ""
	u.ExpiresAt = nil
	return nil
}

func (s *memUserStore) SetResetOTP(_ context.Context, id int64, otp string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.ResetOTP = otp
	u.ExpiresAt = &expires
	return nil
}

func (s *memUserStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) List(_ context.Context) ([]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*domain.User
	for _, u := range s.users {
		cp := *u
		res = append(res, &cp)
	}
	return res, nil
}

func TestRegisterAndLogin(t *testing.T) {
	initTestJWT(t)
	store := newMemUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "Alice@Example.COM", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q; want lowercased", u.Email)
	}
	if u.Role != domain.RoleUser {
		t.Errorf("role = %q; want user", u.Role)
	}
	if u.Password == "secret123" {
		t.Error("password stored in plaintext")
	}

	// duplicate email, any casing
	if _, err := svc.Register(ctx, "alice2", "ALICE@example.com", "secret123"); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("duplicate register = %v; want ErrEmailTaken", err)
	}

	logged, token, err := svc.Login(ctx, "alice@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if logged.ID != u.ID {
		t.Errorf("logged in as id %d; want %d", logged.ID, u.ID)
	}

	userID, role, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if userID != u.ID || role != domain.RoleUser {
		t.Errorf("token claims = (%d, %q); want (%d, user)", userID, role, u.ID)
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password login = %v; want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "secret123"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email login = %v; want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	cases := []struct {
		name, username, email, password string
	}{
		{"missing username", "", "a@b.c", "secret123"},
		{"missing email", "alice", "", "secret123"},
		{"short password", "alice", "a@b.c", "12345"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Register = %v; want ValidationError", err)
			}
		})
	}
}

func TestUpdateProfileSelfOnly(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "a@b.c", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	self := domain.Principal{ID: u.ID, Role: domain.RoleUser}
	other := domain.Principal{ID: u.ID + 1, Role: domain.RoleUser}

	if _, err := svc.UpdateProfile(ctx, other, u.ID, ProfilePatch{Username: "mallory"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("update by other = %v; want ErrForbidden", err)
	}

	got, err := svc.UpdateProfile(ctx, self, u.ID, ProfilePatch{Username: "alice2"})
	if err != nil {
		t.Fatalf("UpdateProfile failed: %v", err)
	}
	if got.Username != "alice2" {
		t.Errorf("username = %q; want alice2", got.Username)
	}
	// empty patch fields keep previous values
	if got.Email != "a@b.c" {
		t.Errorf("email changed by empty patch field: %q", got.Email)
	}
}

func TestUpdatePassword(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "a@b.c", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	p := domain.Principal{ID: u.ID, Role: domain.RoleUser}

	if err := svc.UpdatePassword(ctx, p, "wrong", "newsecret"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("UpdatePassword with wrong current = %v; want ErrInvalidCredentials", err)
	}

	if err := svc.UpdatePassword(ctx, p, "secret123", "newsecret"); err != nil {
		t.Fatalf("UpdatePassword failed: %v", err)
	}

	stored, _ := store.GetByID(ctx, u.ID)
	if !VerifyPassword("newsecret", stored.Password) {
		t.Error("new password not stored")
	}
	if VerifyPassword("secret123", stored.Password) {
		t.Error("old password still verifies")
	}
}

func TestOTPResetFlow(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "a@b.c", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := svc.SendOTP(ctx, "a@b.c"); err != nil {
		t.Fatalf("SendOTP failed: %v", err)
	}

	stored, _ := store.GetByID(ctx, u.ID)
	if len(stored.ResetOTP) != 6 {
		t.Fatalf("otp = %q; want 6 digits", stored.ResetOTP)
	}

	if err := svc.ResetPassword(ctx, "a@b.c", "000000x", "newsecret"); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("wrong otp = %v; want ErrInvalidOTP", err)
	}

	if err := svc.ResetPassword(ctx, "a@b.c", stored.ResetOTP, "newsecret"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	after, _ := store.GetByID(ctx, u.ID)
	if !VerifyPassword("newsecret", after.Password) {
		t.Error("password not reset")
	}
	if after.ResetOTP != "" {
		t.Error("otp not cleared after reset")
	}

	// a consumed otp cannot be replayed
	if err := svc.ResetPassword(ctx, "a@b.c", stored.ResetOTP, "another1"); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("replayed otp = %v; want ErrInvalidOTP", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	store := newMemUserStore()
	svc := NewUserService(store)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "a@b.c", "secret123")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	expired := time.Now().Add(-time.Minute)
	if err := store.SetResetOTP(ctx, u.ID, "123456", expired); err != nil {
		t.Fatalf("SetResetOTP failed: %v", err)
	}

	if err := svc.ResetPassword(ctx, "a@b.c", "123456", "newsecret"); !errors.Is(err, domain.ErrInvalidOTP) {
		t.Fatalf("expired otp = %v; want ErrInvalidOTP", err)
	}
}
