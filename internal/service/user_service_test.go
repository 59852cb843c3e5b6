package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mentor-chat/internal/domain"
)

type mockUserRepo struct {
	byEmail map[string]domain.User
}

func (m *mockUserRepo) Create(_ context.Context, _ domain.User) error { return nil }

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, errors.New("user not found")
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return domain.User{}, errors.New("user not found")
	}
	return u, nil
}

func TestLoginSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &mockUserRepo{byEmail: map[string]domain.User{
		"ana@test.com": {ID: "u1", Email: "ana@test.com", PasswordHash: string(hash)},
	}}
	svc := NewUserService(zap.NewNop(), repo)

	user, err := svc.Login(context.Background(), "  Ana@Test.com ", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("expected u1, got %q", user.ID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	repo := &mockUserRepo{byEmail: map[string]domain.User{
		"ana@test.com": {ID: "u1", Email: "ana@test.com", PasswordHash: string(hash)},
	}}
	svc := NewUserService(zap.NewNop(), repo)

	if _, err := svc.Login(context.Background(), "ana@test.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewUserService(zap.NewNop(), &mockUserRepo{byEmail: map[string]domain.User{}})

	if _, err := svc.Login(context.Background(), "nadie@test.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginEmptyInput(t *testing.T) {
	svc := NewUserService(zap.NewNop(), &mockUserRepo{byEmail: map[string]domain.User{}})

	if _, err := svc.Login(context.Background(), "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
