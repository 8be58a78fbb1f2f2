package services

import (
	"context"
	"errors"
	"testing"

	"github.com/crownstage/pageant-system/models"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		FirstName: "Dana",
		Email:     "dana@example.com",
		Password:  "correct-horse",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != models.RoleHost {
		t.Errorf("default role = %s, want host", user.Role)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}

	logged, err := svc.Login(ctx, LoginInput{Email: "dana@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("logged in as %d, want %d", logged.ID, user.ID)
	}
	if logged.PasswordHash != "" {
		t.Error("password hash leaked in login response")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "short"}); !errors.Is(err, ErrPasswordTooShort) {
		t.Errorf("short password err = %v, want ErrPasswordTooShort", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{FirstName: "A", Email: "dup@example.com", Password: "long-enough"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Register(ctx, RegisterInput{FirstName: "B", Email: "dup@example.com", Password: "long-enough"}); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("duplicate email err = %v, want ErrUserEmailConflict", err)
	}
}

func TestRegisterUnknownRoleFallsBack(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Eve",
		Email:     "eve@example.com",
		Password:  "long-enough",
		Role:      "superuser",
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.Role != models.RoleHost {
		t.Errorf("unknown role mapped to %s, want host", user.Role)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}

	if _, err := svc.Register(ctx, RegisterInput{FirstName: "F", Email: "f@example.com", Password: "long-enough"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Login(ctx, LoginInput{Email: "f@example.com", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
}
