package auth

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndLogin(t *testing.T) {
	s := NewUserStore()
	user, err := s.Register(validForm())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Role != "customer" {
		t.Errorf("expected customer role, got %q", user.Role)
	}
	if user.Phone != "+46701234567" {
		t.Errorf("expected normalized phone, got %q", user.Phone)
	}

	if _, err := s.Login("breezefan", "windy1234"); err != nil {
		t.Errorf("expected login to succeed, got %v", err)
	}
	if _, err := s.Login("breezefan", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := s.Login("nobody", "windy1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	s := NewUserStore()
	if _, err := s.Register(validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	form := validForm()
	form.Email = "other@example.com"
	if _, err := s.Register(form); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}

	form = validForm()
	form.Username = "other"
	if _, err := s.Register(form); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAvailabilityIsCaseInsensitive(t *testing.T) {
	s := NewUserStore()
	if _, err := s.Register(validForm()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if free, _ := s.UsernameAvailable(ctx, "BreezeFan"); free {
		t.Error("expected username taken regardless of case")
	}
	if free, _ := s.EmailAvailable(ctx, "BREEZE@example.com"); free {
		t.Error("expected email taken regardless of case")
	}
	if free, _ := s.UsernameAvailable(ctx, "someoneelse"); !free {
		t.Error("expected unused username available")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-key"))
	token, err := issuer.CreateToken("breezefan", "Breeze Fan", "customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.ParseToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims["username"] != "breezefan" || claims["role"] != "customer" {
		t.Errorf("unexpected claims: %v", claims)
	}
}

func TestTokenRejectsWrongKey(t *testing.T) {
	token, err := NewTokenIssuer([]byte("key-a")).CreateToken("u", "n", "customer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewTokenIssuer([]byte("key-b")).ParseToken(token); err == nil {
		t.Error("expected parse failure with the wrong key")
	}
}
