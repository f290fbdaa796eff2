package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Hash     []byte `json:"-"`
}

// UserStore is the registered user set. It doubles as the availability
// checker the OTP flow consults before issuing a code.
type UserStore struct {
	mu      sync.RWMutex
	byName  map[string]*User
	byEmail map[string]*User
}

func NewUserStore() *UserStore {
	return &UserStore{
		byName:  map[string]*User{},
		byEmail: map[string]*User{},
	}
}

func (s *UserStore) UsernameAvailable(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, taken := s.byName[strings.ToLower(username)]
	return !taken, nil
}

func (s *UserStore) EmailAvailable(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, taken := s.byEmail[strings.ToLower(email)]
	return !taken, nil
}

// Register creates the user after a verified OTP flow. Availability is
// re-checked here, the flow's earlier check was advisory.
func (s *UserStore) Register(form Form) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		Username: form.Username,
		Email:    form.Email,
		Phone:    NormalizePhone(form.Phone),
		Role:     "customer",
		Hash:     hash,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	nameKey := strings.ToLower(form.Username)
	emailKey := strings.ToLower(form.Email)
	if _, taken := s.byName[nameKey]; taken {
		return nil, ErrUsernameTaken
	}
	if _, taken := s.byEmail[emailKey]; taken {
		return nil, ErrEmailTaken
	}
	s.byName[nameKey] = user
	s.byEmail[emailKey] = user
	return user, nil
}

func (s *UserStore) Login(username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.byName[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(user.Hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
