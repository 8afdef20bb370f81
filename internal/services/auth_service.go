package services

import (
	"errors"
	"time"

	"github.com/Gupta12p/HouseListing/internal/domain"
	"github.com/Gupta12p/HouseListing/internal/repos"
	"github.com/Gupta12p/HouseListing/internal/validate"

	"github.com/google/uuid"
)

const DefaultSessionTTL = 7 * 24 * time.Hour

// Session is an issued login. Admin is the role hint callers use for routing.
type Session struct {
	ID        string
	User      *domain.User
	Admin     bool
	ExpiresAt time.Time
}

type AuthService struct {
	Users      *repos.UserRepo
	Hasher     *PasswordHasher
	SessionTTL time.Duration
}

func NewAuthService(users *repos.UserRepo, hasher *PasswordHasher, ttl time.Duration) *AuthService {
	if hasher == nil {
		hasher = NewPasswordHasher(SchemePBKDF2)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &AuthService{Users: users, Hasher: hasher, SessionTTL: ttl}
}

// Register creates a regular account and logs it in.
func (s *AuthService) Register(name, email, password string) (*Session, error) {
	name, ok := validate.Name(name)
	if !ok {
		return nil, invalid("name", "must be 1-100 characters")
	}
	email, ok = validate.Email(email)
	if !ok {
		return nil, invalid("email", "must be a valid email address")
	}
	if !validate.Password(password) {
		return nil, invalid("password", "must be 8-72 characters")
	}

	if _, err := s.Users.ByEmail(email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repos.ErrNotFound) {
		return nil, err
	}

	u, err := s.createUser(name, email, password, false)
	if err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Login checks credentials and issues a fresh session.
func (s *AuthService) Login(email, password string) (*Session, error) {
	u, err := s.Users.ByEmail(email)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrUnknownEmail
	}
	if err != nil {
		return nil, err
	}
	if !s.Hasher.Verify(u.Hash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) Logout(sid string) error {
	if sid == "" {
		return nil
	}
	return s.Users.DeleteSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrUnauthenticated
	}
	u, err := s.Users.SessionUser(sid, domain.Now())
	if errors.Is(err, repos.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return u, err
}

// RequireAuthenticated resolves sid or fails with ErrUnauthenticated.
func (s *AuthService) RequireAuthenticated(sid string) (*domain.User, error) {
	u, err := s.CurrentUser(sid)
	if err != nil || u == nil {
		return nil, ErrUnauthenticated
	}
	return u, nil
}

// RequireAdmin denies unless the session resolves to a user whose is_admin is set.
func (s *AuthService) RequireAdmin(sid string) (*domain.User, error) {
	u, err := s.RequireAuthenticated(sid)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, ErrForbidden
	}
	return u, nil
}

// EnsureAdmin creates the configured administrator if no account uses email.
// It reports whether an account was created.
func (s *AuthService) EnsureAdmin(name, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	_, err := s.Users.ByEmail(email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repos.ErrNotFound) {
		return false, err
	}
	if name == "" {
		name = "admin"
	}
	if _, err := s.createUser(name, email, password, true); err != nil {
		return false, err
	}
	return true, nil
}

// PurgeExpired drops expired sessions.
func (s *AuthService) PurgeExpired() (int64, error) {
	return s.Users.DeleteExpiredSessions(domain.Now())
}

func (s *AuthService) createUser(name, email, password string, admin bool) (*domain.User, error) {
	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Name: name, Email: email, Hash: hash, IsAdmin: admin}
	if err := s.Users.Create(u); err != nil {
		// Lost a race with a concurrent registration for the same email.
		if errors.Is(err, repos.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return u, nil
}

func (s *AuthService) issue(u *domain.User) (*Session, error) {
	now := time.Now()
	exp := now.Add(s.SessionTTL)
	sess := domain.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		CreatedAt: domain.Stamp(now),
		ExpiresAt: domain.Stamp(exp),
	}
	if err := s.Users.CreateSession(sess); err != nil {
		return nil, err
	}
	return &Session{ID: sess.ID, User: u, Admin: u.IsAdmin, ExpiresAt: exp}, nil
}
