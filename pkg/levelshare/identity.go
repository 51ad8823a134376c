package levelshare

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// IdentityService defines registration, credential verification, session
// issuance/verification and role management.
type IdentityService interface {
	// Register creates a new user with a salted bcrypt credential hash.
	Register(ctx context.Context, username, password string) (*User, error)
	// Login verifies credentials and returns a signed session.
	Login(ctx context.Context, username, password string) (*Session, error)
	// VerifySession validates a bearer token and resolves the actor identity.
	VerifySession(ctx context.Context, token string) (*Identity, error)
	// ElevateToAdmin grants the admin role to an authenticated user who
	// presents the server-held elevation key, and returns a fresh session
	// reflecting the new role. The old token stays valid until its natural
	// expiry; that staleness window is part of the contract.
	ElevateToAdmin(ctx context.Context, actor Identity, suppliedKey string) (*Session, error)
}

// IdentityConfig carries the secrets and policy for the identity service.
type IdentityConfig struct {
	SigningKey []byte        // HMAC key for session tokens
	AdminKey   []byte        // elevation secret compared in constant time
	TokenTTL   time.Duration // session lifetime, defaults to 30 days
}

// DefaultTokenTTL is the session lifetime used when IdentityConfig.TokenTTL
// is zero.
const DefaultTokenTTL = 30 * 24 * time.Hour

type identityService struct {
	repo     Repository
	signKey  []byte
	adminKey []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewIdentityService constructs an IdentityService backed by the given
// repository.
func NewIdentityService(repo Repository, cfg IdentityConfig) (IdentityService, error) {
	if repo == nil {
		return nil, errors.New("repository is required")
	}
	if len(cfg.SigningKey) == 0 {
		return nil, errors.New("signing key is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &identityService{
		repo:     repo,
		signKey:  cfg.SigningKey,
		adminKey: cfg.AdminKey,
		tokenTTL: ttl,
		logger:   slog.Default(),
	}, nil
}

// sessionClaims are the JWT claims carried by a session token.
type sessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (s *identityService) Register(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	// Fast path only: the repository's CreateUser constraint is authoritative.
	// The lookup just avoids hashing when the name is obviously taken.
	if _, err := s.repo.GetUserByUsername(ctx, username); err == nil {
		return nil, ErrDuplicateUsername
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:             uuid.New(),
		Username:       username,
		CredentialHash: string(hash),
		Role:           RoleUser,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, &UserError{Username: username, Op: "register", Err: err}
	}

	s.logger.Info("user registered", "username", username)
	return user, nil
}

func (s *identityService) Login(ctx context.Context, username, password string) (*Session, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.CredentialHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredential
	}

	return s.issueSession(user)
}

func (s *identityService) VerifySession(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signKey, nil
	})
	if err != nil || !parsed.Valid {
		// Malformed, expired and forged tokens all collapse into one error;
		// callers must not learn which.
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:   userID,
		Username: claims.Username,
		Role:     Role(claims.Role),
	}, nil
}

func (s *identityService) ElevateToAdmin(ctx context.Context, actor Identity, suppliedKey string) (*Session, error) {
	if actor.Username == "" {
		return nil, ErrMissingToken
	}
	if len(s.adminKey) == 0 ||
		subtle.ConstantTimeCompare([]byte(suppliedKey), s.adminKey) != 1 {
		return nil, ErrForbidden
	}

	if err := s.repo.UpdateUserRole(ctx, actor.Username, RoleAdmin); err != nil {
		return nil, &UserError{Username: actor.Username, Op: "elevate", Err: err}
	}

	user, err := s.repo.GetUserByUsername(ctx, actor.Username)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user elevated to admin", "username", actor.Username)
	return s.issueSession(user)
}

// issueSession creates a signed HS256 JWT for the given user.
func (s *identityService) issueSession(user *User) (*Session, error) {
	now := time.Now()
	exp := now.Add(s.tokenTTL)
	claims := sessionClaims{
		Username: user.Username,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}
	return &Session{
		Token:     signed,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: exp,
	}, nil
}
