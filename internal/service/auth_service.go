package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"collab-events/internal/config"
	"collab-events/internal/domain"
	"collab-events/internal/store"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"

	revokedKeyPrefix = "revoked:"
)

// TokenClaims is the JWT payload. Subject carries the numeric user id.
type TokenClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *TokenClaims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Unauthenticated("invalid token subject")
	}
	return id, nil
}

// RegisterRequest account creation input. Role is a global role name and
// may be empty.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// AuthTokens is returned by Register and Login.
type AuthTokens struct {
	UserID       int64  `json:"user_id"`
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService issues and verifies bearer tokens. Logout revokes a token by
// its jti until the token's own expiry.
type AuthService struct {
	db         TxRunner
	repos      Repositories
	revoked    store.KV
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewAuthService(db TxRunner, repos Repositories, revoked store.KV, cfg config.AuthConfig, logger *zap.Logger) *AuthService {
	return &AuthService{
		db:         db,
		repos:      repos,
		revoked:    revoked,
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
		logger:     logger,
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthTokens, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return nil, domain.Validation("username, email and password are required")
	}
	role, err := canonicalRole(req.Role)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, domain.Storage("failed to hash password", err)
	}
	userID, err := s.repos.Users.CreateUser(ctx, s.db, req.Username, req.Email, string(hash), role)
	if err != nil {
		if domain.IsKind(err, domain.KindConflict) {
			return nil, domain.Conflict("User already exists", err)
		}
		return nil, err
	}
	s.logger.Info("User registered", zap.Int64("user_id", userID), zap.String("role", role))
	return s.issuePair(userID)
}

// Login accepts a username or an email as login.
func (s *AuthService) Login(ctx context.Context, login, password string) (*AuthTokens, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, domain.Validation("Missing login fields")
	}
	user, err := s.repos.Users.GetUserByLogin(ctx, s.db, login)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return nil, domain.NotFound("User not found")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("User login failed: wrong password", zap.Int64("user_id", user.ID))
		return nil, domain.Unauthenticated("Invalid password")
	}
	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return s.issuePair(user.ID)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.verify(ctx, refreshToken, TokenRefresh)
	if err != nil {
		return "", err
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", err
	}
	return s.sign(userID, TokenAccess, s.accessTTL)
}

// Logout revokes the presented token and, when given, the refresh token of
// the same user, so the pair cannot mint new access tokens.
func (s *AuthService) Logout(ctx context.Context, token, refreshToken string) error {
	claims, err := s.verify(ctx, token, "")
	if err != nil {
		return err
	}
	revoke := []*TokenClaims{claims}
	if refreshToken != "" {
		refresh, err := s.verify(ctx, refreshToken, TokenRefresh)
		if err != nil {
			return err
		}
		if refresh.Subject != claims.Subject {
			return domain.Unauthenticated("refresh token belongs to another user")
		}
		revoke = append(revoke, refresh)
	}
	for _, c := range revoke {
		if err := s.revoke(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// revoke blocks the token's jti until the token would expire anyway.
func (s *AuthService) revoke(ctx context.Context, claims *TokenClaims) error {
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKeyPrefix+claims.ID, claims.Subject, ttl); err != nil {
		return domain.Storage("failed to revoke token", err)
	}
	return nil
}

// Authenticate verifies an access token and returns the user id it carries.
func (s *AuthService) Authenticate(ctx context.Context, token string) (int64, error) {
	claims, err := s.verify(ctx, token, TokenAccess)
	if err != nil {
		return 0, err
	}
	return claims.UserID()
}

func (s *AuthService) issuePair(userID int64) (*AuthTokens, error) {
	access, err := s.sign(userID, TokenAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(userID, TokenRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{UserID: userID, AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) sign(userID int64, kind string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := TokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", domain.Storage("failed to sign token", err)
	}
	return signed, nil
}

// verify parses token, checks signature, expiry, kind (when wantKind is set)
// and the revocation list.
func (s *AuthService) verify(ctx context.Context, token, wantKind string) (*TokenClaims, error) {
	if token == "" {
		return nil, domain.Unauthenticated("missing token")
	}
	claims := &TokenClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.Unauthenticated("invalid or expired token")
	}
	if wantKind != "" && claims.Kind != wantKind {
		return nil, domain.Unauthenticated("wrong token type")
	}
	if claims.ExpiresAt == nil || claims.ID == "" {
		return nil, domain.Unauthenticated("invalid token claims")
	}

	_, err = s.revoked.Get(ctx, revokedKeyPrefix+claims.ID)
	switch {
	case err == nil:
		return nil, domain.Unauthenticated("token has been revoked")
	case errors.Is(err, store.ErrMiss):
		return claims, nil
	default:
		return nil, domain.Storage("failed to check token revocation", err)
	}
}

func canonicalRole(role string) (string, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return "", nil
	}
	for _, r := range []string{domain.RoleOwner, domain.RoleEditor, domain.RoleViewer} {
		if strings.EqualFold(r, role) {
			return r, nil
		}
	}
	return "", domain.Validation("unknown role %q", role)
}
