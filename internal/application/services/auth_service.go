package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/weekplanner/core/internal/domain/entities"
	"github.com/weekplanner/core/internal/infrastructure/config"
	"github.com/weekplanner/core/internal/infrastructure/logger"
	"github.com/weekplanner/core/internal/ports"
)

// AuthService implements both authentication strategies: email/password
// accounts on the remote backend and the single PIN of the local backend.
// Either repository set may be nil; the corresponding strategy then reports
// entities.ErrUnauthorized.
type AuthService struct {
	userRepo  ports.UserRepository
	authRepo  ports.AuthRepository
	credRepo  ports.CredentialRepository
	jwtConfig config.JWTConfig
	validator *validator.Validate
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo ports.UserRepository,
	authRepo ports.AuthRepository,
	credRepo ports.CredentialRepository,
	jwtConfig config.JWTConfig,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		authRepo:  authRepo,
		credRepo:  credRepo,
		jwtConfig: jwtConfig,
		validator: validator.New(),
		logger:    log,
	}
}

type tokenClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Register creates an email/password account and signs it in.
func (s *AuthService) Register(ctx context.Context, req ports.RegisterRequest) (*ports.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if s.userRepo == nil {
		return nil, entities.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Infow("user registered", "user_id", user.ID, "email", user.Email)
	return s.issueTokens(ctx, user)
}

// Login authenticates an email/password account.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if s.userRepo == nil {
		return nil, entities.ErrUnauthorized
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil, entities.ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.LogSecurityEvent("login_failed", user.ID.String(), "", nil)
		return nil, entities.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// SetupPIN stores the local backend's PIN. An existing PIN can only be
// replaced by a caller who presents it.
func (s *AuthService) SetupPIN(ctx context.Context, req ports.PINSetupRequest, current string) error {
	if err := s.validator.Struct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if s.credRepo == nil {
		return entities.ErrUnauthorized
	}

	stored, err := s.credRepo.GetPINHash(ctx)
	switch {
	case errors.Is(err, entities.ErrPINNotSet):
		// First-time setup needs no current PIN.
	case err != nil:
		return err
	case stored != hashPIN(current):
		s.logger.LogSecurityEvent("pin_change_rejected", "", "", nil)
		return entities.ErrInvalidCredentials
	}

	if err := s.credRepo.SetPINHash(ctx, hashPIN(req.PIN)); err != nil {
		return err
	}

	s.logger.Infow("pin configured")
	return nil
}

// LoginPIN authenticates against the stored PIN. The principal id is derived
// from the PIN hash, so the session survives restarts but not a PIN change.
func (s *AuthService) LoginPIN(ctx context.Context, req ports.PINLoginRequest) (*ports.AuthResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if s.credRepo == nil {
		return nil, entities.ErrUnauthorized
	}

	stored, err := s.credRepo.GetPINHash(ctx)
	if err != nil {
		return nil, err
	}
	if stored != hashPIN(req.PIN) {
		s.logger.LogSecurityEvent("pin_login_failed", "", "", nil)
		return nil, entities.ErrInvalidCredentials
	}

	principal := uuid.NewSHA1(uuid.NameSpaceOID, []byte(stored))
	access, err := s.signAccessToken(principal.String(), "")
	if err != nil {
		return nil, err
	}

	return &ports.AuthResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtConfig.ExpiresIn.Seconds()),
	}, nil
}

// Refresh exchanges a valid refresh token for a new token pair, rotating the
// old one out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResponse, error) {
	if s.authRepo == nil || s.userRepo == nil {
		return nil, entities.ErrUnauthorized
	}

	stored, err := s.authRepo.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, entities.ErrUnauthorized
	}
	if !stored.IsValid() {
		return nil, entities.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, entities.ErrUnauthorized
	}

	if err := s.authRepo.RevokeRefreshToken(ctx, stored.TokenHash); err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes every refresh token of the principal.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	if s.authRepo == nil {
		return nil
	}
	return s.authRepo.RevokeAllUserTokens(ctx, userID)
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, entities.ErrUnauthorized
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return nil, entities.ErrUnauthorized
	}

	return &ports.Claims{UserID: claims.Subject, Email: claims.Email}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *entities.User) (*ports.AuthResponse, error) {
	access, err := s.signAccessToken(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	refresh, err := randomToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().UTC().Add(s.jwtConfig.RefreshExpiresIn)
	if err := s.authRepo.CreateRefreshToken(ctx, user.ID, hashToken(refresh), expiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &ports.AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtConfig.ExpiresIn.Seconds()),
		User:         user,
	}, nil
}

func (s *AuthService) signAccessToken(subject, email string) (string, error) {
	now := time.Now().UTC()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.ExpiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func hashPIN(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
