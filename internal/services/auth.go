package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/labelbridge-backend/internal/data/repos/session"
	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/labelbridge-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/labelbridge-backend/internal/pkg/errors"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
	"github.com/yungbote/labelbridge-backend/internal/platform/apierr"
)

// Credential is one entry of the credential book.
type Credential struct {
	Username     string
	Name         string
	PasswordHash string
	Role         domlabel.Role
}

type JWTClaims struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	AccessToken string        `json:"access_token"`
	ExpiresAt   time.Time     `json:"expires_at"`
	Username    string        `json:"username"`
	DisplayName string        `json:"display_name"`
	Role        domlabel.Role `json:"role"`
	SessionID   string        `json:"session_id"`
}

// SessionLifecycle is notified when sessions begin and end.
type SessionLifecycle interface {
	StartSession(dbc dbctx.Context, st *domlabel.SessionState) error
	EndSession(dbc dbctx.Context, sessionID string) error
}

type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log          *logger.Logger
	credentials  map[string]Credential
	sessions     session.Store
	lifecycle    SessionLifecycle
	jwtSecretKey string
	accessTTL    time.Duration
	now          func() time.Time
}

func NewAuthService(
	log *logger.Logger,
	credentials []Credential,
	sessions session.Store,
	lifecycle SessionLifecycle,
	jwtSecretKey string,
	accessTTL time.Duration,
) (AuthService, error) {
	serviceLog := log.With("service", "AuthService")
	if strings.TrimSpace(jwtSecretKey) == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	if accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	book := make(map[string]Credential, len(credentials))
	for _, c := range credentials {
		username := strings.TrimSpace(c.Username)
		if username == "" {
			return nil, fmt.Errorf("credential with empty username")
		}
		if _, ok := domlabel.ParseRole(string(c.Role)); !ok {
			return nil, fmt.Errorf("credential %s: unknown role %q", username, c.Role)
		}
		if _, dup := book[username]; dup {
			return nil, fmt.Errorf("credential %s defined twice", username)
		}
		book[username] = c
	}
	return &authService{
		log:          serviceLog,
		credentials:  book,
		sessions:     sessions,
		lifecycle:    lifecycle,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
		now:          time.Now,
	}, nil
}

func (as *authService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apierr.New(http.StatusBadRequest, "invalid_request", fmt.Errorf("username and password are required: %w", pkgerrors.ErrInvalidArgument))
	}
	cred, ok := as.credentials[username]
	if !ok {
		as.log.Warn("Login rejected", "username", username, "reason", "unknown_user")
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", pkgerrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		as.log.Warn("Login rejected", "username", username, "reason", "bad_password")
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", pkgerrors.ErrUnauthorized)
	}
	role, _ := domlabel.ParseRole(string(cred.Role))
	name := cred.Name
	if strings.TrimSpace(name) == "" {
		name = username
	}

	sessionID := uuid.NewString()
	st := &domlabel.SessionState{
		SessionID:   sessionID,
		Username:    username,
		DisplayName: name,
		Role:        role,
	}
	if err := as.lifecycle.StartSession(dbctx.Context{Ctx: ctx}, st); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "session_failed", err)
	}

	now := as.now()
	expiresAt := now.Add(as.accessTTL)
	claims := JWTClaims{
		Name:      name,
		Role:      string(role),
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	as.log.Info("Login succeeded", "username", username, "role", role, "session_id", sessionID)
	return &LoginResult{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Username:    username,
		DisplayName: name,
		Role:        role,
		SessionID:   sessionID,
	}, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.SessionID == "" {
		as.log.Warn("No request data found in context")
		return apierr.New(http.StatusUnauthorized, "unauthorized", pkgerrors.ErrUnauthorized)
	}
	if err := as.lifecycle.EndSession(dbctx.Context{Ctx: ctx}, rd.SessionID); err != nil {
		return apierr.New(http.StatusInternalServerError, "session_failed", err)
	}
	return nil
}

// SetContextFromToken validates the token and requires its session to still exist.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token: %w", pkgerrors.ErrUnauthorized)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %v: %w", err, pkgerrors.ErrUnauthorized)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.SessionID == "" {
		return ctx, fmt.Errorf("invalid or expired token: %w", pkgerrors.ErrUnauthorized)
	}
	st, err := as.sessions.Get(dbctx.Context{Ctx: ctx}, claims.SessionID)
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if st == nil || st.Username != claims.Subject {
		return ctx, fmt.Errorf("session ended: %w", pkgerrors.ErrUnauthorized)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		Username:    claims.Subject,
		DisplayName: claims.Name,
		Role:        claims.Role,
		SessionID:   claims.SessionID,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// HashPassword produces the bcrypt hash stored in the credential book.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required: %w", pkgerrors.ErrInvalidArgument)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
