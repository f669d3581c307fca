package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
	pkgerrors "github.com/yungbote/labelbridge-backend/internal/pkg/errors"
	"github.com/yungbote/labelbridge-backend/internal/pkg/logger"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

type fakeAuth struct {
	tokens map[string]*ctxutil.RequestData
	err    error
}

func (f *fakeAuth) Login(context.Context, string, string) (*services.LoginResult, error) {
	return nil, errors.New("not used")
}

func (f *fakeAuth) Logout(context.Context) error { return nil }

func (f *fakeAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	if f.err != nil {
		return ctx, f.err
	}
	rd, ok := f.tokens[token]
	if !ok {
		return ctx, fmt.Errorf("unknown token: %w", pkgerrors.ErrUnauthorized)
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (f *fakeAuth) GetAccessTTL() time.Duration { return time.Hour }

func newGuardedRouter(auth services.AuthService, roles ...domlabel.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	am := NewAuthMiddleware(logger.Nop(), auth)
	handlers := []gin.HandlerFunc{am.RequireAuth()}
	if len(roles) > 0 {
		handlers = append(handlers, RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.String(http.StatusOK, rd.Username)
	})
	r.GET("/guarded", handlers...)
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]*ctxutil.RequestData{
		"good": {Username: "ana", Role: "annotator", SessionID: "s1"},
	}}
	r := newGuardedRouter(auth)

	if rec := doGet(r, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got=%d", rec.Code)
	}
	if rec := doGet(r, "bad"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got=%d", rec.Code)
	}
	rec := doGet(r, "good")
	if rec.Code != http.StatusOK || rec.Body.String() != "ana" {
		t.Fatalf("good token: got=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestRequireAuthStoreFailureIs500(t *testing.T) {
	r := newGuardedRouter(&fakeAuth{err: errors.New("redis down")})
	if rec := doGet(r, "any"); rec.Code != http.StatusInternalServerError {
		t.Fatalf("got=%d want=500", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	auth := &fakeAuth{tokens: map[string]*ctxutil.RequestData{
		"ann":   {Username: "ana", Role: "annotator", SessionID: "s1"},
		"rev":   {Username: "rob", Role: "reviewer", SessionID: "s2"},
		"admin": {Username: "ada", Role: "admin", SessionID: "s3"},
		"weird": {Username: "who", Role: "owner", SessionID: "s4"},
	}}
	r := newGuardedRouter(auth, domlabel.RoleReviewer, domlabel.RoleAdmin)

	cases := map[string]int{
		"ann":   http.StatusForbidden,
		"rev":   http.StatusOK,
		"admin": http.StatusOK,
		"weird": http.StatusForbidden,
	}
	for token, want := range cases {
		if rec := doGet(r, token); rec.Code != want {
			t.Fatalf("%s: got=%d want=%d", token, rec.Code, want)
		}
	}
}
