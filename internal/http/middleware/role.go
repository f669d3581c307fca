package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domlabel "github.com/yungbote/labelbridge-backend/internal/domain/labeling"
	"github.com/yungbote/labelbridge-backend/internal/http/response"
	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
)

// RequireRole admits authenticated requests whose role is one of allowed.
// It must run after RequireAuth.
func RequireRole(allowed ...domlabel.Role) gin.HandlerFunc {
	set := make(map[domlabel.Role]bool, len(allowed))
	for _, r := range allowed {
		set[r] = true
	}
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", "not authenticated")
			return
		}
		role, ok := domlabel.ParseRole(rd.Role)
		if !ok || !set[role] {
			response.AbortError(c, http.StatusForbidden, "forbidden", "role "+rd.Role+" may not access this endpoint")
			return
		}
		c.Next()
	}
}
