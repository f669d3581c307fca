package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/labelbridge-backend/internal/http/response"
	"github.com/yungbote/labelbridge-backend/internal/pkg/ctxutil"
	"github.com/yungbote/labelbridge-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := ah.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.RespondAPIError(c, err, "login_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"access_token": res.AccessToken,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"expires_at":   res.ExpiresAt,
		"username":     res.Username,
		"display_name": res.DisplayName,
		"role":         res.Role,
		"session_id":   res.SessionID,
	})
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err, "logout_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.RespondOK(c, gin.H{
		"username":     rd.Username,
		"display_name": rd.DisplayName,
		"role":         rd.Role,
		"session_id":   rd.SessionID,
	})
}
