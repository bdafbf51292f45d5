package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/infrastructure/auth"
	"github.com/stockpilot/backend/internal/infrastructure/logger"
	"github.com/stockpilot/backend/internal/interfaces/http/middleware"
)

// SessionResponse describes the caller's token
type SessionResponse struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	// ExpiresIn is the remaining token lifetime in seconds
	ExpiresIn int64 `json:"expires_in"`
}

// AuthHandler handles session endpoints. Tokens are issued by the hosted
// auth provider; the API only describes and revokes them.
type AuthHandler struct {
	BaseHandler
	blacklist auth.TokenBlacklist
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(blacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{blacklist: blacklist}
}

// Me godoc
// @Summary      Describe the current session
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[SessionResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.Success(c, SessionResponse{
		UserID:    claims.Subject,
		TenantID:  claims.TenantID,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresIn: int64(claims.RemainingTTL().Seconds()),
	})
}

// Logout godoc
// @Summary      Revoke the current token
// @Tags         auth
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if claims.ID == "" {
		h.BadRequest(c, "Token has no jti and cannot be revoked")
		return
	}

	if ttl := claims.RemainingTTL(); ttl > 0 {
		if err := h.blacklist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
			h.HandleError(c, err)
			return
		}
	}
	logger.FromContext(c.Request.Context()).Info("Token revoked", zap.String("jti", claims.ID))
	h.NoContent(c)
}
