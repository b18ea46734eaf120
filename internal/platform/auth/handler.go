package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

// RegisterRoutes は認証不要のルートに付けること
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/auth/login", h.Login)
}

// RegisterProtectedRoutes は RequireAuth 配下に付けること
func RegisterProtectedRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/auth/logout", h.Logout)
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
	RoleID      int64  `json:"role_id"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "username and password are required"))
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: res.Token,
		TokenType:   "bearer",
		UserID:      res.UserID,
		RoleID:      res.RoleID,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	raw := c.GetHeader("Authorization")
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		// RequireAuth を通っていれば来ないはず
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "missing bearer token"))
		return
	}
	token := strings.TrimSpace(parts[1])

	if err := h.svc.Logout(c.Request.Context(), token); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful, token invalidated"})
}
