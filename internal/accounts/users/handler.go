package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
	"LIBRA-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

// RegisterPublicRoutes は認証なしで呼べる登録エンドポイント
func RegisterPublicRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/register", h.Register)
}

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/users", h.ListUsers)
	r.GET("/users/me", h.Me)
	r.GET("/users/:user_id", h.GetUser)
	r.PUT("/users/:user_id", h.UpdateUser)
	r.DELETE("/users/:user_id", h.DeleteUser)
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "user_id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Me はトークンの uid クレームから自分自身を引く
func (h *Handler) Me(c *gin.Context) {
	v, ok := c.Get(auth.CtxUserIDKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "token has no user id"))
		return
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		c.JSON(http.StatusUnauthorized, apierr.Body(apierr.CodeUnauthenticated, "token has no user id"))
		return
	}

	res, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	res, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json"))
		return
	}

	res, err := h.svc.UpdateUser(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), id); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}

func (h *Handler) ListUsers(c *gin.Context) {
	page := parseIntDefault(c.Query("page"), 1)
	perPage := parseIntDefault(c.Query("per_page"), 10)

	res, err := h.svc.ListUsers(c.Request.Context(), page, perPage)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
