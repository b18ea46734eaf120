package roles

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/roles", h.CreateRole)
	r.GET("/roles", h.ListRoles)
	r.GET("/roles/:role_id", h.GetRole)
	r.PUT("/roles/:role_id", h.UpdateRole)
	r.DELETE("/roles/:role_id", h.DeleteRole)
}

func roleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("role_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "role_id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateRole(c *gin.Context) {
	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateRole(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetRole(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}

	res, err := h.svc.GetRole(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateRole(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}

	var req RoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteRole(c *gin.Context) {
	id, ok := roleID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteRole(c.Request.Context(), id); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "role deleted"})
}

func (h *Handler) ListRoles(c *gin.Context) {
	res, err := h.svc.ListRoles(c.Request.Context())
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}
