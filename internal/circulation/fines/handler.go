package fines

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/fines", h.CreateFine)
	r.GET("/fines", h.ListFines)
	r.GET("/fines/:fine_id", h.GetFine)
	r.PUT("/fines/:fine_id/pay", h.PayFine)
	r.DELETE("/fines/:fine_id", h.DeleteFine)
	r.GET("/fines/user/:user_id", h.UserFines)
}

func (h *Handler) CreateFine(c *gin.Context) {
	var req CreateFineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateFine(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetFine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fine_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "fine_id must be a positive integer"))
		return
	}

	res, err := h.svc.GetFine(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PayFine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fine_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "fine_id must be a positive integer"))
		return
	}

	res, err := h.svc.PayFine(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteFine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fine_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "fine_id must be a positive integer"))
		return
	}

	if err := h.svc.DeleteFine(c.Request.Context(), id); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "fine deleted"})
}

// 一覧は純粋な読み取り。再計算は POST /fines/reconcile か定期ジョブで
func (h *Handler) ListFines(c *gin.Context) {
	page := parseIntDefault(c.Query("page"), 1)
	perPage := parseIntDefault(c.Query("per_page"), 10)

	res, err := h.svc.ListFines(c.Request.Context(), page, perPage)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UserFines(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "user_id must be a positive integer"))
		return
	}

	res, err := h.svc.UserFines(c.Request.Context(), userID)
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
