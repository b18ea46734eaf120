package loans

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/loans", h.CreateLoan)
	r.GET("/loans", h.ListLoans)
	r.GET("/loans/:loan_id", h.GetLoan)
	r.PUT("/loans/:loan_id/return", h.ReturnLoan)
	r.GET("/loans/:loan_id/late-fee", h.LateFee)
	r.DELETE("/loans/:loan_id", h.DeleteLoan)
}

func loanID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("loan_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "loan_id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apierr.Body(apierr.CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	res, err := h.svc.CreateLoan(c.Request.Context(), req)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) GetLoan(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}

	res, err := h.svc.GetLoan(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ReturnLoan(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}

	res, err := h.svc.ReturnLoan(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// LateFee は査定のプレビュー。台帳反映は /fines/reconcile 側
func (h *Handler) LateFee(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}

	res, err := h.svc.LateFee(c.Request.Context(), id)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListLoans(c *gin.Context) {
	page := parseIntDefault(c.Query("page"), 1)
	perPage := parseIntDefault(c.Query("per_page"), 10)

	res, err := h.svc.ListLoans(c.Request.Context(), page, perPage)
	if err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteLoan(c *gin.Context) {
	id, ok := loanID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteLoan(c.Request.Context(), id); err != nil {
		c.JSON(apierr.ToHTTPStatus(err), apierr.FromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "loan deleted"})
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
