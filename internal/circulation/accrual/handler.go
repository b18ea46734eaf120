package accrual

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"LIBRA-backend/internal/platform/apierr"
)

type Handler struct {
	engine *Engine
	clock  Clock
}

// RegisterRoutes は admin ロール配下に付けること。
// 一覧APIは純粋な読み取りなので、手動で再計算したい時はこちらを叩く
func RegisterRoutes(r gin.IRoutes, engine *Engine) {
	h := &Handler{engine: engine, clock: realClock{}}
	r.POST("/fines/reconcile", h.Reconcile)
}

type ReconcileResponse struct {
	ReconciledAt time.Time `json:"reconciled_at"`
	Summary      Summary   `json:"summary"`
}

func (h *Handler) Reconcile(c *gin.Context) {
	now := h.clock.Now()

	sum, err := h.engine.Reconcile(c.Request.Context(), now)
	if err != nil {
		// ロック競合はリトライ可能なので 409 で返し分ける
		if errors.Is(err, ErrConflict) {
			c.JSON(http.StatusConflict, apierr.Body(apierr.CodeConflict, "reconcile conflicted, retry later"))
			return
		}
		c.JSON(http.StatusInternalServerError, apierr.Body(apierr.CodeInternal, err.Error()))
		return
	}

	c.JSON(http.StatusOK, ReconcileResponse{ReconciledAt: now, Summary: sum})
}
