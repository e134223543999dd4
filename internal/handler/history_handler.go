package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/service"
)

type HistoryHandler struct {
	svc *service.HistoryService
}

func NewHistoryHandler(svc *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

// Stats GET /api/history/stats
func (h *HistoryHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, stats)
}

// Machines GET /api/history/machines
func (h *HistoryHandler) Machines(c *gin.Context) {
	machines, err := h.svc.Machines()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, machines)
}

// Technicians GET /api/history/technicians
func (h *HistoryHandler) Technicians(c *gin.Context) {
	users, err := h.svc.Technicians()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, users)
}
