package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-fabric-retail/internal/service"
)

type ReportHandler struct {
	service service.ReportService
}

func NewReportHandler(s service.ReportService) *ReportHandler {
	return &ReportHandler{service: s}
}

func (h *ReportHandler) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := h.service.GetDashboardStats(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

func (h *ReportHandler) GetStockMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	movement, err := h.service.GetStockMovement(days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movement)
}
