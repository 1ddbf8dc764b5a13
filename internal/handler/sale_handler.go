package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"go-fabric-retail/internal/service"
	"go-fabric-retail/pkg/validator"
)

type SaleHandler struct {
	service service.SaleService
}

func NewSaleHandler(s service.SaleService) *SaleHandler {
	return &SaleHandler{service: s}
}

func (h *SaleHandler) CreateSale(c *fiber.Ctx) error {
	var input service.CreateSaleInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid JSON"})
	}

	if errs := validator.ValidateStruct(input); len(errs) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  validator.ErrorMap(errs),
		})
	}

	sale, err := h.service.CreateSale(input, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Sale recorded",
		"sale":    sale,
	})
}

func (h *SaleHandler) GetSales(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)

	sales, pagination, err := h.service.ListSales(actorFromCtx(c), page, limit)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"sales":      sales,
		"pagination": pagination,
	})
}

func (h *SaleHandler) GetSale(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid sale ID"})
	}

	sale, err := h.service.GetSale(id, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sale)
}

func (h *SaleHandler) GetReceipt(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid sale ID"})
	}

	receipt, err := h.service.GetReceipt(id, actorFromCtx(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(receipt)
}
