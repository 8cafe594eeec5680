package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-engine/internal/application/dto"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
	"github.com/jhoicas/stock-engine/internal/domain"
	"github.com/jhoicas/stock-engine/internal/domain/entity"
	"github.com/jhoicas/stock-engine/internal/domain/repository"
)

// InventoryHandler maneja las peticiones HTTP del motor de stock (protegido).
type InventoryHandler struct {
	engine *inventory.RecordTransactionUseCase
	query  *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(engine *inventory.RecordTransactionUseCase, query *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{engine: engine, query: query}
}

// RecordTransaction registra una transacción de stock.
// POST /api/inventory/transactions
func (h *InventoryHandler) RecordTransaction(c *fiber.Ctx) error {
	principalID := GetUserID(c)
	if principalID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RecordTransactionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	// Frontera del caller: el signo debe corresponder a la dirección del tipo.
	// El motor no auto-niega cantidades; aquí se rechaza la inconsistencia.
	if entity.IsValidTransactionType(in.Type) {
		decreasing := entity.IsStockDecreasingType(in.Type)
		if decreasing && in.ChangeQuantity > 0 || !decreasing && in.ChangeQuantity < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Code:    "SIGN_MISMATCH",
				Message: "el signo de change_quantity no corresponde al tipo " + in.Type,
			})
		}
	}

	txDate, err := dto.ParseDateBound(in.TransactionDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	}

	userID := in.UserID
	if userID == "" {
		userID = principalID
	}

	record, err := h.engine.RecordTransaction(c.Context(), inventory.RecordTransactionInput{
		ItemID:          in.ItemID,
		LocationID:      in.LocationID,
		ChangeQuantity:  in.ChangeQuantity,
		Type:            in.Type,
		UserID:          userID,
		Notes:           in.Notes,
		ReferenceID:     in.ReferenceID,
		TransactionDate: txDate,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewStockTransactionResponse(record))
}

// ListTransactions devuelve el historial filtrado y paginado.
// GET /api/inventory/transactions
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	var in dto.ListTransactionsRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	dateFrom, err := dto.ParseDateBound(in.DateFrom)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	}
	dateTo, err := dto.ParseDateBound(in.DateTo)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DATE", Message: err.Error()})
	}

	page, err := h.query.ListTransactions(c.Context(), inventory.ListTransactionsQuery{
		Filter: repository.TransactionFilter{
			ItemID:     in.ItemID,
			LocationID: in.LocationID,
			UserID:     in.UserID,
			Type:       in.Type,
			DateFrom:   dateFrom,
			DateTo:     dateTo,
		},
		Page:     in.Page,
		PageSize: in.PageSize,
		SortBy:   in.SortBy,
		SortDir:  in.SortDir,
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	rows := make([]dto.StockTransactionResponse, 0, len(page.Transactions))
	for _, t := range page.Transactions {
		rows = append(rows, dto.NewStockTransactionResponse(t))
	}
	return c.JSON(fiber.Map{
		"transactions": rows,
		"meta": dto.PageMeta{
			Page:       page.Page,
			PageSize:   page.PageSize,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// GetTransaction devuelve una transacción por ID.
// GET /api/inventory/transactions/:id
func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	record, err := h.query.GetTransaction(c.Context(), c.Params("id"))
	if err != nil {
		return writeDomainError(c, err)
	}
	if record == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "transacción no encontrada"})
	}
	return c.JSON(dto.NewStockTransactionResponse(record))
}

// GetCurrentLevel devuelve el nivel actual de un par (artículo, ubicación).
// GET /api/inventory/levels/:itemId/:locationId
func (h *InventoryHandler) GetCurrentLevel(c *fiber.Ctx) error {
	level, err := h.query.CurrentLevel(c.Context(), c.Params("itemId"), c.Params("locationId"))
	if err != nil {
		return writeDomainError(c, err)
	}
	if level == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "nivel no encontrado"})
	}
	return c.JSON(dto.NewInventoryLevelResponse(level))
}

// ListLevelsForItem devuelve los niveles de un artículo en todas las ubicaciones.
// GET /api/inventory/items/:itemId/levels
func (h *InventoryHandler) ListLevelsForItem(c *fiber.Ctx) error {
	levels, err := h.query.LevelsForItem(c.Context(), c.Params("itemId"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(levelsResponse(levels))
}

// ListLevelsForLocation devuelve los niveles de una ubicación.
// GET /api/inventory/locations/:locationId/levels
func (h *InventoryHandler) ListLevelsForLocation(c *fiber.Ctx) error {
	levels, err := h.query.LevelsForLocation(c.Context(), c.Params("locationId"))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(levelsResponse(levels))
}

// ListLowStock devuelve los niveles en o por debajo del umbral de su artículo.
// GET /api/inventory/low-stock
func (h *InventoryHandler) ListLowStock(c *fiber.Ctx) error {
	rows, err := h.query.LowStockLevels(c.Context())
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.LowStockRowResponse, 0, len(rows))
	for _, r := range rows {
		threshold := int64(0)
		if r.Item.LowStockThreshold != nil {
			threshold = *r.Item.LowStockThreshold
		}
		out = append(out, dto.LowStockRowResponse{
			ItemID:       r.Item.ID,
			SKU:          r.Item.SKU,
			ItemName:     r.Item.Name,
			LocationID:   r.Location.ID,
			LocationName: r.Location.Name,
			Quantity:     r.Level.Quantity,
			Threshold:    threshold,
		})
	}
	return c.JSON(fiber.Map{"total": len(out), "levels": out})
}

func levelsResponse(levels []*entity.InventoryLevel) fiber.Map {
	out := make([]dto.InventoryLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, dto.NewInventoryLevelResponse(l))
	}
	return fiber.Map{"total": len(out), "levels": out}
}

// writeDomainError traduce los errores de dominio a estados HTTP.
func writeDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "artículo, ubicación o usuario no encontrado"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia, reintente la operación"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
