package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/stock-engine/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Engine    *inventory.RecordTransactionUseCase
	Query     *inventory.QueryUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/inventory", AuthMiddleware(deps.JWTSecret))

	handler := NewInventoryHandler(deps.Engine, deps.Query)

	protected.Post("/transactions", handler.RecordTransaction)
	protected.Get("/transactions", handler.ListTransactions)
	protected.Get("/transactions/:id", handler.GetTransaction)

	protected.Get("/levels/:itemId/:locationId", handler.GetCurrentLevel)
	protected.Get("/items/:itemId/levels", handler.ListLevelsForItem)
	protected.Get("/locations/:locationId/levels", handler.ListLevelsForLocation)
	protected.Get("/low-stock", handler.ListLowStock)
}
