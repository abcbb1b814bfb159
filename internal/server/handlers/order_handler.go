package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/service/orders"
)

// OrderHandler exposes direct sale order operations over HTTP.
type OrderHandler struct {
	svc    *orders.Service
	logger *zap.Logger
}

// NewOrderHandler constructs the HTTP handler adapter.
func NewOrderHandler(svc *orders.Service, logger *zap.Logger) *OrderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderHandler{svc: svc, logger: logger}
}

type orderLineRequest struct {
	SpeciesID   string   `json:"species_id" binding:"required"`
	Quantity    int      `json:"quantity" binding:"required,gt=0"`
	MinWeightKg *float64 `json:"min_weight_kg"`
	MaxWeightKg *float64 `json:"max_weight_kg"`
	UnitPrice   string   `json:"unit_price" binding:"required"`
}

type createOrderRequest struct {
	CustomerName string             `json:"customer_name" binding:"required"`
	Lines        []orderLineRequest `json:"lines" binding:"required,min=1"`
}

// Create opens a new order with its requirement lines.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	lines := make([]orders.RequirementInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, orders.RequirementInput{
			SpeciesID:   l.SpeciesID,
			Quantity:    l.Quantity,
			MinWeightKg: l.MinWeightKg,
			MaxWeightKg: l.MaxWeightKg,
			UnitPrice:   l.UnitPrice,
		})
	}

	order, err := h.svc.CreateOrder(c.Request.Context(), req.CustomerName, lines)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// AssignUnit allocates a unit against a requirement line.
func (h *OrderHandler) AssignUnit(c *gin.Context) {
	var req assignUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	order, err := h.svc.AssignUnit(c.Request.Context(), c.Param("requirementId"), req.UnitID, req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// RemoveUnit releases an allocated unit back to the herd.
func (h *OrderHandler) RemoveUnit(c *gin.Context) {
	order, err := h.svc.RemoveUnit(c.Request.Context(), c.Param("id"), c.Param("unitId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ConfirmDelivery finalizes one order detail and propagates completion.
func (h *OrderHandler) ConfirmDelivery(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		bindError(c, h.logger, err)
		return
	}

	if err := h.svc.ConfirmDelivery(c.Request.Context(), c.Param("detailId"), req.Actor); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
