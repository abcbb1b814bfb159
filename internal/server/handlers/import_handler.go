package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/service/importing"
)

// ImportHandler exposes import batch operations over HTTP.
type ImportHandler struct {
	svc    *importing.Service
	logger *zap.Logger
}

// NewImportHandler constructs the HTTP handler adapter.
func NewImportHandler(svc *importing.Service, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{svc: svc, logger: logger}
}

type createImportBatchRequest struct {
	SpeciesID          string     `json:"species_id" binding:"required"`
	EstimatedQuantity  int        `json:"estimated_quantity" binding:"required,gt=0"`
	ExpectedCompletion *time.Time `json:"expected_completion"`
	Actor              string     `json:"actor"`
}

// CreateBatch opens a new import batch for a species.
func (h *ImportHandler) CreateBatch(c *gin.Context) {
	var req createImportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	batch, err := h.svc.CreateBatch(c.Request.Context(), req.SpeciesID, req.EstimatedQuantity, req.ExpectedCompletion, req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

type assignUnitRequest struct {
	UnitID string `json:"unit_id" binding:"required"`
	Actor  string `json:"actor"`
}

// AssignUnit attaches a unit to the batch, consuming one capacity slot.
func (h *ImportHandler) AssignUnit(c *gin.Context) {
	var req assignUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	batch, err := h.svc.AssignUnit(c.Request.Context(), c.Param("id"), req.UnitID, req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// RemoveUnit releases a unit from the batch before confirmation.
func (h *ImportHandler) RemoveUnit(c *gin.Context) {
	batch, err := h.svc.RemoveUnit(c.Request.Context(), c.Param("id"), c.Param("unitId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type confirmUnitRequest struct {
	InspectionCode string     `json:"inspection_code"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	OriginWeightKg float64    `json:"origin_weight_kg"`
	Color          string     `json:"color"`
	BarnID         string     `json:"barn_id"`
}

// ConfirmUnit records intake measurements for one assigned unit.
func (h *ImportHandler) ConfirmUnit(c *gin.Context) {
	var req confirmUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	err := h.svc.ConfirmUnit(c.Request.Context(), c.Param("id"), c.Param("unitId"), importing.ConfirmUnitInput{
		InspectionCode: req.InspectionCode,
		DateOfBirth:    req.DateOfBirth,
		OriginWeightKg: req.OriginWeightKg,
		Color:          req.Color,
		BarnID:         req.BarnID,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type actorRequest struct {
	Actor string `json:"actor"`
}

// Confirm finalizes the whole batch, resolving every remaining detail.
func (h *ImportHandler) Confirm(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		bindError(c, h.logger, err)
		return
	}

	batch, err := h.svc.ConfirmImport(c.Request.Context(), c.Param("id"), req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// Cancel aborts an unconfirmed batch and releases its units.
func (h *ImportHandler) Cancel(c *gin.Context) {
	batch, err := h.svc.CancelBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
