package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
	"github.com/mamadbah2/livestock/internal/service/herd"
)

// HerdHandler exposes livestock unit lifecycle operations over HTTP.
type HerdHandler struct {
	svc    *herd.Service
	units  repository.UnitRepository
	logger *zap.Logger
}

// NewHerdHandler constructs the HTTP handler adapter.
func NewHerdHandler(svc *herd.Service, units repository.UnitRepository, logger *zap.Logger) *HerdHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HerdHandler{svc: svc, units: units, logger: logger}
}

type createUnitRequest struct {
	SpeciesID      string     `json:"species_id" binding:"required"`
	InspectionCode string     `json:"inspection_code"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	OriginWeightKg float64    `json:"origin_weight_kg"`
	Color          string     `json:"color"`
	BarnID         string     `json:"barn_id"`
}

// Create registers a new unit, either as an empty slot or with import data.
func (h *HerdHandler) Create(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	unit, err := h.svc.CreateUnit(c.Request.Context(), herd.CreateUnitInput{
		SpeciesID:      req.SpeciesID,
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

	c.JSON(http.StatusCreated, unit)
}

// Get returns a single unit by identifier.
func (h *HerdHandler) Get(c *gin.Context) {
	unit, err := h.units.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

type identifyRequest struct {
	InspectionCode string `json:"inspection_code" binding:"required"`
}

// Identify records the inspection code of an awaiting-identification unit.
func (h *HerdHandler) Identify(c *gin.Context) {
	var req identifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	unit, err := h.svc.Identify(c.Request.Context(), c.Param("id"), req.InspectionCode)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// MarkSick transitions a healthy unit into the sick state.
func (h *HerdHandler) MarkSick(c *gin.Context) {
	unit, err := h.svc.MarkSick(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// MarkRecovered transitions a sick unit back to healthy.
func (h *HerdHandler) MarkRecovered(c *gin.Context) {
	unit, err := h.svc.MarkRecovered(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// MarkDead records a death and re-runs completion checks for any batch the
// unit was active in.
func (h *HerdHandler) MarkDead(c *gin.Context) {
	unit, err := h.svc.MarkDead(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

type eligibleUnitsRequest struct {
	SpeciesID   string   `json:"species_id" binding:"required"`
	MinAgeDays  *int     `json:"min_age_days"`
	MaxAgeDays  *int     `json:"max_age_days"`
	MinWeightKg *float64 `json:"min_weight_kg"`
	MaxWeightKg *float64 `json:"max_weight_kg"`
}

// FindEligible lists allocatable units matching a species/age/weight window.
func (h *HerdHandler) FindEligible(c *gin.Context) {
	var req eligibleUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	units, err := h.svc.FindEligibleUnits(c.Request.Context(), models.Requirement{
		SpeciesID:   req.SpeciesID,
		MinAgeDays:  req.MinAgeDays,
		MaxAgeDays:  req.MaxAgeDays,
		MinWeightKg: req.MinWeightKg,
		MaxWeightKg: req.MaxWeightKg,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"units": units, "count": len(units)})
}
