package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/service/exporting"
)

// ExportHandler exposes procurement package and export batch operations over
// HTTP.
type ExportHandler struct {
	svc    *exporting.Service
	logger *zap.Logger
}

// NewExportHandler constructs the HTTP handler adapter.
func NewExportHandler(svc *exporting.Service, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{svc: svc, logger: logger}
}

type createPackageRequest struct {
	Code         string `json:"code" binding:"required"`
	CustomerName string `json:"customer_name" binding:"required"`
}

// CreatePackage opens a procurement package in the bidding state.
func (h *ExportHandler) CreatePackage(c *gin.Context) {
	var req createPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	pkg, err := h.svc.CreatePackage(c.Request.Context(), req.Code, req.CustomerName)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, pkg)
}

// AdvancePackage moves a package one step forward in its lifecycle.
func (h *ExportHandler) AdvancePackage(c *gin.Context) {
	pkg, err := h.svc.AdvancePackage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

// CancelPackage aborts a package that has not started handing over.
func (h *ExportHandler) CancelPackage(c *gin.Context) {
	pkg, err := h.svc.CancelPackage(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, pkg)
}

type packageDetailRequest struct {
	SpeciesID       string   `json:"species_id" binding:"required"`
	RequiredQty     int      `json:"required_qty" binding:"required,gt=0"`
	MinAgeDays      *int     `json:"min_age_days"`
	MaxAgeDays      *int     `json:"max_age_days"`
	MinWeightKg     *float64 `json:"min_weight_kg"`
	MaxWeightKg     *float64 `json:"max_weight_kg"`
	DiseaseIDs      []string `json:"disease_ids"`
	InsuranceMonths int      `json:"insurance_months"`
}

// AddDetail attaches a per-species requirement line to a bidding package.
func (h *ExportHandler) AddDetail(c *gin.Context) {
	var req packageDetailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	detail, err := h.svc.AddPackageDetail(c.Request.Context(), c.Param("id"), exporting.PackageDetailInput{
		SpeciesID:       req.SpeciesID,
		RequiredQty:     req.RequiredQty,
		MinAgeDays:      req.MinAgeDays,
		MaxAgeDays:      req.MaxAgeDays,
		MinWeightKg:     req.MinWeightKg,
		MaxWeightKg:     req.MaxWeightKg,
		DiseaseIDs:      req.DiseaseIDs,
		InsuranceMonths: req.InsuranceMonths,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

type createExportBatchRequest struct {
	SpeciesID    string `json:"species_id" binding:"required"`
	CustomerName string `json:"customer_name"`
	Total        int    `json:"total" binding:"required,gt=0"`
}

// CreateBatch opens an export batch under a package.
func (h *ExportHandler) CreateBatch(c *gin.Context) {
	var req createExportBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	batch, err := h.svc.CreateExportBatch(c.Request.Context(), c.Param("id"), req.SpeciesID, req.CustomerName, req.Total)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// AssignUnit selects an eligible unit into the export batch.
func (h *ExportHandler) AssignUnit(c *gin.Context) {
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

// RemoveUnit releases a selected unit back to the herd.
func (h *ExportHandler) RemoveUnit(c *gin.Context) {
	batch, err := h.svc.RemoveUnit(c.Request.Context(), c.Param("id"), c.Param("unitId"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// ConfirmHandover finalizes one export detail and propagates completion.
func (h *ExportHandler) ConfirmHandover(c *gin.Context) {
	var req actorRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		bindError(c, h.logger, err)
		return
	}

	if err := h.svc.ConfirmHandover(c.Request.Context(), c.Param("detailId"), req.Actor); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
