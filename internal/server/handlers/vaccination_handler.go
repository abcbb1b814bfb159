package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/service/vaccination"
)

// VaccinationHandler exposes vaccination recording and coverage lookup over
// HTTP.
type VaccinationHandler struct {
	svc        *vaccination.Service
	aggregator *vaccination.Aggregator
	logger     *zap.Logger
}

// NewVaccinationHandler constructs the HTTP handler adapter.
func NewVaccinationHandler(svc *vaccination.Service, aggregator *vaccination.Aggregator, logger *zap.Logger) *VaccinationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VaccinationHandler{svc: svc, aggregator: aggregator, logger: logger}
}

type recordBatchRequest struct {
	MedicineIDs []string `json:"medicine_ids" binding:"required,min=1"`
	UnitIDs     []string `json:"unit_ids" binding:"required,min=1"`
	Actor       string   `json:"actor"`
}

// RecordBatch registers a planned batch vaccination for a group of units.
func (h *VaccinationHandler) RecordBatch(c *gin.Context) {
	var req recordBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	batch, err := h.svc.RecordBatchVaccination(c.Request.Context(), req.MedicineIDs, req.UnitIDs, req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

type completeBatchRequest struct {
	ConductDate time.Time `json:"conduct_date" binding:"required"`
}

// CompleteBatch marks a batch vaccination as conducted. Only completed
// batches count toward coverage.
func (h *VaccinationHandler) CompleteBatch(c *gin.Context) {
	var req completeBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	batch, err := h.svc.CompleteBatchVaccination(c.Request.Context(), c.Param("id"), req.ConductDate)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type recordSingleRequest struct {
	MedicineIDs []string  `json:"medicine_ids" binding:"required,min=1"`
	GivenDate   time.Time `json:"given_date" binding:"required"`
	Actor       string    `json:"actor"`
}

// RecordSingle registers an individually administered dose for one unit.
func (h *VaccinationHandler) RecordSingle(c *gin.Context) {
	var req recordSingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	record, err := h.svc.RecordSingleVaccination(c.Request.Context(), c.Param("unitId"), req.MedicineIDs, req.GivenDate, req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

type coverageRequest struct {
	DiseaseIDs []string `json:"disease_ids" binding:"required,min=1"`
}

// Coverage reports which of the requested diseases a unit is covered for
// within the lookback window.
func (h *VaccinationHandler) Coverage(c *gin.Context) {
	var req coverageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	report, err := h.aggregator.Coverage(c.Request.Context(), c.Param("unitId"), req.DiseaseIDs, time.Now())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"required": report.Required,
		"done":     report.Done,
		"missing":  report.Missing(),
		"covered":  report.FullyCovered(),
	})
}
