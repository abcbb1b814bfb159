package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/service/insurance"
)

// InsuranceHandler exposes the insurance replacement workflow over HTTP.
type InsuranceHandler struct {
	svc    *insurance.Service
	logger *zap.Logger
}

// NewInsuranceHandler constructs the HTTP handler adapter.
func NewInsuranceHandler(svc *insurance.Service, logger *zap.Logger) *InsuranceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsuranceHandler{svc: svc, logger: logger}
}

type insuranceRequestBody struct {
	OriginalUnitID string `json:"original_unit_id" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
	ReturnOriginal bool   `json:"return_original"`
	Actor          string `json:"actor"`
}

// Request opens an insurance claim for an exported unit still under cover.
func (h *InsuranceHandler) Request(c *gin.Context) {
	var req insuranceRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	record, err := h.svc.Request(c.Request.Context(), req.OriginalUnitID, req.Reason, req.ReturnOriginal, req.Actor)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// Approve moves a pending claim into preparation.
func (h *InsuranceHandler) Approve(c *gin.Context) {
	record, err := h.svc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type assignReplacementRequest struct {
	UnitID string `json:"unit_id" binding:"required"`
}

// AssignReplacement selects (or swaps) the replacement unit of a claim.
func (h *InsuranceHandler) AssignReplacement(c *gin.Context) {
	var req assignReplacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	record, err := h.svc.AssignReplacement(c.Request.Context(), c.Param("id"), req.UnitID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Complete hands over the replacement and, when agreed, recalls the
// original unit back into the herd.
func (h *InsuranceHandler) Complete(c *gin.Context) {
	record, err := h.svc.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type rejectRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Reject declines a claim that has not reached handover.
func (h *InsuranceHandler) Reject(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	record, err := h.svc.Reject(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Cancel aborts an open claim, releasing any assigned replacement.
func (h *InsuranceHandler) Cancel(c *gin.Context) {
	record, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, record)
}
