package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
)

// writeError maps a domain error onto the HTTP status its category implies
// and renders a uniform JSON body. Unknown errors become a 500 and are the
// only category logged at error level.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, liferr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, liferr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, liferr.ErrNotEligible):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, liferr.ErrInvalidTransition),
		errors.Is(err, liferr.ErrCapacityExceeded),
		errors.Is(err, liferr.ErrDuplicateAssignment):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}

	body := gin.H{"error": err.Error()}

	var elig *liferr.EligibilityError
	if errors.As(err, &elig) {
		body["constraint"] = string(elig.Constraint)
		body["unit_id"] = elig.UnitID
	}

	c.JSON(status, body)
}

func bindError(c *gin.Context, logger *zap.Logger, err error) {
	if logger != nil {
		logger.Warn("invalid request body", zap.Error(err))
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
