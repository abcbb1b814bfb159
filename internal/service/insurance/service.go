// Package insurance implements the warranty replacement workflow: an
// exported unit failed under warranty and the customer is owed a
// replacement, optionally returning the original to the farm.
package insurance

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/ids"
	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
	"github.com/mamadbah2/livestock/internal/service/lifecycle"
)

// Service implements the replacement workflow.
type Service struct {
	units     repository.UnitRepository
	requests  repository.InsuranceRepository
	exports   repository.ExportRepository
	tx        repository.TxRunner
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the insurance service.
func NewService(
	units repository.UnitRepository,
	requests repository.InsuranceRepository,
	exports repository.ExportRepository,
	tx repository.TxRunner,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		units:    units,
		requests: requests,
		exports:  exports,
		tx:       tx,
		logger:   logger,
		now:      time.Now,
	}
}

// Request opens a replacement request for an exported unit. The export
// detail's insurance expiry must still be in the future.
func (s *Service) Request(ctx context.Context, originalUnitID, reason string, returnOriginal bool, actor string) (models.InsuranceRequest, error) {
	unit, err := s.units.Get(ctx, originalUnitID)
	if err != nil {
		return models.InsuranceRequest{}, err
	}
	if unit.Status != models.UnitExported {
		return models.InsuranceRequest{}, liferr.Validation("unit %s is not exported", originalUnitID)
	}
	if _, ok, err := s.requests.FindOpenByOriginalUnit(ctx, originalUnitID); err != nil {
		return models.InsuranceRequest{}, err
	} else if ok {
		return models.InsuranceRequest{}, liferr.DuplicateAssignment(originalUnitID, "insurance request")
	}

	now := s.now()
	req := models.InsuranceRequest{
		ID:             ids.New(),
		OriginalUnitID: originalUnitID,
		Status:         models.InsurancePending,
		Reason:         reason,
		ReturnOriginal: returnOriginal,
		RequestedBy:    actor,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	// Remember which export produced the unit so the warranty window can be
	// audited later.
	if detail, ok, err := s.exports.FindActiveDetailByUnit(ctx, originalUnitID); err != nil {
		return models.InsuranceRequest{}, err
	} else if ok {
		req.ExportDetailID = detail.ID
		if detail.InsuranceExpiryDate != nil && detail.InsuranceExpiryDate.Before(now) {
			return models.InsuranceRequest{}, liferr.Validation("insurance for unit %s expired on %s",
				originalUnitID, detail.InsuranceExpiryDate.Format("2006-01-02"))
		}
	}

	if err := s.requests.Insert(ctx, req); err != nil {
		return models.InsuranceRequest{}, err
	}
	s.logger.Info("insurance request opened",
		zap.String("request_id", req.ID),
		zap.String("original_unit_id", originalUnitID))
	return req, nil
}

// Approve moves a pending request to preparing.
func (s *Service) Approve(ctx context.Context, requestID string) (models.InsuranceRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return models.InsuranceRequest{}, err
	}
	if req.Status != models.InsurancePending {
		return models.InsuranceRequest{}, liferr.InvalidTransition("APPROVE_INSURANCE", req.Status, models.InsurancePreparing)
	}
	req.Status = models.InsurancePreparing
	req.UpdatedAt = s.now()
	if err := s.requests.Update(ctx, req); err != nil {
		return models.InsuranceRequest{}, err
	}
	return req, nil
}

// AssignReplacement designates the unit to hand over in place of the
// original. The replacement is swappable until handover: assigning a new one
// reverts the previous replacement back to healthy.
func (s *Service) AssignReplacement(ctx context.Context, requestID, unitID string) (models.InsuranceRequest, error) {
	var req models.InsuranceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.InsurancePreparing && req.Status != models.InsuranceAwaitingHandover {
			return liferr.InvalidTransition("ASSIGN_REPLACEMENT", req.Status, models.InsuranceAwaitingHandover)
		}
		if req.ReplacementUnitID == unitID {
			return liferr.DuplicateAssignment(unitID, "insurance request")
		}

		unit, err := s.units.Get(ctx, unitID)
		if err != nil {
			return err
		}
		if err := lifecycle.GuardAllocatable(unit); err != nil {
			return err
		}

		now := s.now()
		if err := lifecycle.Apply(lifecycle.EventSelectExport, &unit, now); err != nil {
			return err
		}
		if err := s.units.Update(ctx, unit); err != nil {
			return err
		}

		if req.ReplacementUnitID != "" {
			previous, err := s.units.Get(ctx, req.ReplacementUnitID)
			if err != nil {
				return err
			}
			if err := lifecycle.Apply(lifecycle.EventReleaseExport, &previous, now); err != nil {
				return err
			}
			if err := s.units.Update(ctx, previous); err != nil {
				return err
			}
		}

		req.ReplacementUnitID = unitID
		req.Status = models.InsuranceAwaitingHandover
		req.UpdatedAt = now
		return s.requests.Update(ctx, req)
	})
	if err != nil {
		return models.InsuranceRequest{}, err
	}
	s.logger.Info("replacement assigned",
		zap.String("request_id", requestID),
		zap.String("replacement_unit_id", unitID))
	return req, nil
}

// Complete hands the replacement over: the replacement unit is exported and,
// when the original was marked for recall, the original flips from exported
// to sick instead of staying with the customer.
func (s *Service) Complete(ctx context.Context, requestID string) (models.InsuranceRequest, error) {
	var req models.InsuranceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != models.InsuranceAwaitingHandover {
			return liferr.InvalidTransition("COMPLETE_INSURANCE", req.Status, models.InsuranceCompleted)
		}
		if req.ReplacementUnitID == "" {
			return liferr.Validation("request %s has no replacement assigned", requestID)
		}

		now := s.now()
		replacement, err := s.units.Get(ctx, req.ReplacementUnitID)
		if err != nil {
			return err
		}
		if err := lifecycle.Apply(lifecycle.EventConfirmHandover, &replacement, now); err != nil {
			return err
		}
		replacement.ExportWeightKg = replacement.EffectiveWeightKg()
		if err := s.units.Update(ctx, replacement); err != nil {
			return err
		}

		if req.ReturnOriginal {
			original, err := s.units.Get(ctx, req.OriginalUnitID)
			if err != nil {
				return err
			}
			if err := lifecycle.Apply(lifecycle.EventRecallExported, &original, now); err != nil {
				return err
			}
			if err := s.units.Update(ctx, original); err != nil {
				return err
			}
		}

		req.Status = models.InsuranceCompleted
		req.HandoverDate = &now
		req.UpdatedAt = now
		return s.requests.Update(ctx, req)
	})
	if err != nil {
		return models.InsuranceRequest{}, err
	}
	s.logger.Info("insurance request completed", zap.String("request_id", requestID))
	return req, nil
}

// Reject refuses a pending or preparing request.
func (s *Service) Reject(ctx context.Context, requestID, reason string) (models.InsuranceRequest, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return models.InsuranceRequest{}, err
	}
	if req.Status != models.InsurancePending && req.Status != models.InsurancePreparing {
		return models.InsuranceRequest{}, liferr.InvalidTransition("REJECT_INSURANCE", req.Status, models.InsuranceRejected)
	}
	req.Status = models.InsuranceRejected
	if reason != "" {
		req.Reason = reason
	}
	req.UpdatedAt = s.now()
	if err := s.requests.Update(ctx, req); err != nil {
		return models.InsuranceRequest{}, err
	}
	return req, nil
}

// Cancel withdraws any non-completed request, reverting an active
// replacement.
func (s *Service) Cancel(ctx context.Context, requestID string) (models.InsuranceRequest, error) {
	var req models.InsuranceRequest
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.Get(ctx, requestID)
		if err != nil {
			return err
		}
		if !req.Open() {
			return liferr.InvalidTransition("CANCEL_INSURANCE", req.Status, models.InsuranceCancelled)
		}

		now := s.now()
		if req.ReplacementUnitID != "" {
			replacement, err := s.units.Get(ctx, req.ReplacementUnitID)
			if err != nil {
				return err
			}
			if replacement.Status == models.UnitAwaitingExport {
				if err := lifecycle.Apply(lifecycle.EventReleaseExport, &replacement, now); err != nil {
					return err
				}
				if err := s.units.Update(ctx, replacement); err != nil {
					return err
				}
			}
		}

		req.Status = models.InsuranceCancelled
		req.UpdatedAt = now
		return s.requests.Update(ctx, req)
	})
	if err != nil {
		return models.InsuranceRequest{}, err
	}
	return req, nil
}
