// Package lifecycle holds the authoritative livestock status state machine.
// Every mutation site applies transitions through here; nothing flips a unit
// status by hand.
package lifecycle

import (
	"time"

	"github.com/mamadbah2/livestock/internal/domain/liferr"
	"github.com/mamadbah2/livestock/internal/domain/models"
)

// Event names a trigger that may move a unit between statuses.
type Event string

const (
	EventAssignImport    Event = "ASSIGN_IMPORT"
	EventReleaseImport   Event = "RELEASE_IMPORT"
	EventConfirmImport   Event = "CONFIRM_IMPORT"
	EventIdentify        Event = "IDENTIFY"
	EventMarkSick        Event = "MARK_SICK"
	EventRecover         Event = "RECOVER"
	EventSelectExport    Event = "SELECT_EXPORT"
	EventReleaseExport   Event = "RELEASE_EXPORT"
	EventConfirmHandover Event = "CONFIRM_HANDOVER"
	EventMarkDead        Event = "MARK_DEAD"
	EventRecallExported  Event = "RECALL_EXPORTED"
)

// transitions maps each event to its allowed from→to pairs. MarkDead is
// handled separately because it applies to every non-terminal status.
var transitions = map[Event]map[models.UnitStatus]models.UnitStatus{
	EventAssignImport: {
		models.UnitEmptySlot: models.UnitAwaitingImport,
	},
	EventReleaseImport: {
		models.UnitAwaitingImport: models.UnitEmptySlot,
	},
	EventConfirmImport: {
		models.UnitAwaitingImport: models.UnitHealthy,
	},
	EventIdentify: {
		models.UnitAwaitingIdent: models.UnitHealthy,
	},
	EventMarkSick: {
		models.UnitHealthy: models.UnitSick,
	},
	EventRecover: {
		models.UnitSick: models.UnitHealthy,
	},
	EventSelectExport: {
		models.UnitHealthy: models.UnitAwaitingExport,
		models.UnitSick:    models.UnitAwaitingExport,
	},
	EventReleaseExport: {
		models.UnitAwaitingExport: models.UnitHealthy,
	},
	EventConfirmHandover: {
		models.UnitAwaitingExport: models.UnitExported,
	},
	// Recall only happens through the insurance workflow when the original
	// unit is returned under warranty.
	EventRecallExported: {
		models.UnitExported: models.UnitSick,
	},
}

// Next returns the target status for an event applied to the given status,
// or an InvalidTransition error when the machine forbids it.
func Next(event Event, from models.UnitStatus) (models.UnitStatus, error) {
	if event == EventMarkDead {
		if from == models.UnitExported {
			return "", liferr.InvalidTransition(string(event), from, models.UnitDead)
		}
		if from == models.UnitDead || from == models.UnitSoldForMeat {
			return "", liferr.InvalidTransition(string(event), from, models.UnitDead)
		}
		return models.UnitDead, nil
	}

	targets, ok := transitions[event]
	if !ok {
		return "", liferr.InvalidTransition(string(event), from, "?")
	}
	to, ok := targets[from]
	if !ok {
		return "", liferr.InvalidTransition(string(event), from, "?")
	}
	return to, nil
}

// Apply mutates the unit in place after validating the transition.
func Apply(event Event, unit *models.LivestockUnit, now time.Time) error {
	to, err := Next(event, unit.Status)
	if err != nil {
		return err
	}
	unit.Status = to
	unit.UpdatedAt = now
	if to == models.UnitDead {
		t := now
		unit.DeadAt = &t
	}
	return nil
}

// GuardAllocatable rejects units that left the herd for good: dead, exported
// or sold-for-meat units never re-enter the normal allocation path, whatever
// event is attempted.
func GuardAllocatable(unit models.LivestockUnit) error {
	switch unit.Status {
	case models.UnitDead, models.UnitExported, models.UnitSoldForMeat:
		return liferr.NotEligible(unit.ID, liferr.ConstraintStatus,
			"unit status "+string(unit.Status)+" is terminal")
	}
	return nil
}
