package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the retail order state machine, gated on whether every
// requirement quantity has been satisfied.
type OrderStatus string

const (
	OrderPending          OrderStatus = "PENDING"
	OrderAllocating       OrderStatus = "ALLOCATING"
	OrderAwaitingHandover OrderStatus = "AWAITING_HANDOVER"
	OrderCompleted        OrderStatus = "COMPLETED"
	OrderCancelled        OrderStatus = "CANCELLED"
)

// OrderDetailStatus is the per-unit membership status inside an order.
type OrderDetailStatus string

const (
	OrderDetailAwaitingExport OrderDetailStatus = "AWAITING_EXPORT"
	OrderDetailExported       OrderDetailStatus = "EXPORTED"
	OrderDetailCancelled      OrderDetailStatus = "CANCELLED"
)

// Order is the retail-sale analogue of a procurement package.
type Order struct {
	ID             string      `bson:"_id"`
	CustomerName   string      `bson:"customerName"`
	Status         OrderStatus `bson:"status"`
	TotalAmount    string      `bson:"totalAmount,omitempty"` // decimal string
	CompletionDate *time.Time  `bson:"completionDate,omitempty"`
	CreatedAt      time.Time   `bson:"createdAt"`
	UpdatedAt      time.Time   `bson:"updatedAt"`
}

// OrderRequirement is one species line of an order: quantity, weight window
// and agreed unit price.
type OrderRequirement struct {
	ID          string   `bson:"_id"`
	OrderID     string   `bson:"orderId"`
	SpeciesID   string   `bson:"speciesId"`
	Quantity    int      `bson:"quantity"`
	MinWeightKg *float64 `bson:"minWeightKg,omitempty"`
	MaxWeightKg *float64 `bson:"maxWeightKg,omitempty"`
	UnitPrice   string   `bson:"unitPrice,omitempty"` // decimal string
}

// Requirement converts the order line into the evaluator's slot shape.
func (r OrderRequirement) Requirement() Requirement {
	return Requirement{
		SpeciesID:   r.SpeciesID,
		MinWeightKg: r.MinWeightKg,
		MaxWeightKg: r.MaxWeightKg,
	}
}

// LineTotal multiplies the agreed unit price by the requirement quantity.
func (r OrderRequirement) LineTotal() (decimal.Decimal, error) {
	if r.UnitPrice == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(r.UnitPrice)
	if err != nil {
		return decimal.Zero, err
	}
	return price.Mul(decimal.NewFromInt(int64(r.Quantity))), nil
}

// OrderDetail links one unit into an order requirement.
type OrderDetail struct {
	ID            string            `bson:"_id"`
	OrderID       string            `bson:"orderId"`
	RequirementID string            `bson:"requirementId"`
	UnitID        string            `bson:"unitId"`
	Status        OrderDetailStatus `bson:"status"`
	ExportedDate  *time.Time        `bson:"exportedDate,omitempty"`
	CreatedAt     time.Time         `bson:"createdAt"`
	UpdatedAt     time.Time         `bson:"updatedAt"`
}

// Active reports whether the detail still counts toward its requirement.
func (d OrderDetail) Active() bool {
	return d.Status != OrderDetailCancelled
}
