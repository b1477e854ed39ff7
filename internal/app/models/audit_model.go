package models

import (
	"time"

	"github.com/google/uuid"
)

// VoucherEventType represents the lifecycle event being audited
type VoucherEventType string

const (
	VoucherEventIssued       VoucherEventType = "ISSUED"
	VoucherEventRedeemed     VoucherEventType = "REDEEMED"
	VoucherEventExpiredSweep VoucherEventType = "EXPIRED_SWEEP"
)

// VoucherEvent is one entry in the durable voucher history trail.
type VoucherEvent struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Code       string           `gorm:"size:64;index" json:"code"`
	Type       VoucherEventType `gorm:"size:32;not null" json:"type"`
	EmployeeID string           `gorm:"size:64" json:"employee_id"`
	Details    *string          `json:"details,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
