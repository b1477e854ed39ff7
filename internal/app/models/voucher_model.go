package models

import (
	"time"

	"github.com/heyheylabs/bdvoucher-core/internal/app/pkg"
	"github.com/heyheylabs/bdvoucher-core/pkg/ratelimit"
	"github.com/heyheylabs/bdvoucher-core/pkg/securetoken"
)

type VoucherState string

const (
	VoucherStateCreated  VoucherState = "CREATED"
	VoucherStateRedeemed VoucherState = "REDEEMED"
	VoucherStateExpired  VoucherState = "EXPIRED"
)

// Outcome is the internal result taxonomy for Validate and Redeem. The
// distinctions exist for logging and audit; PublicMessage collapses every
// failure to one generic message so callers never reveal to an
// unauthenticated redeemer whether a code exists or why it was rejected.
type Outcome string

const (
	OutcomeValid              Outcome = "VALID"
	OutcomeRedeemed           Outcome = "REDEEMED"
	OutcomeMalformedToken     Outcome = "MALFORMED_TOKEN"
	OutcomeUnsupportedVersion Outcome = "UNSUPPORTED_VERSION"
	OutcomeInvalidSignature   Outcome = "INVALID_SIGNATURE"
	OutcomeNotFound           Outcome = "NOT_FOUND"
	OutcomeRateLimited        Outcome = "RATE_LIMITED"
	OutcomeExpired            Outcome = "EXPIRED"
	OutcomeAlreadyRedeemed    Outcome = "ALREADY_REDEEMED"
	OutcomeDuplicateCode      Outcome = "DUPLICATE_CODE"
	OutcomeStorageUnavailable Outcome = "STORAGE_UNAVAILABLE"
)

// Success reports whether the outcome is a passing one.
func (o Outcome) Success() bool {
	return o == OutcomeValid || o == OutcomeRedeemed
}

// Retryable reports whether the caller may usefully retry the same input.
func (o Outcome) Retryable() bool {
	return o == OutcomeStorageUnavailable
}

// PublicMessage is the only text safe to show an unauthenticated redeemer.
func (o Outcome) PublicMessage() string {
	switch o {
	case OutcomeValid:
		return "Voucher is valid"
	case OutcomeRedeemed:
		return "Voucher redeemed"
	case OutcomeStorageUnavailable:
		return "Service temporarily unavailable, please try again"
	default:
		return "Invalid or expired voucher"
	}
}

// VoucherRecord is the durable record of one issued voucher. Code is the
// primary key; EXPIRED is derived at read time via DerivedState rather than
// stored eagerly (SweepExpired materializes it as bookkeeping only).
type VoucherRecord struct {
	Code         string       `gorm:"primaryKey;size:64" json:"code"`
	EmployeeID   string       `gorm:"size:64;index" json:"employee_id"`
	EmployeeName string       `gorm:"size:255" json:"employee_name"`
	Version      string       `gorm:"size:8" json:"version"`
	State        VoucherState `gorm:"size:16;index" json:"state"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
	RedeemedAt   *time.Time   `json:"redeemed_at,omitempty"`
}

// DerivedState resolves the lazy EXPIRED state: a CREATED record past its
// expiry reads as EXPIRED without a stored transition.
func (r *VoucherRecord) DerivedState(now time.Time) VoucherState {
	if r.State == VoucherStateCreated && now.After(r.ExpiresAt) {
		return VoucherStateExpired
	}
	return r.State
}

// Claims rebuilds the signed payload from the record.
func (r *VoucherRecord) Claims() *securetoken.Claims {
	return &securetoken.Claims{
		Code:         r.Code,
		CreatedAt:    r.CreatedAt,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		ExpiresAt:    r.ExpiresAt,
		Version:      r.Version,
	}
}

type VoucherIssueRequest struct {
	EmployeeID   string `json:"employee_id" validate:"required,employee_id"`
	EmployeeName string `json:"employee_name" validate:"required,max=255"`
	// ValidityHours overrides the configured default when set. An explicit
	// zero or negative value is honored as-is and yields an
	// immediately-expired voucher.
	ValidityHours *int `json:"validity_hours,omitempty"`
}

// IssuedVoucher is the result of Issue: the bare code for display and
// manual-entry fallback, the full signed token for QR encoding and
// messaging, and the persisted record.
type IssuedVoucher struct {
	Code   string         `json:"code"`
	Token  string         `json:"token"`
	Record *VoucherRecord `json:"record"`
}

// ValidationResult is the result of Validate and Redeem.
type ValidationResult struct {
	Outcome Outcome             `json:"outcome"`
	Claims  *securetoken.Claims `json:"claims,omitempty"`
	// LowAssurance marks results reached through the bare legacy code path,
	// which skips signature verification by construction. Callers may apply
	// stricter policy to these.
	LowAssurance bool            `json:"low_assurance"`
	RateLimit    *ratelimit.Info `json:"rate_limit,omitempty"`
}

// VoucherInfo is the admin inspection view of one voucher.
type VoucherInfo struct {
	Record        *VoucherRecord `json:"record"`
	Status        VoucherState   `json:"status"`
	TimeRemaining string         `json:"time_remaining"`
}

// VoucherStats counts vouchers by derived state.
type VoucherStats struct {
	Total    int64 `json:"total"`
	Created  int64 `json:"created"`
	Redeemed int64 `json:"redeemed"`
	Expired  int64 `json:"expired"`
}

// NewVoucherRecord builds a CREATED record with normalized UTC timestamps.
func NewVoucherRecord(code, employeeID, employeeName string, issuedAt time.Time, validity time.Duration) *VoucherRecord {
	issuedAt = pkg.NormalizeUTC(issuedAt)
	return &VoucherRecord{
		Code:         code,
		EmployeeID:   employeeID,
		EmployeeName: employeeName,
		Version:      securetoken.Version,
		State:        VoucherStateCreated,
		CreatedAt:    issuedAt,
		ExpiresAt:    issuedAt.Add(validity),
	}
}
