package stores

import (
	"errors"
	"time"

	"github.com/heyheylabs/bdvoucher-core/internal/app/models"
)

var (
	// ErrCodeExists reports an insert whose code collides with a live record.
	ErrCodeExists = errors.New("stores: voucher code already exists")
	// ErrVoucherNotFound reports a lookup for an unknown code.
	ErrVoucherNotFound = errors.New("stores: voucher not found")
	// ErrAlreadyRedeemed reports a redeem attempt that lost the
	// CREATED -> REDEEMED race or arrived after a prior redemption.
	ErrAlreadyRedeemed = errors.New("stores: voucher already redeemed")
	// ErrVoucherExpired reports a redeem attempt past the voucher's expiry.
	ErrVoucherExpired = errors.New("stores: voucher expired")
	// ErrStorageUnavailable reports an underlying persistence fault. It is
	// never conflated with ErrVoucherNotFound; callers treat it as retryable.
	ErrStorageUnavailable = errors.New("stores: storage unavailable")
)

// VoucherStore is the durable record of every issued voucher. MarkRedeemed
// must be atomic per code: of N concurrent calls on the same code, exactly
// one succeeds and the rest return ErrAlreadyRedeemed.
type VoucherStore interface {
	// Insert persists a new CREATED record; ErrCodeExists on collision.
	Insert(record *models.VoucherRecord) error
	// FindByCode returns the record for code; ErrVoucherNotFound if absent.
	FindByCode(code string) (*models.VoucherRecord, error)
	// MarkRedeemed atomically transitions CREATED -> REDEEMED before expiry,
	// setting RedeemedAt to now. Failure modes: ErrVoucherNotFound,
	// ErrAlreadyRedeemed, ErrVoucherExpired.
	MarkRedeemed(code string, now time.Time) (*models.VoucherRecord, error)
	// List returns a page of records, optionally filtered by stored state,
	// newest first, plus the total matching count.
	List(page, limit int, state *models.VoucherState) ([]models.VoucherRecord, int64, error)
	// CountByState tallies records by derived state as of now.
	CountByState(now time.Time) (*models.VoucherStats, error)
	// MarkExpired materializes EXPIRED on CREATED records past expiry and
	// returns how many rows changed. Bookkeeping only: DerivedState remains
	// the source of truth for reads.
	MarkExpired(now time.Time) (int64, error)
}

// EventStore is the durable voucher lifecycle history trail.
type EventStore interface {
	Append(event *models.VoucherEvent) error
	// List returns a page of events, newest first, optionally filtered by
	// code, plus the total matching count.
	List(page, limit int, code *string) ([]models.VoucherEvent, int64, error)
}
