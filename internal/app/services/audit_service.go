package services

import (
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/heyheylabs/bdvoucher-core/internal/app/errors"
	"github.com/heyheylabs/bdvoucher-core/internal/app/models"
	"github.com/heyheylabs/bdvoucher-core/internal/app/pkg"
	"github.com/heyheylabs/bdvoucher-core/internal/app/stores"
)

// AuditService appends and lists voucher lifecycle events, the durable
// history trail behind every issuance and redemption.
type AuditService struct {
	events stores.EventStore
	clock  pkg.Clock
}

func NewAuditService(events stores.EventStore, clock pkg.Clock) *AuditService {
	return &AuditService{
		events: events,
		clock:  clock,
	}
}

// RecordIssued appends an ISSUED event for record.
func (s *AuditService) RecordIssued(record *models.VoucherRecord) error {
	return s.append(models.VoucherEventIssued, record.Code, record.EmployeeID, nil)
}

// RecordRedeemed appends a REDEEMED event for record.
func (s *AuditService) RecordRedeemed(record *models.VoucherRecord) error {
	return s.append(models.VoucherEventRedeemed, record.Code, record.EmployeeID, nil)
}

// RecordExpiredSweep appends one EXPIRED_SWEEP event noting how many
// records the sweep marked.
func (s *AuditService) RecordExpiredSweep(count int64) error {
	details := fmt.Sprintf("marked %d vouchers expired", count)
	return s.append(models.VoucherEventExpiredSweep, "", "", &details)
}

func (s *AuditService) append(eventType models.VoucherEventType, code, employeeID string, details *string) error {
	event := &models.VoucherEvent{
		ID:         uuid.New(),
		Code:       code,
		Type:       eventType,
		EmployeeID: employeeID,
		Details:    details,
		CreatedAt:  s.clock.Now(),
	}
	return s.events.Append(event)
}

// GetEvents returns a page of lifecycle events, newest first, optionally
// filtered by voucher code.
func (s *AuditService) GetEvents(pagination *models.PaginationRequest, code *string) (*models.Pagination[[]models.VoucherEvent], error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 10
	}
	if pagination.Page <= 0 {
		pagination.Page = 1
	}

	events, totalItems, err := s.events.List(pagination.Page, pagination.Limit, code)
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError("Event storage unavailable")
	}

	totalPages := int((totalItems + int64(pagination.Limit) - 1) / int64(pagination.Limit))

	return &models.Pagination[[]models.VoucherEvent]{
		Page:       pagination.Page,
		Limit:      pagination.Limit,
		TotalPages: totalPages,
		TotalItems: int(totalItems),
		HasNext:    pagination.Page < totalPages,
		HasPrev:    pagination.Page > 1,
		Items:      events,
	}, nil
}
