package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/heyheylabs/bdvoucher-core/internal/app/errors"
	"github.com/heyheylabs/bdvoucher-core/internal/app/models"
	"github.com/heyheylabs/bdvoucher-core/internal/app/pkg"
	"github.com/heyheylabs/bdvoucher-core/internal/app/stores"
	"github.com/heyheylabs/bdvoucher-core/internal/infrastructures"
	"github.com/heyheylabs/bdvoucher-core/pkg/crypt"
	"github.com/heyheylabs/bdvoucher-core/pkg/ratelimit"
	"github.com/heyheylabs/bdvoucher-core/pkg/securetoken"
)

// maxIssueRetries bounds code regeneration on the (negligible-probability)
// duplicate-code collision at insert.
const maxIssueRetries = 3

// EngineOptions carries the engine's configuration. Values come from
// AppConfig at construction; the engine never reads the environment at
// call time.
type EngineOptions struct {
	// DefaultValidity applies when an issue request sets no validity.
	DefaultValidity time.Duration
	// LegacyCodesEnabled accepts bare unsigned codes on Validate/Redeem.
	LegacyCodesEnabled bool
	// LegacyCutoff, when set, rejects bare codes after this instant even if
	// LegacyCodesEnabled is true, time-boxing the unsigned fallback path.
	LegacyCutoff *time.Time
}

// VoucherService issues, validates and redeems single-use reward vouchers.
// Validate is read-only; only Redeem mutates state, and the store's
// compare-and-set guarantees at most one redemption per code.
type VoucherService struct {
	store     stores.VoucherStore
	limiter   ratelimit.Limiter
	keychain  *securetoken.Keychain
	validator *infrastructures.Validator
	audit     *AuditService
	clock     pkg.Clock
	opts      EngineOptions
}

func NewVoucherService(
	store stores.VoucherStore,
	limiter ratelimit.Limiter,
	keychain *securetoken.Keychain,
	validator *infrastructures.Validator,
	audit *AuditService,
	clock pkg.Clock,
	opts EngineOptions,
) *VoucherService {
	return &VoucherService{
		store:     store,
		limiter:   limiter,
		keychain:  keychain,
		validator: validator,
		audit:     audit,
		clock:     clock,
		opts:      opts,
	}
}

// Issue generates a code, persists a CREATED record and returns the signed
// token together with the bare code for display and manual-entry fallback.
func (s *VoucherService) Issue(req *models.VoucherIssueRequest) (*models.IssuedVoucher, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	validity := s.opts.DefaultValidity
	if req.ValidityHours != nil {
		// An explicit zero or negative validity is honored as-is and
		// yields an immediately-expired voucher.
		validity = time.Duration(*req.ValidityHours) * time.Hour
	}

	now := s.clock.Now()

	var record *models.VoucherRecord
	for attempt := 0; ; attempt++ {
		record = models.NewVoucherRecord(pkg.GenerateCode(), req.EmployeeID, req.EmployeeName, now, validity)

		err := s.store.Insert(record)
		if err == nil {
			break
		}
		if errors.Is(err, stores.ErrCodeExists) {
			if attempt < maxIssueRetries {
				continue
			}
			return nil, apperrors.NewConflictError("Voucher code collision, please retry")
		}
		if errors.Is(err, stores.ErrStorageUnavailable) {
			return nil, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
		}
		return nil, apperrors.NewInternalServerError(err, "Failed to persist voucher")
	}

	token, err := s.keychain.Seal(record.Claims())
	if err != nil {
		return nil, apperrors.NewInternalServerError(err, "Failed to sign voucher token")
	}

	if err := s.audit.RecordIssued(record); err != nil {
		logrus.Warnf("voucher %s: failed to append issued event: %v", record.Code, err)
	}

	logrus.WithFields(logrus.Fields{
		"code":          record.Code,
		"employee_id":   record.EmployeeID,
		"employee_name": crypt.MaskName(record.EmployeeName),
		"expires_at":    record.ExpiresAt,
	}).Info("voucher issued")

	return &models.IssuedVoucher{
		Code:   record.Code,
		Token:  token,
		Record: record,
	}, nil
}

// Validate checks raw input (a full signed token or a bare legacy code)
// without mutating any state. Every call counts one rate-limit attempt
// against the resolved code, whatever the outcome.
func (s *VoucherService) Validate(rawInput string) (*models.ValidationResult, error) {
	result, _, err := s.check(rawInput)
	if result.Outcome == "" {
		result.Outcome = models.OutcomeValid
	}
	s.logOutcome("validate", result)
	return result, err
}

// Redeem performs the same checks as Validate and then atomically
// transitions the record CREATED -> REDEEMED. Of N concurrent calls on one
// code, exactly one returns REDEEMED; the rest get ALREADY_REDEEMED.
func (s *VoucherService) Redeem(rawInput string) (*models.ValidationResult, error) {
	result, record, err := s.check(rawInput)
	if result.Outcome != "" || err != nil {
		s.logOutcome("redeem", result)
		return result, err
	}

	redeemed, err := s.store.MarkRedeemed(record.Code, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, stores.ErrAlreadyRedeemed):
			result.Outcome = models.OutcomeAlreadyRedeemed
		case errors.Is(err, stores.ErrVoucherExpired):
			result.Outcome = models.OutcomeExpired
		case errors.Is(err, stores.ErrVoucherNotFound):
			result.Outcome = models.OutcomeNotFound
		default:
			result.Outcome = models.OutcomeStorageUnavailable
			s.logOutcome("redeem", result)
			return result, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
		}
		s.logOutcome("redeem", result)
		return result, nil
	}

	result.Outcome = models.OutcomeRedeemed
	result.Claims = redeemed.Claims()

	if err := s.audit.RecordRedeemed(redeemed); err != nil {
		logrus.Warnf("voucher %s: failed to append redeemed event: %v", redeemed.Code, err)
	}

	s.logOutcome("redeem", result)
	return result, nil
}

// check runs the shared Validate/Redeem pipeline: resolve the input format,
// count the attempt, look up the record, then apply rate-limit, expiry and
// state checks in that order. An empty Outcome on the returned result means
// every check passed.
func (s *VoucherService) check(rawInput string) (*models.ValidationResult, *models.VoucherRecord, error) {
	now := s.clock.Now()

	code, claims, lowAssurance, failure := s.resolve(rawInput, now)
	if failure != "" {
		return &models.ValidationResult{Outcome: failure, LowAssurance: lowAssurance}, nil, nil
	}

	allowed, info := s.limiter.Allow(code)
	if err := s.limiter.RecordAttempt(code); err != nil {
		logrus.Warnf("voucher %s: failed to record rate-limit attempt: %v", code, err)
	}

	result := &models.ValidationResult{
		Claims:       claims,
		LowAssurance: lowAssurance,
		RateLimit:    &info,
	}

	record, err := s.store.FindByCode(code)
	if err != nil {
		if errors.Is(err, stores.ErrVoucherNotFound) {
			result.Outcome = models.OutcomeNotFound
			return result, nil, nil
		}
		result.Outcome = models.OutcomeStorageUnavailable
		return result, nil, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
	}
	result.Claims = record.Claims()

	if !allowed {
		result.Outcome = models.OutcomeRateLimited
		return result, nil, nil
	}

	switch record.DerivedState(now) {
	case models.VoucherStateExpired:
		result.Outcome = models.OutcomeExpired
		return result, nil, nil
	case models.VoucherStateRedeemed:
		result.Outcome = models.OutcomeAlreadyRedeemed
		return result, nil, nil
	}

	return result, record, nil
}

// resolve classifies raw input and extracts the voucher code. Token input
// is decoded and its signature verified; bare input is accepted only under
// the legacy policy and flagged low-assurance because there is no
// signature to verify.
func (s *VoucherService) resolve(rawInput string, now time.Time) (code string, claims *securetoken.Claims, lowAssurance bool, failure models.Outcome) {
	switch securetoken.DetectFormat(rawInput) {
	case securetoken.FormatToken:
		opened, err := s.keychain.Open(rawInput)
		if err != nil {
			switch {
			case errors.Is(err, securetoken.ErrUnsupportedVersion):
				return "", nil, false, models.OutcomeUnsupportedVersion
			case errors.Is(err, securetoken.ErrInvalidSignature):
				return "", nil, false, models.OutcomeInvalidSignature
			default:
				return "", nil, false, models.OutcomeMalformedToken
			}
		}
		return opened.Code, opened, false, ""

	case securetoken.FormatBare:
		if !s.opts.LegacyCodesEnabled {
			return "", nil, true, models.OutcomeMalformedToken
		}
		if s.opts.LegacyCutoff != nil && now.After(*s.opts.LegacyCutoff) {
			return "", nil, true, models.OutcomeMalformedToken
		}
		return rawInput, nil, true, ""

	default:
		return "", nil, false, models.OutcomeMalformedToken
	}
}

// GetVoucherInfo returns the admin inspection view for one code.
func (s *VoucherService) GetVoucherInfo(code string) (*models.VoucherInfo, error) {
	record, err := s.store.FindByCode(code)
	if err != nil {
		if errors.Is(err, stores.ErrVoucherNotFound) {
			return nil, apperrors.NewNotFoundError("Voucher not found")
		}
		return nil, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
	}

	now := s.clock.Now()
	return &models.VoucherInfo{
		Record:        record,
		Status:        record.DerivedState(now),
		TimeRemaining: pkg.FormatRemaining(record.ExpiresAt.Sub(now)),
	}, nil
}

// GetVouchers returns a page of voucher records, optionally filtered by
// stored state.
func (s *VoucherService) GetVouchers(pagination *models.PaginationRequest, state *models.VoucherState) (*models.Pagination[[]models.VoucherRecord], error) {
	if pagination.Limit <= 0 {
		pagination.Limit = 10
	}
	if pagination.Page <= 0 {
		pagination.Page = 1
	}

	records, totalItems, err := s.store.List(pagination.Page, pagination.Limit, state)
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
	}

	totalPages := int((totalItems + int64(pagination.Limit) - 1) / int64(pagination.Limit))

	return &models.Pagination[[]models.VoucherRecord]{
		Page:       pagination.Page,
		Limit:      pagination.Limit,
		TotalPages: totalPages,
		TotalItems: int(totalItems),
		HasNext:    pagination.Page < totalPages,
		HasPrev:    pagination.Page > 1,
		Items:      records,
	}, nil
}

// Stats tallies vouchers by derived state as of now.
func (s *VoucherService) Stats() (*models.VoucherStats, error) {
	stats, err := s.store.CountByState(s.clock.Now())
	if err != nil {
		return nil, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
	}
	return stats, nil
}

// SweepExpired materializes EXPIRED on records past their expiry and
// returns how many rows changed. Lazy derivation at read time remains the
// source of truth; this keeps listings and dashboards tidy.
func (s *VoucherService) SweepExpired() (int64, error) {
	changed, err := s.store.MarkExpired(s.clock.Now())
	if err != nil {
		return 0, apperrors.NewServiceUnavailableError("Voucher storage unavailable")
	}

	if changed > 0 {
		if err := s.audit.RecordExpiredSweep(changed); err != nil {
			logrus.Warnf("failed to append expired-sweep event: %v", err)
		}
		logrus.Infof("expired sweep marked %d vouchers", changed)
	}
	return changed, nil
}

func (s *VoucherService) logOutcome(operation string, result *models.ValidationResult) {
	fields := logrus.Fields{
		"operation":     operation,
		"outcome":       result.Outcome,
		"low_assurance": result.LowAssurance,
	}
	if result.Claims != nil {
		fields["code"] = result.Claims.Code
		fields["employee_id"] = result.Claims.EmployeeID
	}

	entry := logrus.WithFields(fields)
	if result.Outcome.Success() {
		entry.Info(fmt.Sprintf("voucher %s succeeded", operation))
	} else {
		entry.Warn(fmt.Sprintf("voucher %s rejected", operation))
	}
}
