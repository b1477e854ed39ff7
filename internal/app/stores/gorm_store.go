package stores

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/heyheylabs/bdvoucher-core/internal/app/models"
	"github.com/heyheylabs/bdvoucher-core/pkg/crypt"
)

// GormVoucherStore is the durable VoucherStore backed by Postgres via GORM.
// The CREATED -> REDEEMED transition is a single conditional UPDATE, so the
// row-level atomicity of the database decides the winner among concurrent
// redemptions. Employee display names are encrypted at rest when a cipher
// is configured.
type GormVoucherStore struct {
	db     *gorm.DB
	cipher *crypt.Cipher
}

// NewGormVoucherStore creates a GormVoucherStore. cipher may be nil to
// store names in plaintext.
func NewGormVoucherStore(db *gorm.DB, cipher *crypt.Cipher) *GormVoucherStore {
	return &GormVoucherStore{db: db, cipher: cipher}
}

func (s *GormVoucherStore) Insert(record *models.VoucherRecord) error {
	row := *record
	if s.cipher != nil {
		encrypted, err := s.cipher.Encrypt(row.EmployeeName)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		row.EmployeeName = encrypted
	}

	if err := s.db.Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCodeExists
		}
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *GormVoucherStore) FindByCode(code string) (*models.VoucherRecord, error) {
	var record models.VoucherRecord
	err := s.db.Where("code = ?", code).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVoucherNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	if err := s.decryptName(&record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormVoucherStore) MarkRedeemed(code string, now time.Time) (*models.VoucherRecord, error) {
	result := s.db.Model(&models.VoucherRecord{}).
		Where("code = ? AND state = ? AND expires_at > ?", code, models.VoucherStateCreated, now).
		Updates(map[string]interface{}{
			"state":       models.VoucherStateRedeemed,
			"redeemed_at": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, result.Error)
	}

	if result.RowsAffected == 1 {
		return s.FindByCode(code)
	}

	// Zero rows: re-read to tell why the conditional update missed.
	record, err := s.FindByCode(code)
	if err != nil {
		return nil, err
	}
	if record.State == models.VoucherStateRedeemed {
		return nil, ErrAlreadyRedeemed
	}
	return nil, ErrVoucherExpired
}

func (s *GormVoucherStore) List(page, limit int, state *models.VoucherState) ([]models.VoucherRecord, int64, error) {
	countQuery := s.db.Model(&models.VoucherRecord{})
	if state != nil {
		countQuery = countQuery.Where("state = ?", *state)
	}

	var totalItems int64
	if err := countQuery.Count(&totalItems).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var records []models.VoucherRecord
	query := s.db.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit)
	if state != nil {
		query = query.Where("state = ?", *state)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	for i := range records {
		if err := s.decryptName(&records[i]); err != nil {
			return nil, 0, err
		}
	}
	return records, totalItems, nil
}

func (s *GormVoucherStore) CountByState(now time.Time) (*models.VoucherStats, error) {
	stats := &models.VoucherStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.Total, s.db.Model(&models.VoucherRecord{})},
		{&stats.Created, s.db.Model(&models.VoucherRecord{}).
			Where("state = ? AND expires_at > ?", models.VoucherStateCreated, now)},
		{&stats.Redeemed, s.db.Model(&models.VoucherRecord{}).
			Where("state = ?", models.VoucherStateRedeemed)},
		{&stats.Expired, s.db.Model(&models.VoucherRecord{}).
			Where("state = ? OR (state = ? AND expires_at <= ?)",
				models.VoucherStateExpired, models.VoucherStateCreated, now)},
	}

	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
	}
	return stats, nil
}

func (s *GormVoucherStore) MarkExpired(now time.Time) (int64, error) {
	result := s.db.Model(&models.VoucherRecord{}).
		Where("state = ? AND expires_at <= ?", models.VoucherStateCreated, now).
		Update("state", models.VoucherStateExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, result.Error)
	}
	return result.RowsAffected, nil
}

func (s *GormVoucherStore) decryptName(record *models.VoucherRecord) error {
	if s.cipher == nil {
		return nil
	}
	name, err := s.cipher.Decrypt(record.EmployeeName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	record.EmployeeName = name
	return nil
}

// GormEventStore is the durable EventStore backed by Postgres via GORM.
type GormEventStore struct {
	db *gorm.DB
}

func NewGormEventStore(db *gorm.DB) *GormEventStore {
	return &GormEventStore{db: db}
}

func (s *GormEventStore) Append(event *models.VoucherEvent) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *GormEventStore) List(page, limit int, code *string) ([]models.VoucherEvent, int64, error) {
	countQuery := s.db.Model(&models.VoucherEvent{})
	if code != nil {
		countQuery = countQuery.Where("code = ?", *code)
	}

	var totalItems int64
	if err := countQuery.Count(&totalItems).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	var events []models.VoucherEvent
	query := s.db.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit)
	if code != nil {
		query = query.Where("code = ?", *code)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return events, totalItems, nil
}
