package stores

import (
	"sort"
	"sync"
	"time"

	"github.com/heyheylabs/bdvoucher-core/internal/app/models"
)

// MemoryVoucherStore is a mutex-guarded in-process VoucherStore for
// single-process deployments and tests. The mutex makes MarkRedeemed's
// check-and-set indivisible.
type MemoryVoucherStore struct {
	mu      sync.RWMutex
	records map[string]*models.VoucherRecord
}

func NewMemoryVoucherStore() *MemoryVoucherStore {
	return &MemoryVoucherStore{
		records: make(map[string]*models.VoucherRecord),
	}
}

func (s *MemoryVoucherStore) Insert(record *models.VoucherRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.Code]; ok {
		return ErrCodeExists
	}

	clone := *record
	s.records[record.Code] = &clone
	return nil
}

func (s *MemoryVoucherStore) FindByCode(code string) (*models.VoucherRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[code]
	if !ok {
		return nil, ErrVoucherNotFound
	}

	clone := *record
	return &clone, nil
}

func (s *MemoryVoucherStore) MarkRedeemed(code string, now time.Time) (*models.VoucherRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[code]
	if !ok {
		return nil, ErrVoucherNotFound
	}
	if record.State == models.VoucherStateRedeemed {
		return nil, ErrAlreadyRedeemed
	}
	if record.State == models.VoucherStateExpired || now.After(record.ExpiresAt) {
		return nil, ErrVoucherExpired
	}

	redeemedAt := now
	record.State = models.VoucherStateRedeemed
	record.RedeemedAt = &redeemedAt

	clone := *record
	return &clone, nil
}

func (s *MemoryVoucherStore) List(page, limit int, state *models.VoucherState) ([]models.VoucherRecord, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.VoucherRecord
	for _, record := range s.records {
		if state != nil && record.State != *state {
			continue
		}
		matched = append(matched, *record)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []models.VoucherRecord{}, total, nil
	}

	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (s *MemoryVoucherStore) CountByState(now time.Time) (*models.VoucherStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.VoucherStats{}
	for _, record := range s.records {
		stats.Total++
		switch record.DerivedState(now) {
		case models.VoucherStateCreated:
			stats.Created++
		case models.VoucherStateRedeemed:
			stats.Redeemed++
		case models.VoucherStateExpired:
			stats.Expired++
		}
	}
	return stats, nil
}

func (s *MemoryVoucherStore) MarkExpired(now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed int64
	for _, record := range s.records {
		if record.State == models.VoucherStateCreated && now.After(record.ExpiresAt) {
			record.State = models.VoucherStateExpired
			changed++
		}
	}
	return changed, nil
}

// MemoryEventStore is a mutex-guarded in-process EventStore.
type MemoryEventStore struct {
	mu     sync.RWMutex
	events []models.VoucherEvent
}

func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{}
}

func (s *MemoryEventStore) Append(event *models.VoucherEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, *event)
	return nil
}

func (s *MemoryEventStore) List(page, limit int, code *string) ([]models.VoucherEvent, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []models.VoucherEvent
	for _, event := range s.events {
		if code != nil && event.Code != *code {
			continue
		}
		matched = append(matched, event)
	}

	// events append in order; newest first
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	offset := (page - 1) * limit
	if offset >= len(matched) {
		return []models.VoucherEvent{}, total, nil
	}

	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
