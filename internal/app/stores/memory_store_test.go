package stores

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heyheylabs/bdvoucher-core/internal/app/models"
)

func testRecord(code string, issuedAt time.Time, validity time.Duration) *models.VoucherRecord {
	return models.NewVoucherRecord(code, "EMP001", "John Doe", issuedAt, validity)
}

func TestMemoryStoreInsertAndFind(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, 24*time.Hour)))

	found, err := store.FindByCode("CODEA2345678")
	require.NoError(t, err)
	assert.Equal(t, "EMP001", found.EmployeeID)
	assert.Equal(t, models.VoucherStateCreated, found.State)

	_, err = store.FindByCode("MISSING23456")
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

func TestMemoryStoreInsertDuplicate(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, 24*time.Hour)))
	err := store.Insert(testRecord("CODEA2345678", issuedAt, 24*time.Hour))
	assert.ErrorIs(t, err, ErrCodeExists)
}

func TestMemoryStoreMarkRedeemed(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, 24*time.Hour)))

	now := issuedAt.Add(time.Hour)
	redeemed, err := store.MarkRedeemed("CODEA2345678", now)
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStateRedeemed, redeemed.State)
	require.NotNil(t, redeemed.RedeemedAt)
	assert.True(t, redeemed.RedeemedAt.Equal(now))

	// Redemption is terminal.
	_, err = store.MarkRedeemed("CODEA2345678", now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestMemoryStoreMarkRedeemedExpired(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, time.Hour)))

	_, err := store.MarkRedeemed("CODEA2345678", issuedAt.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrVoucherExpired)
}

func TestMemoryStoreMarkRedeemedNotFound(t *testing.T) {
	store := NewMemoryVoucherStore()
	_, err := store.MarkRedeemed("MISSING23456", time.Now())
	assert.ErrorIs(t, err, ErrVoucherNotFound)
}

// Two simultaneous redemptions on the same code must yield exactly one
// winner, never two and never a lost update.
func TestMemoryStoreConcurrentRedemption(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, 24*time.Hour)))

	const redeemers = 50
	var successes, alreadyRedeemed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.MarkRedeemed("CODEA2345678", issuedAt.Add(time.Hour))
			switch {
			case err == nil:
				successes.Add(1)
			case err == ErrAlreadyRedeemed:
				alreadyRedeemed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes.Load())
	assert.Equal(t, int64(redeemers-1), alreadyRedeemed.Load())
}

func TestMemoryStoreListAndStats(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, 24*time.Hour)))
	require.NoError(t, store.Insert(testRecord("CODEB2345678", issuedAt.Add(time.Minute), time.Hour)))
	require.NoError(t, store.Insert(testRecord("CODEC2345678", issuedAt.Add(2*time.Minute), 24*time.Hour)))
	_, err := store.MarkRedeemed("CODEC2345678", issuedAt.Add(time.Hour))
	require.NoError(t, err)

	records, total, err := store.List(1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, records, 3)
	// Newest first.
	assert.Equal(t, "CODEC2345678", records[0].Code)

	state := models.VoucherStateRedeemed
	records, total, err = store.List(1, 10, &state)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, records, 1)
	assert.Equal(t, "CODEC2345678", records[0].Code)

	// CODEB has lapsed by now: derived expired in stats.
	stats, err := store.CountByState(issuedAt.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Created)
	assert.Equal(t, int64(1), stats.Redeemed)
	assert.Equal(t, int64(1), stats.Expired)
}

func TestMemoryStoreMarkExpired(t *testing.T) {
	store := NewMemoryVoucherStore()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(testRecord("CODEA2345678", issuedAt, time.Hour)))
	require.NoError(t, store.Insert(testRecord("CODEB2345678", issuedAt, 24*time.Hour)))

	changed, err := store.MarkExpired(issuedAt.Add(2 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)

	record, err := store.FindByCode("CODEA2345678")
	require.NoError(t, err)
	assert.Equal(t, models.VoucherStateExpired, record.State)

	// Idempotent.
	changed, err = store.MarkExpired(issuedAt.Add(3 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
}

func TestMemoryEventStore(t *testing.T) {
	store := NewMemoryEventStore()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(&models.VoucherEvent{Code: "CODEA2345678", Type: models.VoucherEventIssued, CreatedAt: now}))
	require.NoError(t, store.Append(&models.VoucherEvent{Code: "CODEA2345678", Type: models.VoucherEventRedeemed, CreatedAt: now.Add(time.Hour)}))
	require.NoError(t, store.Append(&models.VoucherEvent{Code: "CODEB2345678", Type: models.VoucherEventIssued, CreatedAt: now.Add(2 * time.Hour)}))

	events, total, err := store.List(1, 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, events, 3)
	assert.Equal(t, models.VoucherEventIssued, events[0].Type)
	assert.Equal(t, "CODEB2345678", events[0].Code)

	code := "CODEA2345678"
	events, total, err = store.List(1, 10, &code)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, events, 2)
	assert.Equal(t, models.VoucherEventRedeemed, events[0].Type)
}
