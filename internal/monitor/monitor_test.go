package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/datptitudu2/backendthuvienptit/internal/database/dbtest"
	"github.com/datptitudu2/backendthuvienptit/internal/database/notifications"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
	"github.com/datptitudu2/backendthuvienptit/internal/notify"
)

var now = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return entities.DateOf(now).AddDate(0, 0, offset)
}

func setupMonitor(t *testing.T) (*Monitor, *gorm.DB) {
	db := dbtest.Open(t)
	svc := notify.NewService(notifications.NewRepository(db), users.NewRepository(db))
	return New(db, svc, WithClock(func() time.Time { return now })), db
}

func inbox(t *testing.T, db *gorm.DB, userID uint, kind entities.NotificationType) []entities.Notification {
	var out []entities.Notification
	require.NoError(t, db.Where("user_id = ? AND type = ?", userID, kind).Order("id").Find(&out).Error)
	return out
}

func TestMonitor_DueSoonSweep(t *testing.T) {
	m, db := setupMonitor(t)
	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 2)

	dbtest.Loan(t, db, user, book, day(2))
	dbtest.Loan(t, db, user, book, day(10))
	ctx := context.Background()

	res, err := m.RunDueSoonSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, 1, res.Notified)

	got := inbox(t, db, user.ID, entities.NotificationDueDate)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "2 days")
	assert.Contains(t, got[0].Message, "Dune")

	t.Run("same day rerun is a no-op", func(t *testing.T) {
		res, err := m.RunDueSoonSweep(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Notified)
		assert.Equal(t, 1, res.Skipped)
		assert.Len(t, inbox(t, db, user.ID, entities.NotificationDueDate), 1)
	})
}

func TestMonitor_DueSoonSweep_SkipsReturned(t *testing.T) {
	m, db := setupMonitor(t)
	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 5)

	loan := dbtest.Loan(t, db, user, book, day(1))
	require.NoError(t, db.Model(loan).Updates(map[string]any{"status": entities.LoanStatusReturned, "return_date": now}).Error)

	res, err := m.RunDueSoonSweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Scanned)
	assert.Empty(t, inbox(t, db, user.ID, entities.NotificationDueDate))
}

func TestMonitor_OverdueSweep(t *testing.T) {
	m, db := setupMonitor(t)
	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 3)

	dbtest.Loan(t, db, user, book, day(-3))
	dbtest.Loan(t, db, user, book, day(1))

	res, err := m.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, 1, res.Notified)

	got := inbox(t, db, user.ID, entities.NotificationOverdue)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "3 days overdue")
}

func TestMonitor_LoanDueToday(t *testing.T) {
	m, db := setupMonitor(t)
	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 4)
	dbtest.Loan(t, db, user, book, day(0))
	ctx := context.Background()

	// Also at the stroke of midnight, when the overdue cron fires.
	for _, at := range []time.Time{day(0), now, day(1).Add(-time.Second)} {
		m := New(db, m.notifier, WithClock(func() time.Time { return at }))

		res, err := m.RunOverdueSweep(ctx)
		require.NoError(t, err)
		assert.Zero(t, res.Scanned, at)
	}
	assert.Empty(t, inbox(t, db, user.ID, entities.NotificationOverdue))

	res, err := m.RunDueSoonSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	got := inbox(t, db, user.ID, entities.NotificationDueDate)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "is due today (2024-03-10)")

	tomorrow := New(db, m.notifier, WithClock(func() time.Time { return day(1) }))
	res, err = tomorrow.RunOverdueSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	got = inbox(t, db, user.ID, entities.NotificationOverdue)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "1 day overdue")
}

func TestMonitor_OverdueSweep_RepeatsNextDay(t *testing.T) {
	m, db := setupMonitor(t)
	user := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 4)
	dbtest.Loan(t, db, user, book, day(-1))
	ctx := context.Background()

	_, err := m.RunOverdueSweep(ctx)
	require.NoError(t, err)

	tomorrow := New(db, m.notifier, WithClock(func() time.Time { return now.Add(24 * time.Hour) }))
	res, err := tomorrow.RunOverdueSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Len(t, inbox(t, db, user.ID, entities.NotificationOverdue), 2)
}

func TestMonitor_LowStockSweep(t *testing.T) {
	m, db := setupMonitor(t)
	reader := dbtest.User(t, db, "reader@example.com", entities.UserRoleUser)
	admin1 := dbtest.User(t, db, "admin1@example.com", entities.UserRoleAdmin)
	admin2 := dbtest.User(t, db, "admin2@example.com", entities.UserRoleAdmin)

	dbtest.Book(t, db, "Low", 10, 2)
	dbtest.Book(t, db, "Out", 3, 0)
	dbtest.Book(t, db, "Plenty", 10, 8)

	res, err := m.RunLowStockSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Scanned)
	assert.Equal(t, 2, res.Notified)

	for _, admin := range []*entities.User{admin1, admin2} {
		got := inbox(t, db, admin.ID, entities.NotificationLowStock)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, "Low")
	}
	assert.Empty(t, inbox(t, db, reader.ID, entities.NotificationLowStock))

	require.NoError(t, m.TriggerLowStockSweep(context.Background()))
	assert.Len(t, inbox(t, db, admin1.ID, entities.NotificationLowStock), 1)
}

func TestMonitor_LowStockSweep_ReportsFurtherDrop(t *testing.T) {
	m, db := setupMonitor(t)
	admin := dbtest.User(t, db, "admin@example.com", entities.UserRoleAdmin)
	book := dbtest.Book(t, db, "Dune", 10, 4)
	ctx := context.Background()

	_, err := m.RunLowStockSweep(ctx)
	require.NoError(t, err)

	require.NoError(t, db.Model(book).Update("available_quantity", 1).Error)
	res, err := m.RunLowStockSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)

	res, err = m.RunLowStockSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	got := inbox(t, db, admin.ID, entities.NotificationLowStock)
	require.Len(t, got, 2)
	assert.Contains(t, got[0].Message, "only 4 of 10")
	assert.Contains(t, got[1].Message, "only 1 of 10")
}

type flakyNotifier struct {
	failFor uint
	inner   Notifier
}

func (f flakyNotifier) NotifyOnce(ctx context.Context, key string, userID uint, kind entities.NotificationType, title, message string) (bool, error) {
	if userID == f.failFor {
		return false, errors.New("boom")
	}
	return f.inner.NotifyOnce(ctx, key, userID, kind, title, message)
}

func TestMonitor_NotificationFailureDoesNotStopSweep(t *testing.T) {
	m, db := setupMonitor(t)
	alice := dbtest.User(t, db, "alice@example.com", entities.UserRoleUser)
	bob := dbtest.User(t, db, "bob@example.com", entities.UserRoleUser)
	book := dbtest.Book(t, db, "Dune", 5, 3)
	dbtest.Loan(t, db, alice, book, day(-2))
	dbtest.Loan(t, db, bob, book, day(-2))

	flaky := New(db, flakyNotifier{failFor: alice.ID, inner: m.notifier}, WithClock(func() time.Time { return now }))
	res, err := flaky.RunOverdueSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Scanned)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 1, res.Notified)
	assert.Len(t, inbox(t, db, bob.ID, entities.NotificationOverdue), 1)
}

func TestMonitor_Run(t *testing.T) {
	m, _ := setupMonitor(t)

	for _, name := range SweepNames() {
		res, err := m.Run(context.Background(), name)
		require.NoError(t, err, name)
		assert.Equal(t, name, res.Name)
	}

	_, err := m.Run(context.Background(), "weekly")
	assert.ErrorIs(t, err, ErrUnknownSweep)
}

func TestDedupeKey(t *testing.T) {
	assert.Equal(t, "due_date:7:2024-03-10", dedupeKey(entities.NotificationDueDate, now, 7))
	assert.Equal(t, "low_stock:3:9:2:2024-03-10", dedupeKey(entities.NotificationLowStock, now, 3, 9, 2))
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, daysBetween(now, day(0)))
	assert.Equal(t, 2, daysBetween(now, day(2)))
	assert.Equal(t, 3, daysBetween(day(-3), now))
	assert.Equal(t, "today", dueIn(0))
	assert.Equal(t, "in 1 day", dueIn(1))
	assert.Equal(t, "in 3 days", dueIn(3))
}
