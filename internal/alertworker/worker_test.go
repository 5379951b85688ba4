package alertworker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/courier/internal/clock"
	"github.com/smallbiznis/courier/internal/config"
	entitlementdomain "github.com/smallbiznis/courier/internal/entitlement/domain"
	entitlementrepo "github.com/smallbiznis/courier/internal/entitlement/repository"
	entitlementservice "github.com/smallbiznis/courier/internal/entitlement/service"
	messagedomain "github.com/smallbiznis/courier/internal/message/domain"
	messagerepo "github.com/smallbiznis/courier/internal/message/repository"
	userdomain "github.com/smallbiznis/courier/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type reminder struct {
	userID  snowflake.ID
	subject string
	body    string
}

type notifierStub struct {
	mu        sync.Mutex
	reminders []reminder
	failFor   map[snowflake.ID]error
}

func (n *notifierStub) NotifyUser(ctx context.Context, userID snowflake.ID, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err, ok := n.failFor[userID]; ok {
		return err
	}
	n.reminders = append(n.reminders, reminder{userID: userID, subject: subject, body: body})
	return nil
}

func (n *notifierStub) sent() []reminder {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]reminder, len(n.reminders))
	copy(out, n.reminders)
	return out
}

type fixture struct {
	worker   *Worker
	notifier *notifierStub
	entSvc   entitlementdomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	stripForUpdate := func(d *gorm.DB) {
		sql := d.Statement.SQL.String()
		if strings.Contains(sql, "FOR UPDATE") {
			d.Statement.SQL.Reset()
			d.Statement.SQL.WriteString(strings.ReplaceAll(sql, "FOR UPDATE", ""))
		}
	}
	db.Callback().Query().Before("gorm:query").Register("sqlite_skip_for_update", stripForUpdate)
	db.Callback().Row().Before("gorm:row").Register("sqlite_skip_for_update_row", stripForUpdate)

	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&entitlementdomain.Entitlement{},
		&messagedomain.Message{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	entSvc := entitlementservice.New(entitlementservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  entitlementrepo.Provide(),
	})

	notifier := &notifierStub{failFor: map[snowflake.ID]error{}}
	worker, err := New(Params{
		DB:       db,
		Log:      log,
		Clock:    fake,
		Policy:   config.NewStaticAlertPolicyHolder(config.DefaultAlertPolicy()),
		Repo:     messagerepo.Provide(),
		EntSvc:   entSvc,
		Notifier: notifier,
	})
	require.NoError(t, err)

	return &fixture{
		worker:   worker,
		notifier: notifier,
		entSvc:   entSvc,
		db:       db,
		node:     node,
		clock:    fake,
	}
}

func (f *fixture) grantAlerts(t *testing.T, userID snowflake.ID) {
	t.Helper()
	_, err := f.entSvc.Grant(context.Background(), userID, entitlementdomain.FeatureEmailAlerts, 365*24*time.Hour)
	require.NoError(t, err)
}

func (f *fixture) insertDirectMessage(t *testing.T, sender, receiver snowflake.ID, age time.Duration) snowflake.ID {
	t.Helper()
	msg := messagedomain.Message{
		ID:         f.node.Generate(),
		SenderID:   sender,
		ReceiverID: &receiver,
		Content:    "ping",
		SentAt:     f.clock.Now().Add(-age),
		CreatedAt:  f.clock.Now().Add(-age),
	}
	require.NoError(t, f.db.Create(&msg).Error)
	return msg.ID
}

func (f *fixture) lastNotifiedAt(t *testing.T, id snowflake.ID) *time.Time {
	t.Helper()
	var msg messagedomain.Message
	require.NoError(t, f.db.First(&msg, "id = ?", id).Error)
	return msg.LastNotifiedAt
}

func TestRunOnceNotifiesStaleUnread(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sender := f.node.Generate()
	receiver := f.node.Generate()
	f.grantAlerts(t, receiver)

	staleID := f.insertDirectMessage(t, sender, receiver, time.Hour)
	freshID := f.insertDirectMessage(t, sender, receiver, 5*time.Minute)

	require.NoError(t, f.worker.RunOnce(ctx))

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, receiver, sent[0].userID)
	assert.Equal(t, "Unread message reminder", sent[0].subject)
	assert.Contains(t, sent[0].body, fmt.Sprintf("user %d", sender))

	assert.NotNil(t, f.lastNotifiedAt(t, staleID))
	assert.Nil(t, f.lastNotifiedAt(t, freshID))
}

func TestRunOnceIsIdempotentPerWindow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sender := f.node.Generate()
	receiver := f.node.Generate()
	f.grantAlerts(t, receiver)

	f.insertDirectMessage(t, sender, receiver, time.Hour)

	require.NoError(t, f.worker.RunOnce(ctx))
	require.Len(t, f.notifier.sent(), 1)

	// Next tick inside the staleness window stays quiet.
	f.clock.Advance(5 * time.Minute)
	require.NoError(t, f.worker.RunOnce(ctx))
	require.Len(t, f.notifier.sent(), 1)

	// Once the marker itself goes stale the reminder repeats.
	f.clock.Advance(30 * time.Minute)
	require.NoError(t, f.worker.RunOnce(ctx))
	require.Len(t, f.notifier.sent(), 2)
}

func TestRunOnceSkipsReadMessages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sender := f.node.Generate()
	receiver := f.node.Generate()
	f.grantAlerts(t, receiver)

	id := f.insertDirectMessage(t, sender, receiver, time.Hour)
	require.NoError(t, f.db.Model(&messagedomain.Message{}).
		Where("id = ?", id).
		Update("is_read", true).Error)

	require.NoError(t, f.worker.RunOnce(ctx))
	assert.Empty(t, f.notifier.sent())
}

func TestRunOnceMarksNonEntitledRecipients(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sender := f.node.Generate()
	receiver := f.node.Generate()

	id := f.insertDirectMessage(t, sender, receiver, time.Hour)

	require.NoError(t, f.worker.RunOnce(ctx))
	assert.Empty(t, f.notifier.sent())

	// The row is marked anyway so it is not rescanned every tick.
	assert.NotNil(t, f.lastNotifiedAt(t, id))
}

func TestRunOnceDeliveryFailureLeavesRowUnmarked(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sender := f.node.Generate()
	okReceiver := f.node.Generate()
	badReceiver := f.node.Generate()
	f.grantAlerts(t, okReceiver)
	f.grantAlerts(t, badReceiver)
	f.notifier.failFor[badReceiver] = errors.New("smtp unavailable")

	badID := f.insertDirectMessage(t, sender, badReceiver, 2*time.Hour)
	okID := f.insertDirectMessage(t, sender, okReceiver, time.Hour)

	// One failing recipient does not poison the rest of the batch.
	require.NoError(t, f.worker.RunOnce(ctx))

	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, okReceiver, sent[0].userID)
	assert.NotNil(t, f.lastNotifiedAt(t, okID))

	// The failed row stays unmarked and is retried next tick.
	assert.Nil(t, f.lastNotifiedAt(t, badID))
	delete(f.notifier.failFor, badReceiver)
	require.NoError(t, f.worker.RunOnce(ctx))
	require.Len(t, f.notifier.sent(), 2)
	assert.NotNil(t, f.lastNotifiedAt(t, badID))
}

func TestRunOnceHonorsCancellation(t *testing.T) {
	f := setup(t)
	sender := f.node.Generate()
	receiver := f.node.Generate()
	f.grantAlerts(t, receiver)
	f.insertDirectMessage(t, sender, receiver, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.worker.RunOnce(ctx)
	require.Error(t, err)
	assert.Empty(t, f.notifier.sent())
}

func TestRunForeverStopsOnCancel(t *testing.T) {
	f := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.worker.RunForever(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
