package notify

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/leomorpho/bonfire-sub000/internal/model"
	"github.com/leomorpho/bonfire-sub000/internal/store"
)

type pushCall struct {
	UserID      string
	Payload     PushPayload
	RateLimited bool
}

type fakePushSender struct {
	mu      sync.Mutex
	calls   []pushCall
	failFor map[string]bool
}

func (f *fakePushSender) Send(_ context.Context, userID string, payload PushPayload, rateLimited bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return fmt.Errorf("push provider rejected %s", userID)
	}
	f.calls = append(f.calls, pushCall{UserID: userID, Payload: payload, RateLimited: rateLimited})
	return nil
}

func (f *fakePushSender) callsFor(userID string) []pushCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []pushCall
	for _, c := range f.calls {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

type smsCall struct {
	UserID string
	Phone  string
	Text   string
}

type fakeSMSSender struct {
	calls []smsCall
}

func (f *fakeSMSSender) Send(_ context.Context, userID, phone, text, _ string) (string, error) {
	f.calls = append(f.calls, smsCall{UserID: userID, Phone: phone, Text: text})
	return "SM" + uuid.NewString()[:8], nil
}

type emailCall struct {
	UserID string
	Msg    EmailMessage
}

type fakeEmailSender struct {
	calls []emailCall
}

func (f *fakeEmailSender) Send(_ context.Context, msg EmailMessage, _, userID string, _ bool) error {
	f.calls = append(f.calls, emailCall{UserID: userID, Msg: msg})
	return nil
}

type testEnv struct {
	engine *Engine
	store  *store.Store
	db     *gorm.DB
	push   *fakePushSender
	sms    *fakeSMSSender
	email  *fakeEmailSender
	now    time.Time
	ctx    context.Context
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(
		&model.QueueEntry{}, &model.Notification{}, &model.PermissionSetting{},
		&model.TaskLock{}, &model.DeliveryAudit{}, &model.UnsubscribeToken{},
		&model.Event{}, &model.User{}, &model.Attendee{}, &model.TempAttendee{},
		&model.Announcement{}, &model.EventFile{}, &model.ChatMessage{}, &model.MessageSeen{},
	))

	log := zap.NewNop().Sugar()
	st := store.New(db, nil, log)
	env := &testEnv{
		store: st,
		db:    db,
		push:  &fakePushSender{failFor: map[string]bool{}},
		sms:   &fakeSMSSender{},
		email: &fakeEmailSender{},
		now:   time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
		ctx:   context.Background(),
	}
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "https://bonfire.test"
	}
	env.engine = New(st, env.push, env.sms, env.email, log, opts, func() time.Time { return env.now })
	return env
}

func defaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t, Options{DeliverOnMerge: true, ReminderLead: time.Hour})
}

func (env *testEnv) seedEvent(t *testing.T, title, creatorID string) string {
	t.Helper()
	id := uuid.NewString()
	assert.NoError(t, env.db.Create(&model.Event{
		ID: id, Title: title, CreatorID: creatorID,
		StartsAt: env.now.Add(24 * time.Hour),
	}).Error)
	return id
}

func (env *testEnv) seedUser(t *testing.T, name, email, phone string) string {
	t.Helper()
	id := uuid.NewString()
	assert.NoError(t, env.db.Create(&model.User{
		ID: id, Name: name, Email: email, PhoneNumber: phone,
	}).Error)
	return id
}

func (env *testEnv) seedAttendee(t *testing.T, eventID, userID, status string) {
	t.Helper()
	assert.NoError(t, env.db.Create(&model.Attendee{
		ID: uuid.NewString(), EventID: eventID, UserID: userID, Status: status,
	}).Error)
}

func (env *testEnv) grant(t *testing.T, userID, category string, eventID *string, granted bool) {
	t.Helper()
	assert.NoError(t, env.db.Create(&model.PermissionSetting{
		ID: uuid.NewString(), UserID: userID, Category: category,
		EventID: eventID, Granted: granted,
	}).Error)
}

// grantAll gives a user the usual signup defaults: all notification and
// delivery categories on, globally.
func (env *testEnv) grantAll(t *testing.T, userID string) {
	t.Helper()
	for _, cat := range []string{
		CategoryEventActivity, CategoryEventReminders, CategoryEventMessages,
		CategoryPush, CategorySMS, CategoryEmail,
	} {
		env.grant(t, userID, cat, nil, true)
	}
}

func (env *testEnv) seedAnnouncement(t *testing.T, eventID, authorID string) string {
	t.Helper()
	id := uuid.NewString()
	assert.NoError(t, env.db.Create(&model.Announcement{
		ID: id, EventID: eventID, AuthorID: authorID, Content: "hello",
	}).Error)
	return id
}

func (env *testEnv) seedFile(t *testing.T, eventID, uploaderID string) string {
	t.Helper()
	id := uuid.NewString()
	assert.NoError(t, env.db.Create(&model.EventFile{
		ID: id, EventID: eventID, UploaderID: uploaderID,
	}).Error)
	return id
}

func (env *testEnv) seedMessage(t *testing.T, eventID, senderID string) string {
	t.Helper()
	id := uuid.NewString()
	assert.NoError(t, env.db.Create(&model.ChatMessage{
		ID: id, EventID: eventID, SenderID: senderID, Content: "hey",
	}).Error)
	return id
}

func (env *testEnv) unreadFor(t *testing.T, userID, objectType string) []model.Notification {
	t.Helper()
	var ns []model.Notification
	assert.NoError(t, env.db.
		Where("user_id = ? AND object_type = ? AND seen_at IS NULL", userID, objectType).
		Find(&ns).Error)
	return ns
}

func (env *testEnv) queueEntries(t *testing.T) []model.QueueEntry {
	t.Helper()
	var entries []model.QueueEntry
	assert.NoError(t, env.db.Find(&entries).Error)
	return entries
}
