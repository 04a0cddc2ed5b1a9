package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/leomorpho/bonfire-sub000/internal/store"
)

// Programmer-error sentinels. These surface immediately instead of being
// coerced into an empty result.
var (
	ErrEmptyObjectIDs      = errors.New("enqueue requires at least one object id")
	ErrInvalidMessageCount = errors.New("NEW_MESSAGE requires exactly one message id")
	ErrUnknownObjectType   = errors.New("unknown notification object type")
)

// PushPayload is what the push relay renders on the device.
type PushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// PushSender publishes a push payload for one user. rateLimited=false
// bypasses any per-user throttling (reminders).
type PushSender interface {
	Send(ctx context.Context, userID string, payload PushPayload, rateLimited bool) error
}

// SMSSender sends one text and returns the provider message id. The sender
// writes its own audit row.
type SMSSender interface {
	Send(ctx context.Context, userID, phoneNumber, text, category string) (string, error)
}

// EmailMessage is a composed outbound email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
}

// EmailSender sends one email, auditing the attempt when shouldAudit is set.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage, category, userID string, shouldAudit bool) error
}

// Options tunes engine behavior.
type Options struct {
	// BatchSize caps how many queue entries one drain pass claims.
	BatchSize int
	// SendTimeout bounds each outbound channel call so a hung provider
	// cannot hold the task lock indefinitely.
	SendTimeout time.Duration
	// DeliverOnMerge controls whether merging into an existing unread
	// notification re-triggers channel delivery.
	DeliverOnMerge bool
	// PublicBaseURL prefixes event and unsubscribe links.
	PublicBaseURL string
	// ReminderLead is how far ahead the reminder pass looks.
	ReminderLead time.Duration
}

// Engine is the notification fan-out and delivery engine. All dependencies
// are injected; it holds no global state.
type Engine struct {
	store store.Interface
	push  PushSender
	sms   SMSSender
	email EmailSender
	log   *zap.SugaredLogger
	now   func() time.Time
	opts  Options
}

// New constructs the engine. A nil now falls back to time.Now.
func New(st store.Interface, push PushSender, sms SMSSender, email EmailSender, logger *zap.SugaredLogger, opts Options, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	return &Engine{
		store: st,
		push:  push,
		sms:   sms,
		email: email,
		log:   logger,
		now:   now,
		opts:  opts,
	}
}
