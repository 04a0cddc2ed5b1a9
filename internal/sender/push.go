package sender

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/leomorpho/bonfire-sub000/internal/notify"
)

// ErrRateLimited is returned when a user's push token bucket is empty.
var ErrRateLimited = errors.New("push rate limit exceeded")

// KafkaPushSender publishes push payloads to the topic the mobile push
// relay consumes, throttled per user with a token bucket.
type KafkaPushSender struct {
	writer *kafka.Writer
	log    *zap.SugaredLogger

	rps   int
	burst int

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// NewKafkaPushSender constructs the sender.
func NewKafkaPushSender(writer *kafka.Writer, rps, burst int, logger *zap.SugaredLogger) *KafkaPushSender {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 3
	}
	return &KafkaPushSender{
		writer:  writer,
		log:     logger,
		rps:     rps,
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
	}
}

type pushEnvelope struct {
	UserID  string             `json:"user_id"`
	Payload notify.PushPayload `json:"payload"`
	SentAt  time.Time          `json:"sent_at"`
}

// Send publishes one push message. rateLimited=false bypasses the bucket
// (reminder traffic).
func (s *KafkaPushSender) Send(ctx context.Context, userID string, payload notify.PushPayload, rateLimited bool) error {
	if rateLimited && !s.limiter(userID).Allow() {
		s.log.Warnw("dropping rate-limited push", "user_id", userID)
		return ErrRateLimited
	}
	value, err := json.Marshal(pushEnvelope{UserID: userID, Payload: payload, SentAt: time.Now()})
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(userID),
		Value: value,
		Time:  time.Now(),
	})
}

func (s *KafkaPushSender) limiter(userID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	lim, ok := s.buckets[userID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(s.rps), s.burst)
		s.buckets[userID] = lim
	}
	return lim
}
