package sender

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/leomorpho/bonfire-sub000/internal/model"
	"github.com/leomorpho/bonfire-sub000/internal/notify"
	"github.com/leomorpho/bonfire-sub000/internal/store"
)

// SendgridEmailSender sends notification emails through SendGrid.
type SendgridEmailSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	store     store.Interface
	log       *zap.SugaredLogger
}

// NewSendgridEmailSender constructs the sender.
func NewSendgridEmailSender(apiKey, fromEmail, fromName string, st store.Interface, logger *zap.SugaredLogger) *SendgridEmailSender {
	return &SendgridEmailSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		store:     st,
		log:       logger,
	}
}

// Send delivers one email, recording an audit row when shouldAudit is set.
func (s *SendgridEmailSender) Send(ctx context.Context, msg notify.EmailMessage, category, userID string, shouldAudit bool) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, "", msg.HTML)

	resp, err := s.client.SendWithContext(ctx, message)
	if err == nil && resp != nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	if shouldAudit {
		audit := &model.DeliveryAudit{
			ID:        uuid.NewString(),
			UserID:    userID,
			Channel:   "email",
			Category:  category,
			Recipient: msg.To,
			Succeeded: err == nil,
		}
		if auditErr := s.store.CreateDeliveryAudit(ctx, audit); auditErr != nil {
			s.log.Warnw("write email delivery audit", "user_id", userID, "error", auditErr)
		}
	}
	return err
}
