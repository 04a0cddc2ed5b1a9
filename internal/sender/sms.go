package sender

import (
	"context"

	"github.com/google/uuid"
	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/leomorpho/bonfire-sub000/internal/model"
	"github.com/leomorpho/bonfire-sub000/internal/store"
)

// TwilioSMSSender sends texts through Twilio and writes its own audit row
// per attempt.
type TwilioSMSSender struct {
	client     *twilio.RestClient
	fromNumber string
	store      store.Interface
	log        *zap.SugaredLogger
}

// NewTwilioSMSSender constructs the sender.
func NewTwilioSMSSender(accountSID, authToken, fromNumber string, st store.Interface, logger *zap.SugaredLogger) *TwilioSMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSSender{client: client, fromNumber: fromNumber, store: st, log: logger}
}

// Send delivers one text and returns the provider message id.
func (s *TwilioSMSSender) Send(ctx context.Context, userID, phoneNumber, text, category string) (string, error) {
	params := &api.CreateMessageParams{}
	params.SetBody(text)
	params.SetFrom(s.fromNumber)
	params.SetTo(phoneNumber)

	resp, err := s.client.Api.CreateMessage(params)
	messageID := ""
	if err == nil && resp.Sid != nil {
		messageID = *resp.Sid
	}

	audit := &model.DeliveryAudit{
		ID:        uuid.NewString(),
		UserID:    userID,
		Channel:   "sms",
		Category:  category,
		Recipient: phoneNumber,
		MessageID: messageID,
		Succeeded: err == nil,
	}
	if auditErr := s.store.CreateDeliveryAudit(ctx, audit); auditErr != nil {
		s.log.Warnw("write sms delivery audit", "user_id", userID, "error", auditErr)
	}
	if err != nil {
		return "", err
	}
	return messageID, nil
}
