package notify

import (
	"bytes"
	"context"
	"html/template"

	"github.com/google/uuid"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

var emailTemplate = template.Must(template.New("notification").Parse(`<html>
<body>
  <p>{{.Message}}</p>
  {{if .EventLink}}<p><a href="{{.EventLink}}">Open the event</a></p>{{end}}
  <p style="font-size:12px;color:#888">
    <a href="{{.UnsubscribeLink}}">Unsubscribe from these emails</a>
  </p>
</body>
</html>`))

// Deliver routes persisted notifications out through every channel the type
// allows and the recipient has granted. One channel's trouble never blocks
// another, and one bad recipient never stops the rest of its channel.
func (e *Engine) Deliver(ctx context.Context, notifications []model.Notification) {
	if len(notifications) == 0 {
		return
	}

	userIDs := distinctRecipients(notifications)
	perms, err := e.store.DeliveryPermissions(ctx, userIDs,
		[]string{CategoryPush, CategorySMS, CategoryEmail})
	if err != nil {
		e.log.Errorw("fetch delivery permissions", "error", err)
		return
	}

	buckets := make(map[string][]model.Notification)
	for _, n := range notifications {
		tc, ok := registry[n.ObjectType]
		if !ok {
			continue
		}
		userPerms, ok := perms[n.UserID]
		if !ok {
			// No rows at all reads as nothing granted.
			e.log.Warnw("no delivery permissions on record", "user_id", n.UserID)
			continue
		}
		for _, ch := range tc.channels {
			if userPerms[channelCategory[ch]] {
				buckets[ch] = append(buckets[ch], n)
			}
		}
	}

	// One contact-info query covers the sms and email recipient union.
	contactIDs := distinctRecipients(append(append([]model.Notification{},
		buckets[ChannelSMS]...), buckets[ChannelEmail]...))
	contacts, err := e.store.UsersByID(ctx, contactIDs)
	if err != nil {
		e.log.Errorw("fetch contact info", "error", err)
		contacts = map[string]model.User{}
	}

	e.deliverPush(ctx, buckets[ChannelPush])
	e.deliverSMS(ctx, buckets[ChannelSMS], contacts)
	e.deliverEmail(ctx, buckets[ChannelEmail], contacts)
}

func (e *Engine) deliverPush(ctx context.Context, batch []model.Notification) {
	for _, n := range batch {
		tc := registry[n.ObjectType]
		payload := PushPayload{Title: subjectFor(n.ObjectType), Body: n.Message}
		sendCtx, cancel := context.WithTimeout(ctx, e.opts.SendTimeout)
		err := e.push.Send(sendCtx, n.UserID, payload, tc.rateLimited)
		cancel()
		if err != nil {
			e.log.Errorw("push send failed", "user_id", n.UserID, "notification_id", n.ID, "error", err)
		}
	}
}

func (e *Engine) deliverSMS(ctx context.Context, batch []model.Notification, contacts map[string]model.User) {
	for _, n := range batch {
		user, ok := contacts[n.UserID]
		if !ok || user.PhoneNumber == "" {
			e.log.Warnw("no phone number, skipping sms", "user_id", n.UserID)
			continue
		}
		text := n.Message + " " + e.eventLink(n.EventID)
		sendCtx, cancel := context.WithTimeout(ctx, e.opts.SendTimeout)
		_, err := e.sms.Send(sendCtx, n.UserID, user.PhoneNumber, text, CategorySMS)
		cancel()
		if err != nil {
			e.log.Errorw("sms send failed", "user_id", n.UserID, "notification_id", n.ID, "error", err)
		}
	}
}

func (e *Engine) deliverEmail(ctx context.Context, batch []model.Notification, contacts map[string]model.User) {
	for _, n := range batch {
		user, ok := contacts[n.UserID]
		if !ok || user.Email == "" {
			e.log.Warnw("no email address, skipping email", "user_id", n.UserID)
			continue
		}
		html, err := e.composeEmail(ctx, n)
		if err != nil {
			e.log.Errorw("compose email failed", "user_id", n.UserID, "error", err)
			continue
		}
		msg := EmailMessage{To: user.Email, Subject: subjectFor(n.ObjectType), HTML: html}
		sendCtx, cancel := context.WithTimeout(ctx, e.opts.SendTimeout)
		err = e.email.Send(sendCtx, msg, CategoryEmail, n.UserID, true)
		cancel()
		if err != nil {
			e.log.Errorw("email send failed", "user_id", n.UserID, "notification_id", n.ID, "error", err)
		}
	}
}

// composeEmail renders the HTML body, minting and recording an unsubscribe
// token for the recipient.
func (e *Engine) composeEmail(ctx context.Context, n model.Notification) (string, error) {
	token := uuid.NewString()
	err := e.store.CreateUnsubscribeToken(ctx, &model.UnsubscribeToken{
		Token:    token,
		UserID:   n.UserID,
		Category: CategoryEmail,
	})
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err = emailTemplate.Execute(&buf, struct {
		Message         string
		EventLink       string
		UnsubscribeLink string
	}{
		Message:         n.Message,
		EventLink:       e.eventLink(n.EventID),
		UnsubscribeLink: e.opts.PublicBaseURL + "/unsubscribe?token=" + token,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (e *Engine) eventLink(eventID *string) string {
	if eventID == nil {
		return e.opts.PublicBaseURL
	}
	return e.opts.PublicBaseURL + "/events/" + *eventID
}

func distinctRecipients(notifications []model.Notification) []string {
	seen := make(map[string]struct{}, len(notifications))
	var out []string
	for _, n := range notifications {
		if _, ok := seen[n.UserID]; ok {
			continue
		}
		seen[n.UserID] = struct{}{}
		out = append(out, n.UserID)
	}
	return out
}
