package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

func TestBuildAnnouncement_ExcludesCreator(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)
	// Creator is also a GOING attendee with permission; still never a
	// recipient of their own announcement.
	env.seedAttendee(t, eventID, creator, StatusGoing)
	env.grantAll(t, creator)

	attendee := env.seedUser(t, "guest", "g@x.test", "")
	env.seedAttendee(t, eventID, attendee, StatusGoing)
	env.grantAll(t, attendee)

	a1 := env.seedAnnouncement(t, eventID, creator)
	drafts, err := env.engine.BuildDrafts(env.ctx, TypeAnnouncement, creator, eventID, []string{a1})
	assert.NoError(t, err)
	assert.Len(t, drafts, 1)
	assert.Equal(t, attendee, drafts[0].UserID)
	assert.Equal(t, "📢 You have 1 new announcement in an event you're attending!", drafts[0].Message)
}

func TestBuildAnnouncement_SkipsDeniedAndNotGoing(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	denied := env.seedUser(t, "denied", "d@x.test", "")
	env.seedAttendee(t, eventID, denied, StatusGoing)
	env.grant(t, denied, CategoryEventActivity, nil, false)

	notGoing := env.seedUser(t, "absent", "a@x.test", "")
	env.seedAttendee(t, eventID, notGoing, StatusNotGoing)
	env.grantAll(t, notGoing)

	maybe := env.seedUser(t, "maybe", "m@x.test", "")
	env.seedAttendee(t, eventID, maybe, StatusMaybe)
	env.grantAll(t, maybe)

	a1 := env.seedAnnouncement(t, eventID, creator)
	drafts, err := env.engine.BuildDrafts(env.ctx, TypeAnnouncement, creator, eventID, []string{a1})
	assert.NoError(t, err)
	assert.Len(t, drafts, 1)
	assert.Equal(t, maybe, drafts[0].UserID)
}

func TestBuildFiles_FiltersSelfUploads(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	uploader := env.seedUser(t, "uploader", "u@x.test", "")
	env.seedAttendee(t, eventID, uploader, StatusGoing)
	env.grantAll(t, uploader)

	other := env.seedUser(t, "other", "o@x.test", "")
	env.seedAttendee(t, eventID, other, StatusGoing)
	env.grantAll(t, other)

	f1 := env.seedFile(t, eventID, uploader)
	f2 := env.seedFile(t, eventID, uploader)

	drafts, err := env.engine.BuildDrafts(env.ctx, TypeFiles, uploader, eventID, []string{f1, f2})
	assert.NoError(t, err)
	// Uploader sees nothing of their own uploads; the other attendee gets
	// one draft referencing both files.
	assert.Len(t, drafts, 1)
	assert.Equal(t, other, drafts[0].UserID)
	assert.ElementsMatch(t, []string{f1, f2}, drafts[0].ObjectIDs)
	assert.Contains(t, drafts[0].Message, "2 new media files")
}

func TestBuildAttendees_TargetsCreatorWithAgreement(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Beach Day", creator)

	drafts, err := env.engine.BuildDrafts(env.ctx, TypeAttendees, "someone", eventID, []string{"att-1"})
	assert.NoError(t, err)
	assert.Len(t, drafts, 1)
	assert.Equal(t, creator, drafts[0].UserID)
	assert.Equal(t, `🍻 1 new attendee is now attending your event "Beach Day".`, drafts[0].Message)

	drafts, err = env.engine.BuildDrafts(env.ctx, TypeTempAttendees, "someone", eventID, []string{"t1", "t2"})
	assert.NoError(t, err)
	assert.Equal(t, `🍻 2 new temporary account attendees are now attending your event "Beach Day".`, drafts[0].Message)
}

func TestBuildAdminAdded_OnePerAdmin(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Beach Day", creator)
	admin1 := env.seedUser(t, "admin1", "a1@x.test", "")
	admin2 := env.seedUser(t, "admin2", "a2@x.test", "")

	drafts, err := env.engine.BuildDrafts(env.ctx, TypeAdminAdded, creator, eventID, []string{admin1, admin2})
	assert.NoError(t, err)
	assert.Len(t, drafts, 2)
	assert.Equal(t, admin1, drafts[0].UserID)
	assert.Equal(t, admin2, drafts[1].UserID)
	assert.Equal(t, `🔐 You have been made an admin for the event: "Beach Day".`, drafts[0].Message)
}

func TestBuildNewMessage_RequiresExactlyOneID(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)
	m1 := env.seedMessage(t, eventID, creator)
	m2 := env.seedMessage(t, eventID, creator)

	_, err := env.engine.BuildDrafts(env.ctx, TypeNewMessage, creator, eventID, []string{m1, m2})
	assert.ErrorIs(t, err, ErrInvalidMessageCount)

	_, err = env.engine.BuildDrafts(env.ctx, TypeNewMessage, creator, eventID, nil)
	assert.ErrorIs(t, err, ErrInvalidMessageCount)
}

func TestBuildNewMessage_ExcludesSenderAndSeen(t *testing.T) {
	env := defaultEnv(t)
	creator := env.seedUser(t, "creator", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	senderID := env.seedUser(t, "sender", "s@x.test", "")
	env.seedAttendee(t, eventID, senderID, StatusGoing)
	env.grantAll(t, senderID)

	sawIt := env.seedUser(t, "saw", "saw@x.test", "")
	env.seedAttendee(t, eventID, sawIt, StatusGoing)
	env.grantAll(t, sawIt)

	fresh := env.seedUser(t, "fresh", "f@x.test", "")
	env.seedAttendee(t, eventID, fresh, StatusGoing)
	env.grantAll(t, fresh)

	msgID := env.seedMessage(t, eventID, senderID)
	assert.NoError(t, env.db.Create(&model.MessageSeen{
		ID: "seen-1", MessageID: msgID, UserID: sawIt,
	}).Error)

	drafts, err := env.engine.BuildDrafts(env.ctx, TypeNewMessage, senderID, eventID, []string{msgID})
	assert.NoError(t, err)
	assert.Len(t, drafts, 1)
	assert.Equal(t, fresh, drafts[0].UserID)
	assert.Equal(t, "💬 You have a new message in an event you're attending", drafts[0].Message)
}
