package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/leomorpho/bonfire-sub000/internal/model"
)

func draftFor(userID, eventID, objectType string, ids []string, message, title string) Draft {
	return Draft{
		UserID:             userID,
		EventID:            &eventID,
		ObjectType:         objectType,
		ObjectIDs:          ids,
		Message:            message,
		EventTitle:         title,
		RequiredPermission: CategoryEventActivity,
	}
}

func TestPersist_MergeUnionsUnreadBucket(t *testing.T) {
	env := defaultEnv(t)
	user := env.seedUser(t, "u", "u@x.test", "")
	creator := env.seedUser(t, "c", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	for i, ids := range [][]string{{"a1"}, {"a2"}, {"a3"}} {
		d := draftFor(user, eventID, TypeAnnouncement, ids,
			announcementMessage(len(ids), "Campfire"), "Campfire")
		out := env.engine.Persist(env.ctx, []Draft{d})
		assert.Len(t, out, 1, "cycle %d", i)
	}

	ns := env.unreadFor(t, user, TypeAnnouncement)
	assert.Len(t, ns, 1)
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, ns[0].ReferencedIDs())
	assert.Equal(t, "📢 You have 3 new announcements in an event you're attending!", ns[0].Message)
	// Legacy mirror stays in sync with the native set.
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, model.DecodeLegacyIDs(ns[0].ObjectIDs))
}

func TestPersist_ToleratesDuplicateUnreadRows(t *testing.T) {
	env := defaultEnv(t)
	user := env.seedUser(t, "u", "u@x.test", "")
	creator := env.seedUser(t, "c", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	// Simulate an earlier race that left two unread rows in one bucket.
	for _, ids := range [][]string{{"a1"}, {"a2"}} {
		assert.NoError(t, env.db.Create(&model.Notification{
			ID: "dup-" + ids[0], EventID: &eventID, UserID: user,
			Message: "old", ObjectType: TypeAnnouncement,
			ObjectIDs: model.EncodeLegacyIDs(ids), ObjectIDSet: ids,
			CreatedAt: env.now, NumPushSent: 1,
		}).Error)
	}

	d := draftFor(user, eventID, TypeAnnouncement, []string{"a3"},
		announcementMessage(1, "Campfire"), "Campfire")
	env.engine.Persist(env.ctx, []Draft{d})

	ns := env.unreadFor(t, user, TypeAnnouncement)
	assert.Len(t, ns, 1)
	assert.ElementsMatch(t, []string{"a1", "a2", "a3"}, ns[0].ReferencedIDs())
}

func TestPersist_NeverMergesSeenRows(t *testing.T) {
	env := defaultEnv(t)
	user := env.seedUser(t, "u", "u@x.test", "")
	creator := env.seedUser(t, "c", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	seenAt := env.now.Add(-time.Minute)
	assert.NoError(t, env.db.Create(&model.Notification{
		ID: "seen-row", EventID: &eventID, UserID: user,
		Message: "old", ObjectType: TypeAnnouncement,
		ObjectIDs: model.EncodeLegacyIDs([]string{"a1"}), ObjectIDSet: []string{"a1"},
		CreatedAt: env.now.Add(-time.Hour), SeenAt: &seenAt, NumPushSent: 1,
	}).Error)

	d := draftFor(user, eventID, TypeAnnouncement, []string{"a2"},
		announcementMessage(1, "Campfire"), "Campfire")
	env.engine.Persist(env.ctx, []Draft{d})

	// The seen row is untouched; a fresh unread row holds only the new id.
	var all []model.Notification
	assert.NoError(t, env.db.Where("user_id = ?", user).Find(&all).Error)
	assert.Len(t, all, 2)

	ns := env.unreadFor(t, user, TypeAnnouncement)
	assert.Len(t, ns, 1)
	assert.Equal(t, []string{"a2"}, ns[0].ReferencedIDs())
}

func TestPersist_NonFlattenableAlwaysInserts(t *testing.T) {
	env := defaultEnv(t)
	user := env.seedUser(t, "u", "u@x.test", "")
	creator := env.seedUser(t, "c", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	for i := 0; i < 2; i++ {
		d := draftFor(user, eventID, TypeAdminAdded, []string{user},
			adminAddedMessage("Campfire"), "Campfire")
		env.engine.Persist(env.ctx, []Draft{d})
	}
	ns := env.unreadFor(t, user, TypeAdminAdded)
	assert.Len(t, ns, 2)
}

func TestPersist_DeliverOnMergePolicy(t *testing.T) {
	// Default policy: a merged notification is returned for delivery again.
	env := defaultEnv(t)
	user := env.seedUser(t, "u", "u@x.test", "")
	creator := env.seedUser(t, "c", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	d1 := draftFor(user, eventID, TypeAnnouncement, []string{"a1"},
		announcementMessage(1, "Campfire"), "Campfire")
	out := env.engine.Persist(env.ctx, []Draft{d1})
	assert.Len(t, out, 1)

	d2 := draftFor(user, eventID, TypeAnnouncement, []string{"a2"},
		announcementMessage(1, "Campfire"), "Campfire")
	out = env.engine.Persist(env.ctx, []Draft{d2})
	assert.Len(t, out, 1, "always-deliver policy re-routes the merged row")
	assert.Equal(t, 2, out[0].NumPushSent)

	// Opposite policy: merging stays silent on the wire.
	quiet := newTestEnv(t, Options{DeliverOnMerge: false, ReminderLead: time.Hour})
	qUser := quiet.seedUser(t, "u", "u@x.test", "")
	qCreator := quiet.seedUser(t, "c", "c@x.test", "")
	qEvent := quiet.seedEvent(t, "Campfire", qCreator)

	q1 := draftFor(qUser, qEvent, TypeAnnouncement, []string{"a1"},
		announcementMessage(1, "Campfire"), "Campfire")
	out = quiet.engine.Persist(quiet.ctx, []Draft{q1})
	assert.Len(t, out, 1, "first insert still delivers")

	q2 := draftFor(qUser, qEvent, TypeAnnouncement, []string{"a2"},
		announcementMessage(1, "Campfire"), "Campfire")
	out = quiet.engine.Persist(quiet.ctx, []Draft{q2})
	assert.Empty(t, out, "merge suppresses re-delivery under the quiet policy")

	// The in-app merge still happened either way.
	ns := quiet.unreadFor(t, qUser, TypeAnnouncement)
	assert.Len(t, ns, 1)
	assert.ElementsMatch(t, []string{"a1", "a2"}, ns[0].ReferencedIDs())
}

func TestPersist_InAppOnlySkipsDelivery(t *testing.T) {
	env := defaultEnv(t)
	user := env.seedUser(t, "u", "u@x.test", "")
	creator := env.seedUser(t, "c", "c@x.test", "")
	eventID := env.seedEvent(t, "Campfire", creator)

	d := draftFor(user, eventID, TypeAdminAdded, []string{user},
		adminAddedMessage("Campfire"), "Campfire")
	d.InAppOnly = true
	out := env.engine.Persist(env.ctx, []Draft{d})
	assert.Empty(t, out)
	assert.Len(t, env.unreadFor(t, user, TypeAdminAdded), 1)
}
