package notify

// Object types carried by queue entries and persisted notifications.
const (
	TypeAnnouncement    = "ANNOUNCEMENT"
	TypeFiles           = "FILES"
	TypeAttendees       = "ATTENDEES"
	TypeTempAttendees   = "TEMP_ATTENDEES"
	TypeAdminAdded      = "YOU_WERE_ADDED_AS_ADMIN"
	TypeNewMessage      = "NEW_MESSAGE"
	TypeEventInvitation = "EVENT_INVITATION"
	TypeEventCancelled  = "EVENT_CANCELLED"
	TypeEventDeleted    = "EVENT_DELETED"
	TypeEventReminder   = "EVENT_REMINDER"
)

// Notification permission categories (what the user wants to hear about).
const (
	CategoryEventActivity  = "event_activity"
	CategoryEventReminders = "event_reminders"
	CategoryEventMessages  = "event_messages"
)

// Delivery permission categories (how the user wants to hear about it).
// A distinct axis from the notification categories above.
const (
	CategoryPush  = "push_notifications"
	CategorySMS   = "sms_notifications"
	CategoryEmail = "email_notifications"
)

// Delivery channels.
const (
	ChannelPush  = "push"
	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

// Attendance statuses on attendee rows.
const (
	StatusGoing    = "GOING"
	StatusMaybe    = "MAYBE"
	StatusNotGoing = "NOT_GOING"
)

// channelCategory maps a delivery channel to the permission category that
// gates it.
var channelCategory = map[string]string{
	ChannelPush:  CategoryPush,
	ChannelSMS:   CategorySMS,
	ChannelEmail: CategoryEmail,
}

// Draft is a notification computed by the factory but not yet persisted:
// no id, no creation timestamp.
type Draft struct {
	UserID             string
	EventID            *string
	ObjectType         string
	ObjectIDs          []string
	Message            string
	EventTitle         string
	RequiredPermission string
	// InAppOnly drafts are persisted but never routed to a channel.
	InAppOnly bool
}

// typeConfig is the single registration point for a notification type:
// validator, builder, merge behavior and delivery routing all hang off it.
type typeConfig struct {
	// flattenable types merge bursts of unread same-bucket notifications
	// into one row.
	flattenable bool
	// category a recipient must hold for the factory to target them.
	permissionCategory string
	// channels this type may go out on, before the per-user grant filter.
	channels []string
	// rateLimited=false bypasses the per-user push token bucket.
	rateLimited bool
	// validatorTable is the table existence checks run against; empty
	// means ids are user ids.
	validatorTable string
	// mergeMessage re-renders the text after a merge, from the merged
	// id count and the event title. Nil for types that never merge.
	mergeMessage func(count int, eventTitle string) string
}

// registry keys every supported object type to its behavior. Adding a type
// is one entry here plus a builder case in the factory.
var registry = map[string]typeConfig{
	TypeAnnouncement: {
		flattenable:        true,
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush, ChannelEmail},
		rateLimited:        true,
		validatorTable:     "announcement",
		mergeMessage:       announcementMessage,
	},
	TypeFiles: {
		flattenable:        true,
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush},
		rateLimited:        true,
		validatorTable:     "event_file",
		mergeMessage:       filesMessage,
	},
	TypeAttendees: {
		flattenable:        true,
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush},
		rateLimited:        true,
		validatorTable:     "attendee",
		mergeMessage:       attendeesMessage,
	},
	TypeTempAttendees: {
		flattenable:        true,
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush},
		rateLimited:        true,
		validatorTable:     "temp_attendee",
		mergeMessage:       tempAttendeesMessage,
	},
	TypeAdminAdded: {
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush, ChannelEmail},
		rateLimited:        true,
		validatorTable:     "app_user",
	},
	TypeNewMessage: {
		flattenable:        true,
		permissionCategory: CategoryEventMessages,
		channels:           []string{ChannelPush},
		rateLimited:        true,
		validatorTable:     "chat_message",
		mergeMessage:       func(int, string) string { return newMessageMessage() },
	},
	TypeEventInvitation: {
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush, ChannelEmail},
		rateLimited:        true,
		validatorTable:     "app_user",
	},
	TypeEventCancelled: {
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush, ChannelEmail, ChannelSMS},
		rateLimited:        true,
		validatorTable:     "app_user",
	},
	TypeEventDeleted: {
		permissionCategory: CategoryEventActivity,
		channels:           []string{ChannelPush, ChannelEmail, ChannelSMS},
		rateLimited:        true,
		validatorTable:     "app_user",
	},
	TypeEventReminder: {
		permissionCategory: CategoryEventReminders,
		channels:           []string{ChannelPush},
		rateLimited:        false,
	},
}

// emailSubjects maps type to the outbound email subject line; also reused
// as the push title.
var emailSubjects = map[string]string{
	TypeAnnouncement:    "New announcements in your event",
	TypeAdminAdded:      "You were made an event admin",
	TypeEventInvitation: "You have been invited to an event",
	TypeEventCancelled:  "An event you joined was cancelled",
	TypeEventDeleted:    "An event you joined was deleted",
}

func subjectFor(objectType string) string {
	if s, ok := emailSubjects[objectType]; ok {
		return s
	}
	return "You have a new notification"
}
