package notify

import "fmt"

// Rendered copy for each notification type. The same renderers run at build
// time and again at merge time with the merged total, so counts always
// reflect the whole unread bucket.

func announcementMessage(count int, _ string) string {
	return fmt.Sprintf("📢 You have %d new %s in an event you're attending!",
		count, pluralize(count, "announcement"))
}

func filesMessage(count int, _ string) string {
	return fmt.Sprintf("📷 You have %d new media %s in an event you're attending!",
		count, pluralize(count, "file"))
}

func attendeesMessage(count int, title string) string {
	return fmt.Sprintf("🍻 %d new %s %s now attending your event %q.",
		count, pluralize(count, "attendee"), isAre(count), title)
}

func tempAttendeesMessage(count int, title string) string {
	return fmt.Sprintf("🍻 %d new temporary account %s %s now attending your event %q.",
		count, pluralize(count, "attendee"), isAre(count), title)
}

func adminAddedMessage(title string) string {
	return fmt.Sprintf("🔐 You have been made an admin for the event: %q.", title)
}

func newMessageMessage() string {
	return "💬 You have a new message in an event you're attending"
}

func eventInvitationMessage(title string) string {
	return fmt.Sprintf("📩 You have been invited to the event %q!", title)
}

func eventCancelledMessage(title string) string {
	return fmt.Sprintf("🚫 The event %q has been cancelled.", title)
}

func eventDeletedMessage(title string) string {
	return fmt.Sprintf("🗑️ The event %q has been deleted.", title)
}

func eventReminderMessage(title string) string {
	return fmt.Sprintf("⏰ Reminder: %q is starting soon!", title)
}

func pluralize(count int, noun string) string {
	if count == 1 {
		return noun
	}
	return noun + "s"
}

func isAre(count int) string {
	if count == 1 {
		return "is"
	}
	return "are"
}
