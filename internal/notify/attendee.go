package notify

import "context"

// EligibleAttendees fetches this event's attendees with any of the given
// statuses, drops the excluded actors, and partitions the rest by whether
// they hold the category permission. Permission rows for all candidates come
// back in one bulk query.
func (e *Engine) EligibleAttendees(ctx context.Context, eventID string, statuses []string, excludeActorIDs []string, category string) (granted, notGranted []string, err error) {
	attendees, err := e.store.AttendeesByStatus(ctx, eventID, statuses)
	if err != nil {
		return nil, nil, err
	}
	excluded := make(map[string]struct{}, len(excludeActorIDs))
	for _, id := range excludeActorIDs {
		excluded[id] = struct{}{}
	}
	var candidates []string
	for _, a := range attendees {
		if _, skip := excluded[a.UserID]; skip {
			continue
		}
		candidates = append(candidates, a.UserID)
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	settings, err := e.store.PermissionSettings(ctx, candidates, category, eventID)
	if err != nil {
		return nil, nil, err
	}
	for _, userID := range candidates {
		if ResolveEventPermission(settings[userID], category) {
			granted = append(granted, userID)
		} else {
			notGranted = append(notGranted, userID)
		}
	}
	return granted, notGranted, nil
}
