package notify

import "github.com/leomorpho/bonfire-sub000/internal/model"

// ResolveEventPermission computes the effective grant from pre-fetched
// settings: an event-scoped row wins over the global row, and no row at all
// means denied. Pure so it can be unit-tested without I/O.
func ResolveEventPermission(settings []model.PermissionSetting, category string) bool {
	var global *model.PermissionSetting
	for i := range settings {
		st := &settings[i]
		if st.Category != category {
			continue
		}
		if st.EventID != nil {
			return st.Granted
		}
		if global == nil {
			global = st
		}
	}
	if global != nil {
		return global.Granted
	}
	return false
}
