package model

import (
	"encoding/json"
	"time"
)

// QueueEntry is a pending unit of notification work, written by domain
// mutations and drained by the notifier. sent is true iff sent_at is set.
type QueueEntry struct {
	ID          string     `gorm:"primaryKey;size:36"`
	UserID      string     `gorm:"size:36;not null;index"`
	EventID     string     `gorm:"size:36;not null;index"`
	ObjectType  string     `gorm:"size:64;not null"`
	ObjectIDs   string     `gorm:"column:object_ids;type:text"`
	ObjectIDSet []string   `gorm:"column:object_id_set;serializer:json"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index"`
	SentAt      *time.Time `gorm:"index"`
	Sent        bool       `gorm:"not null;default:false;index"`
}

func (QueueEntry) TableName() string { return "notification_queue" }

// ReferencedIDs unions the legacy JSON-string id list with the native set,
// preserving first-seen order and dropping duplicates. Both columns survive
// from a half-finished migration; reads must tolerate either being empty.
func (q *QueueEntry) ReferencedIDs() []string {
	return UnionIDs(DecodeLegacyIDs(q.ObjectIDs), q.ObjectIDSet)
}

// DecodeLegacyIDs parses the JSON-string-encoded id array. Garbage decodes
// to nil rather than failing the entry.
func DecodeLegacyIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

// EncodeLegacyIDs produces the string mirror written at the store boundary
// for backward-read compatibility.
func EncodeLegacyIDs(ids []string) string {
	if len(ids) == 0 {
		return "[]"
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// UnionIDs merges id lists keeping first-seen order, deduped.
func UnionIDs(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
