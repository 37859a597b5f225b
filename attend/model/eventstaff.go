package model

import "time"

// EventStaff is one confirmed roster entry: the staffing workflow writes
// these when an application is confirmed, the scan flow only reads them.
type EventStaff struct {
	ID      int32  `gorm:"primaryKey;column:id" json:"id"`
	EventID string `gorm:"column:event_id;size:64;index:idx_event_staff" json:"eventId"`
	StaffID string `gorm:"column:staff_id;size:64;index:idx_event_staff" json:"staffId"`
	Name    string `gorm:"column:name;size:128" json:"name"`
	Role    string `gorm:"column:role;size:64" json:"role"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
}

func (EventStaff) TableName() string {
	return "event_staff"
}
