package model

import "time"

// Work log status values. checked_in/checked_out are owned by the scan flow;
// completed and cancelled are set by the settlement and staffing workflows.
const (
	StatusNotStarted = "not_started"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

type WorkLog struct {
	ID      int32  `gorm:"primaryKey;column:id" json:"id"`
	StaffID string `gorm:"column:staff_id;size:64;index:idx_staff_event_date" json:"staffId"`
	UserID  string `gorm:"column:user_id;size:64;index" json:"userId"`
	EventID string `gorm:"column:event_id;size:64;index:idx_staff_event_date" json:"eventId"`
	Date    string `gorm:"column:date;size:10;index:idx_staff_event_date" json:"date"`
	Status  string `gorm:"column:status;type:varchar(20);not null;default:not_started" json:"status"`

	ScheduledStartTime       *time.Time `gorm:"column:scheduled_start_time" json:"scheduledStartTime"`
	ScheduledEndTime         *time.Time `gorm:"column:scheduled_end_time" json:"scheduledEndTime"`
	OriginalScheduledEndTime *time.Time `gorm:"column:original_scheduled_end_time" json:"originalScheduledEndTime"`
	ActualStartTime          *time.Time `gorm:"column:actual_start_time" json:"actualStartTime"`
	ActualEndTime            *time.Time `gorm:"column:actual_end_time" json:"actualEndTime"`

	CheckInToken      string     `gorm:"column:check_in_token;size:128" json:"checkInToken"`
	CheckInScannedAt  *time.Time `gorm:"column:check_in_scanned_at" json:"checkInScannedAt"`
	CheckOutToken     string     `gorm:"column:check_out_token;size:128" json:"checkOutToken"`
	CheckOutScannedAt *time.Time `gorm:"column:check_out_scanned_at" json:"checkOutScannedAt"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt"`
}

func (WorkLog) TableName() string {
	return "work_logs"
}
