package model

import "time"

// ScanHistory is the append-only audit trail of successful scans.
type ScanHistory struct {
	ID        int32     `gorm:"primaryKey;column:id" json:"id"`
	StaffID   string    `gorm:"column:staff_id;size:64;index" json:"staffId"`
	StaffName string    `gorm:"column:staff_name;size:128" json:"staffName"`
	EventID   string    `gorm:"column:event_id;size:64;index" json:"eventId"`
	Date      string    `gorm:"column:date;size:10;index" json:"date"`
	Mode      string    `gorm:"column:mode;type:varchar(10);not null" json:"mode"`
	ScannedAt time.Time `gorm:"column:scanned_at;not null" json:"scannedAt"`
	WorkLogID int32     `gorm:"column:work_log_id" json:"workLogId"`
	ScannedBy string    `gorm:"column:scanned_by;size:64" json:"scannedBy"`
	Lat       *float64  `gorm:"column:lat" json:"lat"`
	Lng       *float64  `gorm:"column:lng" json:"lng"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
}

func (ScanHistory) TableName() string {
	return "scan_histories"
}
