package model

import "time"

// StaffQRCredential is the per-staff rotating secret behind the attendance QR.
// Created lazily on first request, mutated only by rotation and successful
// scan bookkeeping.
type StaffQRCredential struct {
	ID                int32      `gorm:"primaryKey;column:id" json:"id"`
	StaffID           string     `gorm:"column:staff_id;size:64;uniqueIndex" json:"staffId"`
	SecurityCode      string     `gorm:"column:security_code;size:64;not null" json:"securityCode"`
	RegenerationCount int        `gorm:"column:regeneration_count;not null;default:0" json:"regenerationCount"`
	LastRegeneratedAt *time.Time `gorm:"column:last_regenerated_at" json:"lastRegeneratedAt"`
	TotalScanCount    int        `gorm:"column:total_scan_count;not null;default:0" json:"totalScanCount"`
	LastUsedAt        *time.Time `gorm:"column:last_used_at" json:"lastUsedAt"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
}

func (StaffQRCredential) TableName() string {
	return "staff_qr_credentials"
}
