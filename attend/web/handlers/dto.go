package handlers

import (
	web "rosterhub.com/rosterhub/web/common"
)

type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ScanRequestDTO struct {
	Payload         string       `json:"payload" binding:"required"`
	EventID         string       `json:"eventId" binding:"required"`
	EventTitle      string       `json:"eventTitle"`
	Date            string       `json:"date" binding:"required"`
	Mode            string       `json:"mode" binding:"required,oneof=check-in check-out"`
	RoundUpInterval int          `json:"roundUpInterval" binding:"omitempty,oneof=15 30"`
	Location        *LocationDTO `json:"location,omitempty"`
}

type QRCodeDTO struct {
	StaffID           string `json:"staffId"`
	Payload           string `json:"payload"`
	GeneratedAt       int64  `json:"generatedAt"`
	ExpiresInSeconds  int    `json:"expiresInSeconds"`
	RegenerationCount int    `json:"regenerationCount"`
	TotalScanCount    int    `json:"totalScanCount"`
}

type ScanHistorySearchParams struct {
	StartDate *web.DateOnly `json:"startDate" binding:"required"`
	EndDate   *web.DateOnly `json:"endDate" binding:"required"`
	StaffIDs  []string      `json:"staffIds"`
	EventIDs  []string      `json:"eventIds"`
	Modes     []string      `json:"modes"`
}

type WorkLogExportParams struct {
	EventID   string `form:"eventId" binding:"required"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Upload    string `form:"upload" binding:"omitempty,oneof=s3"`
}
