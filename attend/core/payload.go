package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rosterhub.com/rosterhub/attend/model"
)

const (
	PayloadType    = "staff-attendance"
	PayloadVersion = "2.0"

	// PayloadTTL is the validity window of a presented payload, measured
	// from its generatedAt stamp.
	PayloadTTL = 3 * time.Minute
)

var ErrMalformedPayload = errors.New("malformed QR payload")

// Payload is the ephemeral data a staff member's device presents. It is
// constructed for display, reconstructed on scan and never persisted.
type Payload struct {
	Type         string `json:"type"`
	Version      string `json:"version"`
	StaffID      string `json:"staffId"`
	SecurityCode string `json:"securityCode"`
	GeneratedAt  int64  `json:"generatedAt"` // unix ms
}

func NewPayload(staffID, securityCode string, now time.Time) Payload {
	return Payload{
		Type:         PayloadType,
		Version:      PayloadVersion,
		StaffID:      staffID,
		SecurityCode: securityCode,
		GeneratedAt:  now.UnixMilli(),
	}
}

func (p Payload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(b), nil
}

func DecodePayload(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.StaffID == "" || p.SecurityCode == "" || p.GeneratedAt == 0 {
		return Payload{}, fmt.Errorf("%w: missing required fields", ErrMalformedPayload)
	}
	return p, nil
}

type PayloadValidation struct {
	Valid  bool
	Reason string
}

// ValidatePayload checks a presented payload against the stored credential.
// Checks run in a fixed order and the first failure wins: type, version,
// security code, expiry.
func ValidatePayload(p Payload, cred model.StaffQRCredential, now time.Time) PayloadValidation {
	if p.Type != PayloadType {
		return PayloadValidation{Reason: "not a staff attendance QR code"}
	}
	if p.Version != PayloadVersion {
		return PayloadValidation{Reason: "unsupported QR code version"}
	}
	if p.SecurityCode != cred.SecurityCode {
		return PayloadValidation{Reason: "invalid QR code"}
	}
	if now.UnixMilli()-p.GeneratedAt > PayloadTTL.Milliseconds() {
		return PayloadValidation{Reason: "QR code expired"}
	}
	return PayloadValidation{Valid: true}
}
