package core

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rosterhub.com/rosterhub/attend/model"
	coredb "rosterhub.com/rosterhub/core"
)

var ErrCredentialNotFound = errors.New("staff QR credential not found")

// CredentialStore owns the per-staff rotating security code and its usage
// counters.
type CredentialStore interface {
	// GetOrCreate returns the stored credential, creating one with a fresh
	// security code on first request.
	GetOrCreate(ctx context.Context, staffID string) (model.StaffQRCredential, error)
	// Rotate replaces the security code. Rotation requires an existing
	// record and fails with ErrCredentialNotFound otherwise.
	Rotate(ctx context.Context, staffID string) (model.StaffQRCredential, error)
	// RecordUse bumps the usage stats after a successful scan. Best-effort:
	// callers log failures and move on.
	RecordUse(ctx context.Context, staffID string) error
}

type GormCredentialStore struct {
	dm    *coredb.DatabaseManager
	clock Clock
}

func NewGormCredentialStore(dm *coredb.DatabaseManager, clock Clock) *GormCredentialStore {
	return &GormCredentialStore{dm: dm, clock: clock}
}

func (s *GormCredentialStore) GetOrCreate(ctx context.Context, staffID string) (model.StaffQRCredential, error) {
	var cred model.StaffQRCredential
	err := s.dm.DB(ctx).Where("staff_id = ?", staffID).Take(&cred).Error
	if err == nil {
		return cred, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StaffQRCredential{}, err
	}

	cred = model.StaffQRCredential{
		StaffID:      staffID,
		SecurityCode: uuid.NewString(),
	}
	if err := s.dm.DB(ctx).Create(&cred).Error; err != nil {
		return model.StaffQRCredential{}, err
	}
	return cred, nil
}

func (s *GormCredentialStore) Rotate(ctx context.Context, staffID string) (model.StaffQRCredential, error) {
	var cred model.StaffQRCredential
	err := s.dm.DB(ctx).Where("staff_id = ?", staffID).Take(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StaffQRCredential{}, ErrCredentialNotFound
	}
	if err != nil {
		return model.StaffQRCredential{}, err
	}

	now := s.clock.Now()
	err = s.dm.DB(ctx).Model(&model.StaffQRCredential{}).
		Where("staff_id = ?", staffID).
		Updates(map[string]interface{}{
			"security_code":       uuid.NewString(),
			"last_regenerated_at": now,
			"regeneration_count":  gorm.Expr("regeneration_count + 1"),
		}).Error
	if err != nil {
		return model.StaffQRCredential{}, err
	}

	err = s.dm.DB(ctx).Where("staff_id = ?", staffID).Take(&cred).Error
	return cred, err
}

func (s *GormCredentialStore) RecordUse(ctx context.Context, staffID string) error {
	return s.dm.DB(ctx).Model(&model.StaffQRCredential{}).
		Where("staff_id = ?", staffID).
		Updates(map[string]interface{}{
			"last_used_at":     s.clock.Now(),
			"total_scan_count": gorm.Expr("total_scan_count + 1"),
		}).Error
}
