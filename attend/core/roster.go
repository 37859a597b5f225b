package core

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rosterhub.com/rosterhub/attend/model"
	coredb "rosterhub.com/rosterhub/core"
)

// RosterStore answers whether a staff member is confirmed for an event.
// Confirmation is owned by the staffing workflow; the scan flow only reads.
type RosterStore interface {
	// ConfirmedEntry returns the roster entry, or nil when the staff member
	// is not confirmed for the event.
	ConfirmedEntry(ctx context.Context, eventID, staffID string) (*model.EventStaff, error)
}

type GormRosterStore struct {
	dm *coredb.DatabaseManager
}

func NewGormRosterStore(dm *coredb.DatabaseManager) *GormRosterStore {
	return &GormRosterStore{dm: dm}
}

func (s *GormRosterStore) ConfirmedEntry(ctx context.Context, eventID, staffID string) (*model.EventStaff, error) {
	// roster rows are keyed by the bare user id even when work logs carry
	// an assignment suffix
	base := assignmentSuffix.ReplaceAllString(staffID, "")

	var entry model.EventStaff
	err := s.dm.DB(ctx).
		Where("event_id = ? AND staff_id IN ?", eventID, []string{staffID, base}).
		Order("id").
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
