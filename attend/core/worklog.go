package core

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.uber.org/zap"

	"rosterhub.com/rosterhub/attend/model"
	coredb "rosterhub.com/rosterhub/core"
	"rosterhub.com/rosterhub/utils"
)

var (
	ErrInvalidDate     = errors.New("invalid work date")
	ErrWorkLogNotFound = errors.New("work log not found")
)

// IdentityField selects which work log column a lookup matches against.
type IdentityField string

const (
	FieldStaffID IdentityField = "staff_id"
	FieldUserID  IdentityField = "user_id"
)

type CheckInStamp struct {
	ActualStartTime time.Time
	Token           string
	ScannedAt       time.Time
}

type CheckOutStamp struct {
	ActualEndTime    time.Time
	ScheduledEndTime time.Time
	// OriginalScheduledEndTime is written only on the first rounding; nil
	// leaves the stored value untouched.
	OriginalScheduledEndTime *time.Time
	Token                    string
	ScannedAt                time.Time
}

type WorkLogStore interface {
	QueryByIdentity(ctx context.Context, field IdentityField, id, eventID, date string) ([]model.WorkLog, error)
	MarkCheckedIn(ctx context.Context, workLogID int32, stamp CheckInStamp) error
	MarkCheckedOut(ctx context.Context, workLogID int32, stamp CheckOutStamp) error
}

var assignmentSuffix = regexp.MustCompile(`_\d+$`)

// Resolver locates the unique work log for a (staff, event, date) tuple.
//
// Lookup attempts run in order, stopping at the first hit: the exact staff
// id, the staff id with the first assignment-index suffix, then the
// secondary user id column. Some staffing flows key logs as "staffId_0",
// "staffId_1" per assignment; older rows carry only the user id.
type Resolver struct {
	store WorkLogStore
	log   *zap.Logger
}

func NewResolver(store WorkLogStore, log *zap.Logger) *Resolver {
	return &Resolver{store: store, log: log}
}

func (r *Resolver) Find(ctx context.Context, staffID, eventID, date string) (*model.WorkLog, error) {
	normalized, err := utils.NormalizeDate(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	attempts := []struct {
		field IdentityField
		id    string
	}{
		{FieldStaffID, staffID},
	}
	if !assignmentSuffix.MatchString(staffID) {
		attempts = append(attempts, struct {
			field IdentityField
			id    string
		}{FieldStaffID, staffID + "_0"})
	}
	attempts = append(attempts, struct {
		field IdentityField
		id    string
	}{FieldUserID, staffID})

	for _, attempt := range attempts {
		logs, err := r.store.QueryByIdentity(ctx, attempt.field, attempt.id, eventID, normalized)
		if err != nil {
			return nil, err
		}
		if len(logs) == 0 {
			continue
		}
		if len(logs) > 1 {
			r.log.Warn("multiple work logs matched, using first",
				zap.String("staffId", staffID),
				zap.String("eventId", eventID),
				zap.String("date", normalized),
				zap.String("field", string(attempt.field)),
				zap.Int("count", len(logs)))
		}
		found := logs[0]
		return &found, nil
	}

	return nil, ErrWorkLogNotFound
}

// GormWorkLogStore is the MySQL-backed store.
type GormWorkLogStore struct {
	dm *coredb.DatabaseManager
}

func NewGormWorkLogStore(dm *coredb.DatabaseManager) *GormWorkLogStore {
	return &GormWorkLogStore{dm: dm}
}

func (s *GormWorkLogStore) QueryByIdentity(ctx context.Context, field IdentityField, id, eventID, date string) ([]model.WorkLog, error) {
	var logs []model.WorkLog
	err := s.dm.DB(ctx).
		Where(string(field)+" = ? AND event_id = ? AND date = ?", id, eventID, date).
		Order("id").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *GormWorkLogStore) MarkCheckedIn(ctx context.Context, workLogID int32, stamp CheckInStamp) error {
	return s.dm.DB(ctx).Model(&model.WorkLog{}).
		Where("id = ?", workLogID).
		Updates(map[string]interface{}{
			"status":              model.StatusCheckedIn,
			"actual_start_time":   stamp.ActualStartTime,
			"check_in_token":      stamp.Token,
			"check_in_scanned_at": stamp.ScannedAt,
			"updated_at":          stamp.ScannedAt,
		}).Error
}

func (s *GormWorkLogStore) MarkCheckedOut(ctx context.Context, workLogID int32, stamp CheckOutStamp) error {
	updates := map[string]interface{}{
		"status":               model.StatusCheckedOut,
		"actual_end_time":      stamp.ActualEndTime,
		"scheduled_end_time":   stamp.ScheduledEndTime,
		"check_out_token":      stamp.Token,
		"check_out_scanned_at": stamp.ScannedAt,
		"updated_at":           stamp.ScannedAt,
	}
	if stamp.OriginalScheduledEndTime != nil {
		updates["original_scheduled_end_time"] = *stamp.OriginalScheduledEndTime
	}
	return s.dm.DB(ctx).Model(&model.WorkLog{}).
		Where("id = ?", workLogID).
		Updates(updates).Error
}
