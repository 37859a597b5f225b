package core

import (
	"context"

	"rosterhub.com/rosterhub/attend/model"
	coredb "rosterhub.com/rosterhub/core"
)

// HistoryRecorder appends one audit entry per successful scan. History is
// diagnostic, not authoritative; callers log failures and move on.
type HistoryRecorder interface {
	Record(ctx context.Context, entry model.ScanHistory) error
}

type GormHistoryRecorder struct {
	dm *coredb.DatabaseManager
}

func NewGormHistoryRecorder(dm *coredb.DatabaseManager) *GormHistoryRecorder {
	return &GormHistoryRecorder{dm: dm}
}

func (r *GormHistoryRecorder) Record(ctx context.Context, entry model.ScanHistory) error {
	return r.dm.DB(ctx).Create(&entry).Error
}
