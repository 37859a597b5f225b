package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rosterhub.com/rosterhub/attend/model"
)

const (
	ModeCheckIn  = "check-in"
	ModeCheckOut = "check-out"
)

// ScanContext is the operator's active scanning session.
type ScanContext struct {
	EventID         string
	EventTitle      string
	Date            string
	Mode            string
	RoundUpInterval int
	Location        *Location
	ActivatedAt     time.Time
	ActivatedBy     string
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ScanResult is the single outcome shape every scan produces. Message is
// always user-displayable; raw errors never reach the caller.
type ScanResult struct {
	Success               bool       `json:"success"`
	Message               string     `json:"message"`
	StaffName             string     `json:"staffName,omitempty"`
	WorkLogID             int32      `json:"workLogId,omitempty"`
	ActualTime            *time.Time `json:"actualTime,omitempty"`
	AdjustedScheduledTime *time.Time `json:"adjustedScheduledTime,omitempty"`
	RemainingCooldown     int        `json:"remainingCooldown,omitempty"`
}

func failure(message string) ScanResult {
	return ScanResult{Message: message}
}

const genericScanError = "an error occurred while processing the scan"

// Scanner runs the attendance state machine. It is the error-handling
// boundary for a scan: everything below either returns a typed failure or an
// error, and the scanner normalizes all outcomes into a ScanResult.
type Scanner struct {
	roster      RosterStore
	cooldown    CooldownGuard
	resolver    *Resolver
	workLogs    WorkLogStore
	credentials CredentialStore
	history     HistoryRecorder
	clock       Clock
	log         *zap.Logger
}

func NewScanner(
	roster RosterStore,
	cooldown CooldownGuard,
	workLogs WorkLogStore,
	credentials CredentialStore,
	history HistoryRecorder,
	clock Clock,
	log *zap.Logger,
) *Scanner {
	return &Scanner{
		roster:      roster,
		cooldown:    cooldown,
		resolver:    NewResolver(workLogs, log),
		workLogs:    workLogs,
		credentials: credentials,
		history:     history,
		clock:       clock,
		log:         log,
	}
}

// HandleScan processes one presented payload string end to end: decode,
// credential validation, then the check-in or check-out transition.
func (s *Scanner) HandleScan(ctx context.Context, sc ScanContext, rawPayload string) ScanResult {
	payload, err := DecodePayload(rawPayload)
	if err != nil {
		return failure("invalid QR format")
	}

	cred, err := s.credentials.GetOrCreate(ctx, payload.StaffID)
	if err != nil {
		s.log.Error("failed to load staff QR credential", zap.Error(err),
			zap.String("staffId", payload.StaffID), zap.String("eventId", sc.EventID))
		return failure(genericScanError)
	}

	if v := ValidatePayload(payload, cred, s.clock.Now()); !v.Valid {
		return failure(v.Reason)
	}

	switch sc.Mode {
	case ModeCheckIn:
		return s.CheckIn(ctx, sc, payload.StaffID)
	case ModeCheckOut:
		return s.CheckOut(ctx, sc, payload.StaffID)
	default:
		return failure("unknown scan mode")
	}
}

// CheckIn transitions a not-started work log to checked-in.
func (s *Scanner) CheckIn(ctx context.Context, sc ScanContext, staffID string) ScanResult {
	entry, res := s.checkConfirmed(ctx, sc, staffID)
	if entry == nil {
		return res
	}

	blocked, remaining, armed := s.acquireCooldown(ctx, sc, staffID, ModeCheckIn)
	if blocked {
		return ScanResult{
			Message:           fmt.Sprintf("please try again in %d seconds", remaining),
			RemainingCooldown: remaining,
		}
	}
	key := s.cooldownKey(sc, staffID, ModeCheckIn)

	workLog, res, ok := s.resolveWorkLog(ctx, sc, staffID, armed, key)
	if !ok {
		return res
	}

	switch workLog.Status {
	case model.StatusCheckedIn:
		s.releaseCooldown(ctx, armed, key)
		return failure("already checked in")
	case model.StatusCheckedOut, model.StatusCompleted:
		s.releaseCooldown(ctx, armed, key)
		return failure("already checked out")
	case model.StatusCancelled:
		s.releaseCooldown(ctx, armed, key)
		return failure("shift cancelled")
	}

	now := s.clock.Now()
	stamp := CheckInStamp{
		ActualStartTime: now,
		Token:           scanToken(staffID, now),
		ScannedAt:       now,
	}
	if err := s.workLogs.MarkCheckedIn(ctx, workLog.ID, stamp); err != nil {
		s.log.Error("failed to record check-in", zap.Error(err),
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID),
			zap.String("mode", ModeCheckIn))
		s.releaseCooldown(ctx, armed, key)
		return failure(genericScanError)
	}

	s.recordSideEffects(ctx, sc, staffID, entry.Name, ModeCheckIn, workLog.ID, now)

	s.log.Info("check-in complete",
		zap.String("staffId", staffID), zap.String("staffName", entry.Name),
		zap.String("eventId", sc.EventID), zap.Int32("workLogId", workLog.ID))

	return ScanResult{
		Success:    true,
		Message:    "check-in complete",
		StaffName:  entry.Name,
		WorkLogID:  workLog.ID,
		ActualTime: &now,
	}
}

// CheckOut transitions a checked-in work log to checked-out, rounding the
// scheduled end time up to the session's interval.
func (s *Scanner) CheckOut(ctx context.Context, sc ScanContext, staffID string) ScanResult {
	entry, res := s.checkConfirmed(ctx, sc, staffID)
	if entry == nil {
		return res
	}

	blocked, remaining, armed := s.acquireCooldown(ctx, sc, staffID, ModeCheckOut)
	if blocked {
		return ScanResult{
			Message:           fmt.Sprintf("please try again in %d seconds", remaining),
			RemainingCooldown: remaining,
		}
	}
	key := s.cooldownKey(sc, staffID, ModeCheckOut)

	workLog, res, ok := s.resolveWorkLog(ctx, sc, staffID, armed, key)
	if !ok {
		return res
	}

	switch workLog.Status {
	case model.StatusCheckedIn:
		// proceed
	case model.StatusCheckedOut, model.StatusCompleted:
		s.releaseCooldown(ctx, armed, key)
		return failure("already checked out")
	case model.StatusCancelled:
		s.releaseCooldown(ctx, armed, key)
		return failure("shift cancelled")
	default:
		s.releaseCooldown(ctx, armed, key)
		return failure("check-in has not been processed yet")
	}

	interval := sc.RoundUpInterval
	if interval == 0 {
		interval = RoundUpInterval30
	}

	now := s.clock.Now()
	adjusted, err := RoundUpTime(now, interval)
	if err != nil {
		s.releaseCooldown(ctx, armed, key)
		return failure("unsupported round-up interval")
	}

	stamp := CheckOutStamp{
		ActualEndTime:    now,
		ScheduledEndTime: adjusted,
		Token:            scanToken(staffID, now),
		ScannedAt:        now,
	}
	// preserve the pre-rounding end time, first rounding only
	if workLog.OriginalScheduledEndTime == nil && workLog.ScheduledEndTime != nil {
		stamp.OriginalScheduledEndTime = workLog.ScheduledEndTime
	}

	if err := s.workLogs.MarkCheckedOut(ctx, workLog.ID, stamp); err != nil {
		s.log.Error("failed to record check-out", zap.Error(err),
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID),
			zap.String("mode", ModeCheckOut))
		s.releaseCooldown(ctx, armed, key)
		return failure(genericScanError)
	}

	s.recordSideEffects(ctx, sc, staffID, entry.Name, ModeCheckOut, workLog.ID, now)

	s.log.Info("check-out complete",
		zap.String("staffId", staffID), zap.String("staffName", entry.Name),
		zap.String("eventId", sc.EventID), zap.Int32("workLogId", workLog.ID),
		zap.Time("adjustedEndTime", adjusted), zap.Int("roundUpInterval", interval))

	return ScanResult{
		Success:               true,
		Message:               "check-out complete",
		StaffName:             entry.Name,
		WorkLogID:             workLog.ID,
		ActualTime:            &now,
		AdjustedScheduledTime: &adjusted,
	}
}

func (s *Scanner) checkConfirmed(ctx context.Context, sc ScanContext, staffID string) (*model.EventStaff, ScanResult) {
	entry, err := s.roster.ConfirmedEntry(ctx, sc.EventID, staffID)
	if err != nil {
		s.log.Error("roster lookup failed", zap.Error(err),
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID))
		return nil, failure(genericScanError)
	}
	if entry == nil {
		s.log.Warn("scan by unconfirmed staff",
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID))
		return nil, failure("staff is not confirmed for this event")
	}
	return entry, ScanResult{}
}

func (s *Scanner) cooldownKey(sc ScanContext, staffID, mode string) CooldownKey {
	return CooldownKey{StaffID: staffID, EventID: sc.EventID, Date: sc.Date, Mode: mode}
}

// acquireCooldown arms the duplicate-scan window. A guard failure allows the
// scan through unarmed: the cooldown is an anti-abuse measure, not a
// correctness guarantee.
func (s *Scanner) acquireCooldown(ctx context.Context, sc ScanContext, staffID, mode string) (blocked bool, remaining int, armed bool) {
	key := s.cooldownKey(sc, staffID, mode)
	allowed, remaining, err := s.cooldown.Acquire(ctx, key)
	if err != nil {
		s.log.Error("cooldown guard unavailable, allowing scan", zap.Error(err),
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID),
			zap.String("mode", mode))
		return false, 0, false
	}
	if !allowed {
		s.log.Warn("scan blocked by cooldown",
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID),
			zap.String("mode", mode), zap.Int("remainingSeconds", remaining))
		return true, remaining, false
	}
	return false, 0, true
}

func (s *Scanner) releaseCooldown(ctx context.Context, armed bool, key CooldownKey) {
	if !armed {
		return
	}
	if err := s.cooldown.Release(ctx, key); err != nil {
		s.log.Error("failed to release cooldown", zap.Error(err), zap.String("key", key.String()))
	}
}

func (s *Scanner) resolveWorkLog(ctx context.Context, sc ScanContext, staffID string, armed bool, key CooldownKey) (*model.WorkLog, ScanResult, bool) {
	workLog, err := s.resolver.Find(ctx, staffID, sc.EventID, sc.Date)
	if err != nil {
		s.releaseCooldown(ctx, armed, key)
		switch {
		case errors.Is(err, ErrInvalidDate):
			return nil, failure("invalid work date"), false
		case errors.Is(err, ErrWorkLogNotFound):
			return nil, failure("no work shift scheduled today"), false
		default:
			s.log.Error("work log lookup failed", zap.Error(err),
				zap.String("staffId", staffID), zap.String("eventId", sc.EventID),
				zap.String("mode", sc.Mode))
			return nil, failure(genericScanError), false
		}
	}
	return workLog, ScanResult{}, true
}

// recordSideEffects runs the best-effort bookkeeping after a successful
// transition: audit history and credential usage stats. Failures are logged
// and swallowed.
func (s *Scanner) recordSideEffects(ctx context.Context, sc ScanContext, staffID, staffName, mode string, workLogID int32, scannedAt time.Time) {
	entry := model.ScanHistory{
		StaffID:   staffID,
		StaffName: staffName,
		EventID:   sc.EventID,
		Date:      sc.Date,
		Mode:      mode,
		ScannedAt: scannedAt,
		WorkLogID: workLogID,
		ScannedBy: sc.ActivatedBy,
	}
	if sc.Location != nil {
		entry.Lat = &sc.Location.Lat
		entry.Lng = &sc.Location.Lng
	}
	if err := s.history.Record(ctx, entry); err != nil {
		s.log.Error("failed to record scan history", zap.Error(err),
			zap.String("staffId", staffID), zap.String("eventId", sc.EventID),
			zap.String("mode", mode))
	}

	if err := s.credentials.RecordUse(ctx, staffID); err != nil {
		s.log.Error("failed to update credential usage stats", zap.Error(err),
			zap.String("staffId", staffID))
	}
}

func scanToken(staffID string, now time.Time) string {
	return fmt.Sprintf("%s_%d", staffID, now.UnixMilli())
}
