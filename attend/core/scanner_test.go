package core

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub.com/rosterhub/attend/model"
)

type fakeRoster struct {
	entries []model.EventStaff
	err     error
}

func (r *fakeRoster) ConfirmedEntry(_ context.Context, eventID, staffID string) (*model.EventStaff, error) {
	if r.err != nil {
		return nil, r.err
	}
	base := assignmentSuffix.ReplaceAllString(staffID, "")
	for i := range r.entries {
		e := r.entries[i]
		if e.EventID == eventID && (e.StaffID == staffID || e.StaffID == base) {
			return &e, nil
		}
	}
	return nil, nil
}

type fakeWorkLogStore struct {
	logs       []model.WorkLog
	markInErr  error
	markOutErr error
}

func (s *fakeWorkLogStore) QueryByIdentity(_ context.Context, field IdentityField, id, eventID, date string) ([]model.WorkLog, error) {
	var out []model.WorkLog
	for _, wl := range s.logs {
		if wl.EventID != eventID || wl.Date != date {
			continue
		}
		switch field {
		case FieldStaffID:
			if wl.StaffID == id {
				out = append(out, wl)
			}
		case FieldUserID:
			if wl.UserID == id {
				out = append(out, wl)
			}
		}
	}
	return out, nil
}

func (s *fakeWorkLogStore) get(id int32) *model.WorkLog {
	for i := range s.logs {
		if s.logs[i].ID == id {
			return &s.logs[i]
		}
	}
	return nil
}

func (s *fakeWorkLogStore) MarkCheckedIn(_ context.Context, workLogID int32, stamp CheckInStamp) error {
	if s.markInErr != nil {
		return s.markInErr
	}
	wl := s.get(workLogID)
	wl.Status = model.StatusCheckedIn
	wl.ActualStartTime = &stamp.ActualStartTime
	wl.CheckInToken = stamp.Token
	wl.CheckInScannedAt = &stamp.ScannedAt
	wl.UpdatedAt = stamp.ScannedAt
	return nil
}

func (s *fakeWorkLogStore) MarkCheckedOut(_ context.Context, workLogID int32, stamp CheckOutStamp) error {
	if s.markOutErr != nil {
		return s.markOutErr
	}
	wl := s.get(workLogID)
	wl.Status = model.StatusCheckedOut
	wl.ActualEndTime = &stamp.ActualEndTime
	wl.ScheduledEndTime = &stamp.ScheduledEndTime
	if stamp.OriginalScheduledEndTime != nil {
		wl.OriginalScheduledEndTime = stamp.OriginalScheduledEndTime
	}
	wl.CheckOutToken = stamp.Token
	wl.CheckOutScannedAt = &stamp.ScannedAt
	wl.UpdatedAt = stamp.ScannedAt
	return nil
}

type fakeCredentialStore struct {
	creds map[string]model.StaffQRCredential
	seq   int
	clock Clock

	recordUseErr error
}

func newFakeCredentialStore(clock Clock) *fakeCredentialStore {
	return &fakeCredentialStore{creds: make(map[string]model.StaffQRCredential), clock: clock}
}

func (s *fakeCredentialStore) nextCode() string {
	s.seq++
	return fmt.Sprintf("code-%04d", s.seq)
}

func (s *fakeCredentialStore) GetOrCreate(_ context.Context, staffID string) (model.StaffQRCredential, error) {
	if cred, ok := s.creds[staffID]; ok {
		return cred, nil
	}
	cred := model.StaffQRCredential{
		StaffID:      staffID,
		SecurityCode: s.nextCode(),
		CreatedAt:    s.clock.Now(),
	}
	s.creds[staffID] = cred
	return cred, nil
}

func (s *fakeCredentialStore) Rotate(_ context.Context, staffID string) (model.StaffQRCredential, error) {
	cred, ok := s.creds[staffID]
	if !ok {
		return model.StaffQRCredential{}, ErrCredentialNotFound
	}
	now := s.clock.Now()
	cred.SecurityCode = s.nextCode()
	cred.RegenerationCount++
	cred.LastRegeneratedAt = &now
	s.creds[staffID] = cred
	return cred, nil
}

func (s *fakeCredentialStore) RecordUse(_ context.Context, staffID string) error {
	if s.recordUseErr != nil {
		return s.recordUseErr
	}
	cred := s.creds[staffID]
	now := s.clock.Now()
	cred.TotalScanCount++
	cred.LastUsedAt = &now
	s.creds[staffID] = cred
	return nil
}

type fakeHistory struct {
	entries []model.ScanHistory
	err     error
}

func (h *fakeHistory) Record(_ context.Context, entry model.ScanHistory) error {
	if h.err != nil {
		return h.err
	}
	h.entries = append(h.entries, entry)
	return nil
}

type scanFixture struct {
	clock    *fakeClock
	roster   *fakeRoster
	cooldown *MemoryCooldownGuard
	workLogs *fakeWorkLogStore
	creds    *fakeCredentialStore
	history  *fakeHistory
	scanner  *Scanner
}

func newScanFixture() *scanFixture {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)}
	f := &scanFixture{
		clock:    clock,
		roster:   &fakeRoster{},
		cooldown: NewMemoryCooldownGuard(clock),
		workLogs: &fakeWorkLogStore{},
		creds:    newFakeCredentialStore(clock),
		history:  &fakeHistory{},
	}
	f.scanner = NewScanner(f.roster, f.cooldown, f.workLogs, f.creds, f.history, clock, zap.NewNop())
	return f
}

func (f *scanFixture) confirm(eventID, staffID, name string) {
	f.roster.entries = append(f.roster.entries, model.EventStaff{
		EventID: eventID, StaffID: staffID, Name: name, Role: "dealer",
	})
}

func (f *scanFixture) addWorkLog(wl model.WorkLog) {
	wl.ID = int32(len(f.workLogs.logs) + 1)
	f.workLogs.logs = append(f.workLogs.logs, wl)
}

func (f *scanFixture) context(mode string, interval int) ScanContext {
	return ScanContext{
		EventID:         "E1",
		EventTitle:      "Summer Series Day 1",
		Date:            "2025-06-01",
		Mode:            mode,
		RoundUpInterval: interval,
		ActivatedAt:     f.clock.Now(),
		ActivatedBy:     "manager-1",
	}
}

func (f *scanFixture) freshPayload(t *testing.T, staffID string) string {
	t.Helper()
	cred, err := f.creds.GetOrCreate(context.Background(), staffID)
	require.NoError(t, err)
	raw, err := NewPayload(staffID, cred.SecurityCode, f.clock.Now()).Encode()
	require.NoError(t, err)
	return raw
}

func TestCheckInHappyPath(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", UserID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	res := f.scanner.HandleScan(context.Background(), f.context(ModeCheckIn, 15), f.freshPayload(t, "S1"))

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "Jamie Park", res.StaffName)
	assert.Equal(t, int32(1), res.WorkLogID)
	require.NotNil(t, res.ActualTime)
	assert.Equal(t, f.clock.now, *res.ActualTime)

	wl := f.workLogs.get(1)
	assert.Equal(t, model.StatusCheckedIn, wl.Status)
	require.NotNil(t, wl.ActualStartTime)
	assert.True(t, strings.HasPrefix(wl.CheckInToken, "S1_"))

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, ModeCheckIn, f.history.entries[0].Mode)
	assert.Equal(t, "manager-1", f.history.entries[0].ScannedBy)

	assert.Equal(t, 1, f.creds.creds["S1"].TotalScanCount)
}

func TestCheckInTwiceRejected(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	first := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	require.True(t, first.Success)

	// past the cooldown window so the state guard answers, not the guard
	f.clock.Advance(6 * time.Minute)

	second := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.False(t, second.Success)
	assert.Equal(t, "already checked in", second.Message)
	assert.Len(t, f.history.entries, 1, "no duplicate history entries")
}

func TestCooldownEnforcement(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	first := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	require.True(t, first.Success)

	f.clock.Advance(30 * time.Second)

	second := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.False(t, second.Success)
	assert.Equal(t, 270, second.RemainingCooldown)
	assert.Contains(t, second.Message, "270 seconds")

	// check-in cooldown must not block check-out
	checkout := f.scanner.CheckOut(context.Background(), f.context(ModeCheckOut, 15), "S1")
	assert.True(t, checkout.Success, checkout.Message)

	f.clock.Advance(5 * time.Minute)

	third := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.False(t, third.Success)
	assert.Equal(t, "already checked out", third.Message, "window reopens, state guard answers")
}

func TestFailedPreconditionReleasesCooldown(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusCancelled})

	first := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.Equal(t, "shift cancelled", first.Message)

	// an immediate retry hits the same guard, not the cooldown
	second := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.Equal(t, "shift cancelled", second.Message)
	assert.Zero(t, second.RemainingCooldown)
}

func TestStateTransitionMatrix(t *testing.T) {
	tests := []struct {
		status  string
		mode    string
		success bool
		message string
	}{
		{model.StatusNotStarted, ModeCheckIn, true, "check-in complete"},
		{model.StatusCheckedIn, ModeCheckIn, false, "already checked in"},
		{model.StatusCheckedOut, ModeCheckIn, false, "already checked out"},
		{model.StatusCompleted, ModeCheckIn, false, "already checked out"},
		{model.StatusCancelled, ModeCheckIn, false, "shift cancelled"},
		{model.StatusNotStarted, ModeCheckOut, false, "check-in has not been processed yet"},
		{model.StatusCheckedIn, ModeCheckOut, true, "check-out complete"},
		{model.StatusCheckedOut, ModeCheckOut, false, "already checked out"},
		{model.StatusCompleted, ModeCheckOut, false, "already checked out"},
		{model.StatusCancelled, ModeCheckOut, false, "shift cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.status+"_"+tt.mode, func(t *testing.T) {
			f := newScanFixture()
			f.confirm("E1", "S1", "Jamie Park")
			f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: tt.status})

			var res ScanResult
			if tt.mode == ModeCheckIn {
				res = f.scanner.CheckIn(context.Background(), f.context(tt.mode, 15), "S1")
			} else {
				res = f.scanner.CheckOut(context.Background(), f.context(tt.mode, 15), "S1")
			}

			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.message, res.Message)
		})
	}
}

func TestCheckInNotConfirmed(t *testing.T) {
	f := newScanFixture()
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	res := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.False(t, res.Success)
	assert.Equal(t, "staff is not confirmed for this event", res.Message)
}

func TestCheckInNoWorkLog(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")

	res := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.False(t, res.Success)
	assert.Equal(t, "no work shift scheduled today", res.Message)
}

func TestCheckInInvalidDate(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")

	sc := f.context(ModeCheckIn, 15)
	sc.Date = "sometime soon"

	res := f.scanner.CheckIn(context.Background(), sc, "S1")
	assert.False(t, res.Success)
	assert.Equal(t, "invalid work date", res.Message)
}

func TestCheckOutRounding(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")

	scheduledEnd := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	f.addWorkLog(model.WorkLog{
		StaffID:          "S1",
		EventID:          "E1",
		Date:             "2025-06-01",
		Status:           model.StatusCheckedIn,
		ScheduledEndTime: &scheduledEnd,
	})

	// 14:07, interval 15 -> 14:15
	f.clock.now = time.Date(2025, 6, 1, 14, 7, 0, 0, time.UTC)

	res := f.scanner.CheckOut(context.Background(), f.context(ModeCheckOut, 15), "S1")
	require.True(t, res.Success, res.Message)
	require.NotNil(t, res.AdjustedScheduledTime)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 15, 0, 0, time.UTC), *res.AdjustedScheduledTime)

	wl := f.workLogs.get(1)
	assert.Equal(t, model.StatusCheckedOut, wl.Status)
	require.NotNil(t, wl.OriginalScheduledEndTime)
	assert.Equal(t, scheduledEnd, *wl.OriginalScheduledEndTime, "pre-rounding end time preserved")
	require.NotNil(t, wl.ScheduledEndTime)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 15, 0, 0, time.UTC), *wl.ScheduledEndTime)
	require.NotNil(t, wl.ActualEndTime)
	assert.Equal(t, f.clock.now, *wl.ActualEndTime)
}

func TestCheckOutDoesNotOverwritePreservedEndTime(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")

	original := time.Date(2025, 6, 1, 13, 30, 0, 0, time.UTC)
	rounded := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)
	f.addWorkLog(model.WorkLog{
		StaffID:                  "S1",
		EventID:                  "E1",
		Date:                     "2025-06-01",
		Status:                   model.StatusCheckedIn,
		ScheduledEndTime:         &rounded,
		OriginalScheduledEndTime: &original,
	})

	f.clock.now = time.Date(2025, 6, 1, 14, 20, 0, 0, time.UTC)

	res := f.scanner.CheckOut(context.Background(), f.context(ModeCheckOut, 30), "S1")
	require.True(t, res.Success, res.Message)

	wl := f.workLogs.get(1)
	assert.Equal(t, original, *wl.OriginalScheduledEndTime, "already-preserved value stays")
	assert.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, time.UTC), *wl.ScheduledEndTime)
}

func TestHandleScanPayloadFailures(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	sc := f.context(ModeCheckIn, 15)
	ctx := context.Background()

	t.Run("malformed payload", func(t *testing.T) {
		res := f.scanner.HandleScan(ctx, sc, "not-a-payload")
		assert.False(t, res.Success)
		assert.Equal(t, "invalid QR format", res.Message)
	})

	t.Run("wrong security code", func(t *testing.T) {
		raw, err := NewPayload("S1", "some-other-code", f.clock.Now()).Encode()
		require.NoError(t, err)
		res := f.scanner.HandleScan(ctx, sc, raw)
		assert.Equal(t, "invalid QR code", res.Message)
	})

	t.Run("expired payload", func(t *testing.T) {
		raw := f.freshPayload(t, "S1")
		f.clock.Advance(4 * time.Minute)
		res := f.scanner.HandleScan(ctx, sc, raw)
		assert.Equal(t, "QR code expired", res.Message)
	})

	t.Run("unknown mode", func(t *testing.T) {
		badCtx := sc
		badCtx.Mode = "audit"
		res := f.scanner.HandleScan(ctx, badCtx, f.freshPayload(t, "S1"))
		assert.Equal(t, "unknown scan mode", res.Message)
	})
}

func TestRotationInvalidatesOldPayload(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	ctx := context.Background()
	stale := f.freshPayload(t, "S1")
	before, err := f.creds.GetOrCreate(ctx, "S1")
	require.NoError(t, err)

	rotated, err := f.creds.Rotate(ctx, "S1")
	require.NoError(t, err)
	assert.NotEqual(t, before.SecurityCode, rotated.SecurityCode)
	assert.Equal(t, before.RegenerationCount+1, rotated.RegenerationCount)

	res := f.scanner.HandleScan(ctx, f.context(ModeCheckIn, 15), stale)
	assert.False(t, res.Success)
	assert.Equal(t, "invalid QR code", res.Message)

	fresh := f.freshPayload(t, "S1")
	res = f.scanner.HandleScan(ctx, f.context(ModeCheckIn, 15), fresh)
	assert.True(t, res.Success, res.Message)
}

func TestRotateWithoutCredentialFails(t *testing.T) {
	f := newScanFixture()
	_, err := f.creds.Rotate(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCredentialNotFound)
}

func TestBestEffortSideEffectsDoNotFailScan(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})

	f.history.err = fmt.Errorf("history table unavailable")
	f.creds.recordUseErr = fmt.Errorf("credential table unavailable")

	res := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.True(t, res.Success, "primary transition wins over bookkeeping")
	assert.Equal(t, model.StatusCheckedIn, f.workLogs.get(1).Status)
}

func TestMarkCheckedInFailureIsGenericError(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")
	f.addWorkLog(model.WorkLog{StaffID: "S1", EventID: "E1", Date: "2025-06-01", Status: model.StatusNotStarted})
	f.workLogs.markInErr = fmt.Errorf("connection reset")

	res := f.scanner.CheckIn(context.Background(), f.context(ModeCheckIn, 15), "S1")
	assert.False(t, res.Success)
	assert.Equal(t, genericScanError, res.Message)
	assert.Empty(t, f.history.entries)
}

func TestEndToEndScanScenario(t *testing.T) {
	f := newScanFixture()
	f.confirm("E1", "S1", "Jamie Park")

	scheduledEnd := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	f.addWorkLog(model.WorkLog{
		StaffID:          "S1",
		UserID:           "S1",
		EventID:          "E1",
		Date:             "2025-06-01",
		Status:           model.StatusNotStarted,
		ScheduledEndTime: &scheduledEnd,
	})

	ctx := context.Background()

	// operator activates check-in mode, staff presents a fresh payload
	f.clock.now = time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	res := f.scanner.HandleScan(ctx, f.context(ModeCheckIn, 15), f.freshPayload(t, "S1"))
	require.True(t, res.Success, res.Message)
	assert.Equal(t, model.StatusCheckedIn, f.workLogs.get(1).Status)
	require.NotNil(t, f.workLogs.get(1).ActualStartTime)

	// operator switches to check-out mode; scan lands at minute offset 8
	f.clock.now = time.Date(2025, 6, 1, 18, 8, 0, 0, time.UTC)
	res = f.scanner.HandleScan(ctx, f.context(ModeCheckOut, 15), f.freshPayload(t, "S1"))
	require.True(t, res.Success, res.Message)

	wl := f.workLogs.get(1)
	assert.Equal(t, model.StatusCheckedOut, wl.Status)
	assert.Equal(t, time.Date(2025, 6, 1, 18, 15, 0, 0, time.UTC), *wl.ScheduledEndTime)
	assert.Equal(t, scheduledEnd, *wl.OriginalScheduledEndTime)
	assert.Equal(t, f.clock.now, *wl.ActualEndTime)

	require.Len(t, f.history.entries, 2)
	assert.Equal(t, ModeCheckIn, f.history.entries[0].Mode)
	assert.Equal(t, ModeCheckOut, f.history.entries[1].Mode)
	assert.Equal(t, 2, f.creds.creds["S1"].TotalScanCount)
}
