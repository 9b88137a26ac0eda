package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
	"go.uber.org/zap"
)

// defaultRecordSummary is stored on history records whose run produced no
// summary.
const defaultRecordSummary = "Tasks processed"

// maxIDAttempts bounds id regeneration when the store reports a collision.
const maxIDAttempts = 3

// DashboardOptions wires a Dashboard. Invoker and AgentID are required;
// everything else has a default.
type DashboardOptions struct {
	AgentID        string
	Prompt         string
	Timeout        time.Duration
	RestoreOnClear bool

	Invoker    AgentInvoker
	Normalizer ResponseNormalizer
	History    HistoryStore
	IDGen      RecordIDGenerator
	Sample     *SampleDataset
	Events     EventLogger
	Logger     *zap.Logger
	Now        func() time.Time
}

// Dashboard owns the invocation controller, the live result slot, the
// history store, the selection overlay, sample mode and the search query.
// Every state change goes through its methods. It is safe for concurrent use;
// the lock is never held while the agent call is in flight.
type Dashboard struct {
	mu sync.Mutex

	agentID string
	prompt  string
	timeout time.Duration

	invoker    AgentInvoker
	normalizer ResponseNormalizer
	history    HistoryStore
	idGen      RecordIDGenerator
	sample     SampleDataset
	events     EventLogger
	logger     *zap.Logger
	now        func() time.Time

	controller *InvocationController
	selection  *SelectionOverlay

	live       *models.AgentResult
	lastSync   time.Time
	sampleMode bool
	// sampleHistory holds the sample records; it is never appended to after
	// construction.
	sampleHistory HistoryStore
	// sampleView is the slot used while sample mode is on; nil shows the
	// sample result.
	sampleView *models.AgentResult
	query      string
}

// NewDashboard validates opts and returns an idle dashboard.
func NewDashboard(opts DashboardOptions) (*Dashboard, error) {
	if opts.Invoker == nil {
		return nil, fmt.Errorf("creating dashboard: agent invoker is required")
	}
	if strings.TrimSpace(opts.AgentID) == "" {
		return nil, fmt.Errorf("creating dashboard: agent id is required")
	}

	d := &Dashboard{
		agentID:    opts.AgentID,
		prompt:     opts.Prompt,
		timeout:    opts.Timeout,
		invoker:    opts.Invoker,
		normalizer: opts.Normalizer,
		history:    opts.History,
		idGen:      opts.IDGen,
		events:     opts.Events,
		logger:     opts.Logger,
		now:        opts.Now,
		controller: NewInvocationController(),
		selection:  NewSelectionOverlay(opts.RestoreOnClear),
	}
	if d.normalizer == nil {
		d.normalizer = NewResponseNormalizer()
	}
	if d.history == nil {
		d.history = NewHistoryStore(0)
	}
	if d.idGen == nil {
		d.idGen = NewRecordIDGenerator()
	}
	if opts.Sample != nil {
		d.sample = opts.Sample.Clone()
	} else {
		d.sample = DefaultSampleDataset()
	}
	sampleHistory, err := NewHistoryStoreFrom(d.sample.History)
	if err != nil {
		return nil, fmt.Errorf("creating dashboard: sample history: %w", err)
	}
	d.sampleHistory = sampleHistory
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// AgentID returns the configured agent identifier.
func (d *Dashboard) AgentID() string { return d.agentID }

// BeginProcess performs the Idle->Running transition for a user-initiated
// process action. It returns ErrInvocationInFlight or ErrSampleModeActive,
// leaving all state untouched, when the action must be ignored.
func (d *Dashboard) BeginProcess() (Attempt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beginLocked(false)
}

// BeginRetry is BeginProcess restricted to the Failed phase.
func (d *Dashboard) BeginRetry() (Attempt, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.beginLocked(true)
}

func (d *Dashboard) beginLocked(retry bool) (Attempt, error) {
	if d.sampleMode {
		return Attempt{}, ErrSampleModeActive
	}
	if retry && d.controller.State().Phase != PhaseFailed {
		return Attempt{}, ErrNoFailedInvocation
	}
	a, err := d.controller.Begin(d.agentID)
	if err != nil {
		return Attempt{}, err
	}
	d.clearSelectionLocked()

	d.logger.Info("agent invocation started",
		zap.String("agent_id", a.AgentID),
		zap.Uint64("attempt", a.Seq),
		zap.Bool("retry", retry))
	d.logEvent(EventInvocationStarted, map[string]any{
		"agent_id": a.AgentID,
		"attempt":  a.Seq,
		"retry":    retry,
	})
	return a, nil
}

// RunAttempt performs the agent call for a begun attempt. It does not touch
// dashboard state, so it can run outside the caller's event loop.
func (d *Dashboard) RunAttempt(ctx context.Context, a Attempt) ([]byte, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	raw, err := d.invoker.Invoke(ctx, d.prompt, a.AgentID)
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("agent did not respond within %s: %w", d.timeout, err)
	}
	return raw, err
}

// CompleteProcess finishes the attempt with the raw result and call error
// returned by RunAttempt. It returns nil on success, an *InvocationError or
// *AgentRejectionError on failure, or ErrStaleAttempt if a does not belong
// to the call in flight.
func (d *Dashboard) CompleteProcess(a Attempt, raw []byte, callErr error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.controller.checkAttempt(a); err != nil {
		return err
	}
	if callErr == nil && succeeded(raw) {
		if err := d.completeSuccessLocked(a, raw); err != nil {
			return d.failLocked(a, &InvocationError{Err: err})
		}
		return nil
	}
	return d.failLocked(a, classifyFailure(raw, callErr))
}

// completeSuccessLocked normalizes, appends the history record, publishes the
// live result and only then reports success, so observers of the success
// status always find the new record in history.
func (d *Dashboard) completeSuccessLocked(a Attempt, raw []byte) error {
	result := d.normalizer.Normalize(raw)
	completedAt := d.now().UTC()

	record, err := d.appendRecordLocked(result, completedAt)
	if err != nil {
		return err
	}
	d.logEvent(EventHistoryAppended, map[string]any{
		"record_id":          record.ID,
		"tasks_processed":    record.TasksProcessed,
		"teammates_notified": record.TeammatesNotified,
		"items":              len(record.Tasks),
	})

	// A record selected while the call was in flight is superseded by the
	// new result. A sample selection belongs to the sample slot and stays.
	if !d.sampleMode {
		d.selection.Reset()
	}
	d.live = &result
	d.lastSync = completedAt

	if err := d.controller.Succeed(a); err != nil {
		return err
	}

	stats := Project(&result)
	d.logger.Info("agent invocation succeeded",
		zap.Uint64("attempt", a.Seq),
		zap.String("record_id", record.ID),
		zap.Int("tasks_processed", stats.TasksProcessed),
		zap.Int("teammates_notified", stats.TeammatesNotified),
		zap.Int("pending_items", stats.PendingItems))
	d.logEvent(EventInvocationSucceeded, map[string]any{
		"agent_id":           a.AgentID,
		"attempt":            a.Seq,
		"record_id":          record.ID,
		"tasks_processed":    stats.TasksProcessed,
		"teammates_notified": stats.TeammatesNotified,
		"pending_items":      stats.PendingItems,
	})
	return nil
}

func (d *Dashboard) appendRecordLocked(result models.AgentResult, at time.Time) (models.DelegationRecord, error) {
	summary := result.Summary
	if summary == "" {
		summary = defaultRecordSummary
	}
	record := models.DelegationRecord{
		Tasks:             result.Items,
		Summary:           summary,
		TasksProcessed:    result.Data.TasksProcessed,
		TeammatesNotified: result.Data.TeammatesNotified,
		Timestamp:         at,
	}

	var lastErr error
	for i := 0; i < maxIDAttempts; i++ {
		id, err := d.idGen.NewRecordID()
		if err != nil {
			return models.DelegationRecord{}, err
		}
		record.ID = id
		lastErr = d.history.Append(record)
		if lastErr == nil {
			return record, nil
		}
		if !errors.Is(lastErr, ErrDuplicateRecordID) {
			break
		}
	}
	return models.DelegationRecord{}, lastErr
}

func (d *Dashboard) failLocked(a Attempt, failure error) error {
	if err := d.controller.Fail(a, failure.Error()); err != nil {
		return err
	}
	d.logger.Warn("agent invocation failed",
		zap.Uint64("attempt", a.Seq),
		zap.Error(failure))

	kind := "rejection"
	var ie *InvocationError
	if errors.As(failure, &ie) {
		kind = "failure"
	}
	d.logEvent(EventInvocationFailed, map[string]any{
		"agent_id": a.AgentID,
		"attempt":  a.Seq,
		"kind":     kind,
		"error":    failure.Error(),
	})
	return failure
}

// Process runs one full invocation: begin, call the agent, complete.
func (d *Dashboard) Process(ctx context.Context) error {
	a, err := d.BeginProcess()
	if err != nil {
		return err
	}
	raw, callErr := d.RunAttempt(ctx, a)
	return d.CompleteProcess(a, raw, callErr)
}

// Retry re-runs the invocation after a failure.
func (d *Dashboard) Retry(ctx context.Context) error {
	a, err := d.BeginRetry()
	if err != nil {
		return err
	}
	raw, callErr := d.RunAttempt(ctx, a)
	return d.CompleteProcess(a, raw, callErr)
}

// Select pins the view to the history record with the given id, looked up in
// whichever history is active. The record is projected into the active result
// slot; history is not modified.
func (d *Dashboard) Select(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rec, ok := d.lookupLocked(id)
	if !ok {
		return fmt.Errorf("selecting %s: %w", id, ErrRecordNotFound)
	}
	if d.sampleMode {
		d.sampleView = d.selection.Select(rec, d.sampleView)
	} else {
		d.live = d.selection.Select(rec, d.live)
	}

	d.logger.Debug("history record selected", zap.String("record_id", id), zap.Bool("sample", d.sampleMode))
	d.logEvent(EventHistorySelected, map[string]any{"record_id": id, "sample": d.sampleMode})
	return nil
}

// ClearSelection removes the "viewing history" pin.
func (d *Dashboard) ClearSelection() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSelectionLocked()
}

func (d *Dashboard) clearSelectionLocked() {
	id, ok := d.selection.SelectedID()
	if !ok {
		return
	}
	previous, restore := d.selection.Clear()
	if restore {
		if d.sampleMode {
			d.sampleView = previous
		} else {
			d.live = previous
		}
	}
	d.logEvent(EventSelectionCleared, map[string]any{"record_id": id, "restored": restore})
}

// SetSampleMode switches between live and demonstration data. Turning it on
// clears the selection and any outcome message; the live result and history
// are left untouched and reappear when it is turned off. A call already in
// flight keeps running and keeps its status message; its result lands in the
// live slot.
func (d *Dashboard) SetSampleMode(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if on == d.sampleMode {
		return
	}
	if on {
		d.clearSelectionLocked()
		d.controller.Dismiss()
	} else {
		d.selection.Reset()
		d.sampleView = nil
	}
	d.sampleMode = on

	d.logger.Info("sample mode toggled", zap.Bool("enabled", on))
	d.logEvent(EventSampleToggled, map[string]any{"enabled": on})
}

// SampleMode reports whether sample data is being shown.
func (d *Dashboard) SampleMode() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleMode
}

// SetQuery sets the history search query.
func (d *Dashboard) SetQuery(q string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.query = q
}

// View is a consistent snapshot of everything the dashboard displays.
type View struct {
	Phase         Phase
	StatusMessage string
	Error         string
	ActiveAgentID string
	SampleMode    bool

	// Result is the active result: sample (or a selected sample record) in
	// sample mode, otherwise the live slot. Nil before the first run.
	Result   *models.AgentResult
	Stats    DisplayStats
	Items    []models.TaskItem
	LastSync time.Time

	History  []models.DelegationRecord
	Query    string
	Filtered []models.DelegationRecord
	Selected *models.DelegationRecord
}

// ViewingHistory reports whether a history record is pinned.
func (v View) ViewingHistory() bool { return v.Selected != nil }

// View returns the current snapshot. The returned data is a copy.
func (d *Dashboard) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := d.controller.State()
	v := View{
		Phase:         st.Phase,
		StatusMessage: st.StatusMessage,
		Error:         st.Error,
		ActiveAgentID: st.ActiveAgentID,
		SampleMode:    d.sampleMode,
		Query:         d.query,
	}

	if d.sampleMode {
		active := d.sample.Result.Clone()
		if d.sampleView != nil {
			active = d.sampleView.Clone()
		}
		v.Result = &active
		v.History = d.sampleHistory.All()
	} else {
		v.Result = cloneResultPtr(d.live)
		v.History = d.history.All()
		v.LastSync = d.lastSync
	}

	v.Stats = Project(v.Result)
	v.Items = []models.TaskItem{}
	if v.Result != nil {
		v.Items = v.Result.Items
	}
	v.Filtered = FilterHistory(d.query, v.History)

	if id, ok := d.selection.SelectedID(); ok {
		for i := range v.History {
			if v.History[i].ID == id {
				rec := v.History[i].Clone()
				v.Selected = &rec
				break
			}
		}
	}
	return v
}

func (d *Dashboard) lookupLocked(id string) (models.DelegationRecord, bool) {
	if d.sampleMode {
		return d.sampleHistory.Get(id)
	}
	return d.history.Get(id)
}

func (d *Dashboard) logEvent(eventType string, data map[string]any) {
	if d.events == nil {
		return
	}
	if err := d.events.LogEvent(eventType, data); err != nil {
		d.logger.Warn("writing dashboard event", zap.String("type", eventType), zap.Error(err))
	}
}
