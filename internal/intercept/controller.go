package intercept

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"dupeguard/internal/config"
	"dupeguard/internal/logging"
	"dupeguard/internal/notifications"
	"dupeguard/internal/oracle"
	"dupeguard/internal/resolver"
)

// ErrSuspendFailed marks a source acquisition that could not be cancelled for
// verification. The controller fails open when it occurs.
var ErrSuspendFailed = errors.New("suspend acquisition failed")

// ErrNoPendingOverride is returned by AllowAnyway when no blocked item exists
// for the given id.
var ErrNoPendingOverride = errors.New("no pending override for id")

// CompletionDecision is the controller's answer for a finished acquisition:
// its terminal disposition and whether the file belongs in the record store.
type CompletionDecision struct {
	State    State
	Register bool
}

// pendingVerification holds one armed awaiting-name race. decided is the
// winner guard: the first of the name-known notification and the fallback
// timer flips it under the controller mutex, the loser is a no-op.
type pendingVerification struct {
	event   Acquisition
	timer   *time.Timer
	decided bool
}

// Controller drives the per-acquisition interception state machine.
type Controller struct {
	source      Source
	oracle      oracle.Client
	resolver    *resolver.Resolver
	notifier    notifications.Service
	descriptors *DescriptorStore
	overrides   *overrideTable
	exclusions  exclusionPolicy
	logger      *slog.Logger

	nameTimeout        time.Duration
	fingerprintTimeout time.Duration

	mu                sync.Mutex
	pending           map[string]*pendingVerification
	outcomes          map[string]State
	allowedDuplicates map[string]struct{}

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewController wires the engine together. All collaborators are required
// except notifier, which defaults to the configured service's noop behavior
// when nil is passed.
func NewController(
	cfg *config.Config,
	source Source,
	oracleClient oracle.Client,
	res *resolver.Resolver,
	descriptors *DescriptorStore,
	notifier notifications.Service,
	logger *slog.Logger,
) *Controller {
	nameTimeout := time.Duration(cfg.Intercept.NameTimeout) * time.Second
	if nameTimeout <= 0 {
		nameTimeout = 3 * time.Second
	}
	fingerprintTimeout := time.Duration(cfg.Intercept.FingerprintTimeout) * time.Second
	if fingerprintTimeout <= 0 {
		fingerprintTimeout = 15 * time.Second
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		source:             source,
		oracle:             oracleClient,
		resolver:           res,
		notifier:           notifier,
		descriptors:        descriptors,
		overrides:          newOverrideTable(),
		exclusions:         newExclusionPolicy(cfg.Watch.IgnoredExtensions),
		logger:             logging.NewComponentLogger(logger, "intercept"),
		nameTimeout:        nameTimeout,
		fingerprintTimeout: fingerprintTimeout,
		pending:            make(map[string]*pendingVerification),
		outcomes:           make(map[string]State),
		allowedDuplicates:  make(map[string]struct{}),
		baseCtx:            ctx,
		cancel:             cancel,
	}
}

// OnCreated handles a new acquisition notification. An armed override flag is
// consumed here and bypasses verification entirely; excluded names
// short-circuit to a no-op terminal state. Everything else enters the
// awaiting-name stage with the fallback timer armed.
func (c *Controller) OnCreated(event Acquisition) {
	if event.ID == "" {
		return
	}
	logger := c.logger.With(logging.String(logging.FieldAcquisitionID, event.ID))

	if c.overrides.Consume(event.ID) {
		logger.Info("override consumed, bypassing interception",
			logging.String(logging.FieldEventType, "override_consumed"),
			logging.String("filename", event.Name))
		c.recordOutcome(event.ID, StateResumed)
		return
	}

	knownName := event.Name
	if knownName == "" {
		knownName = filepath.Base(event.Path)
	}
	if c.exclusions.Excluded(knownName) {
		logger.Debug("acquisition excluded from interception",
			logging.String(logging.FieldEventType, "acquisition_excluded"),
			logging.String("filename", knownName))
		c.recordOutcome(event.ID, StateIgnored)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[event.ID]; exists {
		// Duplicate creation notification for an active instance.
		return
	}
	pv := &pendingVerification{event: event}
	c.pending[event.ID] = pv

	if event.Name != "" {
		c.startVerifyLocked(pv, event.Name, "name_present")
		return
	}
	pv.timer = time.AfterFunc(c.nameTimeout, func() { c.onNameTimeout(event.ID) })
}

// OnNameKnown handles the external name-assigned notification. It wins the
// race against the fallback timer; arriving after the timer already fired is
// a no-op.
func (c *Controller) OnNameKnown(id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pv, ok := c.pending[id]
	if !ok || pv.decided {
		return
	}
	if pv.timer != nil {
		pv.timer.Stop()
	}
	if name == "" {
		name = filepath.Base(pv.event.Path)
	}
	c.startVerifyLocked(pv, name, "name_known")
}

func (c *Controller) onNameTimeout(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pv, ok := c.pending[id]
	if !ok || pv.decided {
		return
	}
	name := pv.event.Name
	if name == "" {
		name = filepath.Base(pv.event.Path)
	}
	c.startVerifyLocked(pv, name, "fallback_timer")
}

// startVerifyLocked decides the awaiting-name race exactly once and launches
// the verification task. Caller holds c.mu.
func (c *Controller) startVerifyLocked(pv *pendingVerification, name, trigger string) {
	pv.decided = true
	delete(c.pending, pv.event.ID)
	pv.event.Name = name

	if c.exclusions.Excluded(name) {
		c.outcomes[pv.event.ID] = StateIgnored
		return
	}

	c.wg.Add(1)
	go c.verify(pv.event, trigger)
}

// verify walks one acquisition through suspend, fingerprint, and resolution.
// Every failure on this path resolves toward letting the acquisition proceed.
func (c *Controller) verify(event Acquisition, trigger string) {
	defer c.wg.Done()
	ctx := c.baseCtx
	logger := c.logger.With(logging.String(logging.FieldAcquisitionID, event.ID))

	logger.Info("verification started",
		logging.String(logging.FieldEventType, "verification_started"),
		logging.String("filename", event.Name),
		logging.String("trigger", trigger))

	if err := c.source.Suspend(ctx, event.ID); err != nil {
		logger.Warn("could not suspend acquisition, failing open",
			logging.Error(fmt.Errorf("%w: %v", ErrSuspendFailed, err)),
			logging.String(logging.FieldEventType, "suspend_failed"),
			logging.String(logging.FieldImpact, "acquisition continues without duplicate verification"))
		c.recordOutcome(event.ID, StateResumed)
		return
	}

	fingerprint := ""
	fpCtx, cancel := context.WithTimeout(ctx, c.fingerprintTimeout)
	hash, err := c.oracle.Fingerprint(fpCtx, event.Path)
	cancel()
	if err != nil {
		logger.Warn("fingerprint unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "fingerprint_unavailable"),
			logging.String(logging.FieldImpact, "falling back to name and size matching"))
	} else {
		fingerprint = hash
	}

	verdict, err := c.resolver.Resolve(ctx, resolver.Candidate{
		Name:        event.Name,
		Size:        event.DeclaredSize,
		Fingerprint: fingerprint,
	})
	if err != nil {
		logger.Error("duplicate resolution failed, failing open",
			logging.Error(err),
			logging.String(logging.FieldEventType, "resolve_failed"))
		c.resume(ctx, event, logger)
		return
	}

	if verdict.Matched {
		c.block(ctx, event, verdict, logger)
		return
	}
	c.resume(ctx, event, logger)
}

// resume replays a suspended acquisition. The override flag is armed before
// the replay is issued so the replay's creation notification cannot race past
// it and be intercepted again.
func (c *Controller) resume(ctx context.Context, event Acquisition, logger *slog.Logger) {
	c.overrides.Set(event.ID)
	if err := c.source.Replay(ctx, event.SourceLocation, event.Name); err != nil {
		logger.Warn("replay failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "replay_failed"),
			logging.String(logging.FieldErrorHint, "retry the download manually"))
	}
	c.recordOutcome(event.ID, StateResumed)
	logger.Info("acquisition resumed",
		logging.String(logging.FieldEventType, "acquisition_resumed"),
		logging.String("filename", event.Name))
}

func (c *Controller) block(ctx context.Context, event Acquisition, verdict resolver.Verdict, logger *slog.Logger) {
	descriptor := PendingOverride{
		OriginalID:      event.ID,
		DisplayName:     event.Name,
		SourceLocation:  event.SourceLocation,
		BlockedByRecord: verdict.Record.ID,
		MatchBasis:      string(verdict.Basis),
	}
	if err := c.descriptors.Put(descriptor); err != nil {
		logger.Error("failed to persist pending override",
			logging.Error(err),
			logging.String(logging.FieldEventType, "override_persist_failed"),
			logging.String(logging.FieldImpact, "proceed-anyway will be unavailable for this item"))
	}
	c.recordOutcome(event.ID, StateBlocked)

	if err := c.notifier.NotifyDuplicateBlocked(ctx, event.Name, verdict.Record.StoragePath); err != nil {
		logger.Warn("blocked-duplicate notification failed", logging.Error(err))
	}
	logger.Info("duplicate blocked",
		logging.String(logging.FieldEventType, "duplicate_blocked"),
		logging.String("filename", event.Name),
		logging.String(logging.FieldRecordID, verdict.Record.ID),
		logging.String("basis", string(verdict.Basis)))
}

// AllowAnyway executes the user's proceed-anyway decision for a blocked item:
// arm the override flag, replay with the original source location and name,
// and consume the descriptor. The completed replay is not registered again
// since the matching record already exists.
func (c *Controller) AllowAnyway(ctx context.Context, id string) (PendingOverride, error) {
	descriptor, found := c.descriptors.Get(id)
	if !found {
		return PendingOverride{}, fmt.Errorf("%w: %s", ErrNoPendingOverride, id)
	}

	c.overrides.Set(id)
	c.mu.Lock()
	c.allowedDuplicates[id] = struct{}{}
	c.mu.Unlock()

	if err := c.source.Replay(ctx, descriptor.SourceLocation, descriptor.DisplayName); err != nil {
		// Descriptor stays so the user can retry the decision.
		return PendingOverride{}, fmt.Errorf("replay acquisition: %w", err)
	}
	if _, err := c.descriptors.Remove(id); err != nil {
		c.logger.Warn("failed to consume pending override", logging.Error(err),
			logging.String(logging.FieldAcquisitionID, id))
	}
	if err := c.notifier.NotifyOverrideUsed(ctx, descriptor.DisplayName); err != nil {
		c.logger.Warn("override notification failed", logging.Error(err))
	}
	c.logger.Info("proceed-anyway accepted",
		logging.String(logging.FieldEventType, "override_accepted"),
		logging.String(logging.FieldAcquisitionID, id),
		logging.String("filename", descriptor.DisplayName))
	return descriptor, nil
}

// PendingOverrides lists blocked items awaiting a decision, newest first.
func (c *Controller) PendingOverrides() []PendingOverride {
	return c.descriptors.List()
}

// Completion consumes the terminal disposition for a finished acquisition.
// Register is true when the file belongs in the record store: items that were
// blocked, excluded, or allowed as known duplicates do not register. An id the
// controller never saw registers; interception is advisory, tracking is not.
func (c *Controller) Completion(id string) CompletionDecision {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pv, ok := c.pending[id]; ok {
		// Completed before the name race was decided; nothing to verify
		// against a finished file.
		if pv.timer != nil {
			pv.timer.Stop()
		}
		pv.decided = true
		delete(c.pending, id)
		return CompletionDecision{State: StateResumed, Register: true}
	}

	state, known := c.outcomes[id]
	delete(c.outcomes, id)
	_, overridden := c.allowedDuplicates[id]
	delete(c.allowedDuplicates, id)

	register := true
	if known && state != StateResumed {
		register = false
	}
	if overridden {
		register = false
	}
	if !known {
		state = StateResumed
	}
	return CompletionDecision{State: state, Register: register}
}

// ActiveCount reports acquisitions currently in the awaiting-name stage.
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// ArmedOverrides reports override flags set but not yet consumed.
func (c *Controller) ArmedOverrides() int {
	return c.overrides.Len()
}

func (c *Controller) recordOutcome(id string, state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[id] = state
}

// Close cancels in-flight verifications, disarms all timers, and waits for
// verification tasks to finish.
func (c *Controller) Close() {
	c.cancel()
	c.mu.Lock()
	for id, pv := range c.pending {
		if pv.timer != nil {
			pv.timer.Stop()
		}
		pv.decided = true
		delete(c.pending, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}
