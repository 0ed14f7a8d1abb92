// Package lifecycle dispatches user actions on a single order and keeps the
// locally held copy of that order consistent with the order service.
//
// A View is the state behind one order-detail page. It allows at most one
// mutating call in flight, requires an explicit confirmation before any
// destructive call, never applies a change the server has not confirmed, and
// replaces its copy with the server's answer (or a fresh fetch) after every
// successful mutation.
package lifecycle

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront-orders/internal/pkg/interceptors"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/domain"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
	"github.com/jcmexdev/storefront-orders/internal/storefront/core/projection"
	"github.com/jcmexdev/storefront-orders/internal/storefront/journal"
)

const (
	DefaultTimeout  = 15 * time.Second
	MinTimeout      = 10 * time.Second
	MaxTimeout      = 30 * time.Second
	ConfirmationTTL = 5 * time.Minute
)

// Options configures a View. Zero values fall back to defaults; Journal may be nil.
type Options struct {
	Timeout time.Duration
	Journal journal.Repository
	Logger  *slog.Logger
	Now     func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// ClampTimeout keeps a configured timeout inside the supported range.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// State is a snapshot of a View for rendering.
type State struct {
	OrderID      string                `json:"orderId"`
	Order        *domain.Order         `json:"-"`
	View         *projection.ViewModel `json:"view,omitempty"`
	Message      *Message              `json:"message,omitempty"`
	Busy         bool                  `json:"busy"`
	Confirmation *Confirmation         `json:"confirmation,omitempty"`
}

type View struct {
	orderID string
	opts    Options

	mu       sync.Mutex
	session  ports.Session
	orders   ports.OrderService
	order    *domain.Order
	version  uint64
	inFlight bool
	pending  *Confirmation
	message  *Message
	lastUsed time.Time
}

func NewView(orderID string, orders ports.OrderService, s ports.Session, opts Options) *View {
	opts = opts.withDefaults()
	return &View{
		orderID:  orderID,
		opts:     opts,
		session:  s,
		orders:   orders,
		lastUsed: opts.Now(),
	}
}

func (v *View) OrderID() string { return v.orderID }

// State returns the current snapshot without touching the network.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.stateLocked()
}

func (v *View) stateLocked() State {
	s := State{
		OrderID: v.orderID,
		Busy:    v.inFlight,
	}
	if v.order != nil {
		s.Order = v.order.Clone()
		vm := projection.Project(v.order)
		s.View = &vm
	}
	if v.message != nil {
		m := *v.message
		s.Message = &m
	}
	if v.pending != nil {
		c := *v.pending
		s.Confirmation = &c
	}
	return s
}

// Refresh fetches the order from the server. While a mutation is in flight
// it returns the current state instead; the mutation reconciles on its own.
func (v *View) Refresh(ctx context.Context) (State, error) {
	v.mu.Lock()
	v.lastUsed = v.opts.Now()
	if v.inFlight {
		defer v.mu.Unlock()
		return v.stateLocked(), nil
	}
	if err := v.requireSessionLocked(); err != nil {
		v.forgetLocked()
		v.message = errorMessage(err)
		defer v.mu.Unlock()
		return v.stateLocked(), err
	}
	ver := v.version
	orders := v.orders
	v.mu.Unlock()

	o, err := v.fetch(ctx, orders)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		if deniesAccess(err) {
			v.forgetLocked()
		}
		v.message = errorMessage(err)
		return v.stateLocked(), err
	}
	if v.version == ver {
		v.applyLocked(o)
		v.message = nil
	}
	return v.stateLocked(), nil
}

func (v *View) fetch(ctx context.Context, orders ports.OrderService) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
	defer cancel()

	o, err := orders.GetOrder(ctx, v.orderID)
	if err != nil {
		return nil, classify(err)
	}
	if err := v.checkOrder(o); err != nil {
		return nil, err
	}
	return o, nil
}

func (v *View) checkOrder(o *domain.Order) error {
	if o == nil {
		return domain.NewError(domain.KindRejected, "empty_order", "The order service returned no order.")
	}
	if o.ID != v.orderID {
		return domain.NewError(domain.KindRejected, "order_mismatch", "The order service returned a different order.")
	}
	return o.Validate()
}

// deniesAccess reports whether err means the caller may no longer see the order.
func deniesAccess(err error) bool {
	switch domain.KindOf(err) {
	case domain.KindUnauthenticated, domain.KindNotFound:
		return true
	}
	return false
}

// forgetLocked drops everything the view learned from earlier calls.
func (v *View) forgetLocked() {
	if v.order != nil {
		v.version++
	}
	v.order = nil
	v.pending = nil
}

// applyLocked replaces the local copy with a server-confirmed order.
func (v *View) applyLocked(o *domain.Order) {
	if v.order != nil && !domain.IsKnownTransition(v.order.Status, o.Status) {
		v.opts.Logger.Warn("order moved through an unexpected transition",
			"order_id", v.orderID,
			"from", v.order.Status,
			"to", o.Status,
		)
	}
	v.order = o.Clone()
	v.version++
}

// Prepare validates cmd against the current order and returns the
// confirmation the user has to accept before anything is sent. Only one
// confirmation is pending per view; a newer one replaces the older.
func (v *View) Prepare(ctx context.Context, cmd domain.Command, reason string) (*Confirmation, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUsed = v.opts.Now()

	reason = strings.TrimSpace(reason)
	t, err := v.preflightLocked(cmd, reason)
	if err != nil {
		v.rejectLocked(ctx, cmd, err)
		return nil, err
	}
	if !t.Destructive {
		err := domain.Validationf(domain.CodeUnknownCommand, "%s does not need a confirmation", cmd)
		v.rejectLocked(ctx, cmd, err)
		return nil, err
	}

	c := &Confirmation{
		ID:        uuid.NewString(),
		OrderID:   v.orderID,
		Command:   cmd,
		Operation: t.Operation,
		Reason:    reason,
		Prompt:    prompt(v.order, t, reason),
		ExpiresAt: v.opts.Now().Add(ConfirmationTTL),
	}
	v.pending = c
	v.message = nil
	out := *c
	return &out, nil
}

// Dismiss drops a pending confirmation.
func (v *View) Dismiss(confirmationID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending != nil && v.pending.ID == confirmationID {
		v.pending = nil
	}
}

// Confirm dispatches the action behind a pending confirmation. The command is
// re-validated against the order as it is now, so a confirmation made
// against a stale copy is refused rather than sent.
func (v *View) Confirm(ctx context.Context, confirmationID string) (State, error) {
	v.mu.Lock()
	v.lastUsed = v.opts.Now()

	c := v.pending
	if c == nil || c.ID != confirmationID || v.opts.Now().After(c.ExpiresAt) {
		if c != nil && c.ID == confirmationID {
			v.pending = nil
		}
		err := domain.Validationf(domain.CodeConfirmationRequired, "Please confirm this action again.")
		cmd := domain.Command("")
		if c != nil {
			cmd = c.Command
		}
		return v.failLocked(ctx, cmd, err)
	}

	t, err := v.preflightLocked(c.Command, c.Reason)
	if err != nil {
		v.pending = nil
		return v.failLocked(ctx, c.Command, err)
	}
	if t.Operation != c.Operation {
		v.pending = nil
		err := domain.Validationf(domain.CodeConfirmationStale,
			"This order changed since you confirmed. Please review it and try again.")
		return v.failLocked(ctx, c.Command, err)
	}
	v.pending = nil
	return v.dispatchLocked(ctx, c.Command, t, c.Reason, "")
}

// ConfirmPayment records a completed online payment. It is not destructive,
// so it needs no confirmation step.
func (v *View) ConfirmPayment(ctx context.Context, reference string) (State, error) {
	v.mu.Lock()
	v.lastUsed = v.opts.Now()

	reference = strings.TrimSpace(reference)
	if reference == "" {
		err := domain.Validationf(domain.CodeReferenceRequired, "A payment reference is required.")
		return v.failLocked(ctx, domain.CommandConfirmPayment, err)
	}
	t, err := v.preflightLocked(domain.CommandConfirmPayment, "")
	if err != nil {
		return v.failLocked(ctx, domain.CommandConfirmPayment, err)
	}
	return v.dispatchLocked(ctx, domain.CommandConfirmPayment, t, "", reference)
}

func (v *View) requireSessionLocked() error {
	if v.session == nil || !v.session.IsAuthenticated() {
		return domain.NewError(domain.KindUnauthenticated, "unauthenticated", "Please sign in to manage your orders.")
	}
	return nil
}

// preflightLocked runs every client-side check that must pass before a
// command may reach the network.
func (v *View) preflightLocked(cmd domain.Command, reason string) (domain.Transition, error) {
	if err := v.requireSessionLocked(); err != nil {
		return domain.Transition{}, err
	}
	if v.inFlight {
		return domain.Transition{}, domain.Validationf(domain.CodeActionInFlight,
			"Another action on this order is still in progress.")
	}
	t, err := domain.Resolve(v.order, cmd)
	if err != nil {
		return domain.Transition{}, err
	}
	if cmd == domain.CommandRequestReturn && reason == "" {
		return domain.Transition{}, domain.Validationf(domain.CodeReasonRequired, "Please tell us why you are returning this order.")
	}
	return t, nil
}

// rejectLocked records a client-side refusal.
func (v *View) rejectLocked(ctx context.Context, cmd domain.Command, err error) {
	v.message = errorMessage(err)
	kind := domain.KindOf(err)
	v.opts.Logger.WarnContext(ctx, "action rejected before dispatch",
		"order_id", v.orderID,
		"command", cmd,
		"kind", kind,
		"error", err,
	)
	v.record(ctx, journal.NewEntry(ctx, v.orderID, string(cmd), "", journal.OutcomeRejected, "").
		WithError(string(kind), v.message.Text))
}

// failLocked rejects and releases the lock.
func (v *View) failLocked(ctx context.Context, cmd domain.Command, err error) (State, error) {
	defer v.mu.Unlock()
	v.rejectLocked(ctx, cmd, err)
	return v.stateLocked(), err
}

// dispatchLocked is entered with v.mu held and releases it while the network
// call is running. The in-flight flag is cleared on every path.
func (v *View) dispatchLocked(ctx context.Context, cmd domain.Command, t domain.Transition, reason, reference string) (State, error) {
	v.inFlight = true
	v.message = nil
	orders := v.orders
	v.mu.Unlock()

	key := uuid.NewString()
	ctx = interceptors.WithIdempotencyKey(ctx, key)
	v.record(ctx, journal.NewEntry(ctx, v.orderID, string(cmd), string(t.Operation), journal.OutcomeDispatched, key))

	updated, err := v.call(ctx, orders, t.Operation, reason, reference)
	if err == nil && updated != nil {
		if checkErr := v.checkOrder(updated); checkErr != nil {
			v.opts.Logger.WarnContext(ctx, "discarding malformed order in response", "order_id", v.orderID, "error", checkErr)
			updated = nil
		}
	}

	var refreshErr error
	switch {
	case err == nil && updated == nil:
		updated, refreshErr = v.fetch(ctx, orders)
	case domain.KindOf(err) == domain.KindConflict:
		// The server's state diverged; show the user what it actually is.
		var fresh *domain.Order
		if fresh, refreshErr = v.fetch(ctx, orders); refreshErr == nil {
			v.mu.Lock()
			v.applyLocked(fresh)
			v.mu.Unlock()
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.inFlight = false

	if err != nil {
		if deniesAccess(err) {
			v.forgetLocked()
		}
		v.message = errorMessage(err)
		v.opts.Logger.WarnContext(ctx, "action failed",
			"order_id", v.orderID,
			"command", cmd,
			"operation", t.Operation,
			"kind", domain.KindOf(err),
			"error", err,
		)
		v.record(ctx, journal.NewEntry(ctx, v.orderID, string(cmd), string(t.Operation), journal.OutcomeFailed, key).
			WithError(string(domain.KindOf(err)), v.message.Text))
		return v.stateLocked(), err
	}

	v.record(ctx, journal.NewEntry(ctx, v.orderID, string(cmd), string(t.Operation), journal.OutcomeSucceeded, key))
	if refreshErr != nil {
		// The server accepted the action but the new state could not be
		// loaded; keep the last confirmed copy rather than guessing.
		v.message = errorMessage(refreshErr)
		v.message.Text = "Your request was accepted, but the latest order details could not be loaded. " + v.message.Text
		return v.stateLocked(), nil
	}

	if updated.Status != t.To {
		v.opts.Logger.InfoContext(ctx, "server settled on a different status than requested",
			"order_id", v.orderID,
			"expected", t.To,
			"actual", updated.Status,
		)
	}
	v.applyLocked(updated)
	v.message = infoMessage(successText(updated, t.Operation))
	v.opts.Logger.InfoContext(ctx, "action succeeded",
		"order_id", v.orderID,
		"command", cmd,
		"operation", t.Operation,
		"status", updated.Status,
	)
	return v.stateLocked(), nil
}

// call issues exactly one request for op. There is no automatic retry.
func (v *View) call(ctx context.Context, orders ports.OrderService, op domain.Operation, reason, reference string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.Timeout)
	defer cancel()

	var (
		o   *domain.Order
		err error
	)
	switch op {
	case domain.OperationCancel:
		o, err = orders.Cancel(ctx, v.orderID)
	case domain.OperationRefund:
		o, err = orders.Refund(ctx, v.orderID)
	case domain.OperationRequestReturn:
		o, err = orders.RequestReturn(ctx, v.orderID, reason)
	case domain.OperationConfirmPayment:
		o, err = orders.ConfirmPayment(ctx, v.orderID, reference)
	default:
		return nil, domain.Validationf(domain.CodeUnknownCommand, "unsupported operation %q", op)
	}
	if err != nil {
		return nil, classify(err)
	}
	return o, nil
}

func (v *View) record(ctx context.Context, e *journal.Entry) {
	if v.opts.Journal == nil {
		return
	}
	if err := v.opts.Journal.Save(ctx, e); err != nil {
		v.opts.Logger.ErrorContext(ctx, "failed to write command journal", "order_id", v.orderID, "error", err)
	}
}

func (v *View) touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastUsed = v.opts.Now()
}

// Loaded reports whether the view holds an order its own session fetched and
// whose session is still valid.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.order != nil && v.requireSessionLocked() == nil
}

func (v *View) idleSince(now time.Time) (time.Duration, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return now.Sub(v.lastUsed), v.inFlight
}
