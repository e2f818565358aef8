// Package cart owns the shopping cart state: it validates and merges line
// items, keeps them written through to durable storage and notifies observers.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/sweettreats-backend/internal/storage"
	pkgerrors "github.com/angelmondragon/sweettreats-backend/pkg/errors"
	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultStorageKey is the durable key holding the serialized cart.
	DefaultStorageKey = "sweetTreatsCart"
	DefaultScope      = "default"
)

// Params configures a Store.
type Params struct {
	KV               storage.KV
	Scope            string
	Key              string
	Logger           *logger.Logger
	Clock            func() time.Time
	PlaceholderImage string
	Shipping         decimal.Decimal
	Observers        []Observer
}

// Store is the authoritative cart for one storage scope. Operations are
// serialized; each one validates, mutates, persists and then notifies before
// returning.
type Store struct {
	kv          storage.KV
	scope       string
	key         string
	origin      string
	logg        *logger.Logger
	now         func() time.Time
	placeholder string
	shipping    decimal.Decimal

	mu     sync.Mutex
	items  []LineItem
	closed bool

	// notifyMu is taken before mu by every state change and held until its
	// observers return, so notifications arrive in mutation order.
	notifyMu     sync.Mutex
	obsMu        sync.RWMutex
	observers    map[int]Observer
	nextObserver int

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// Open restores the cart stored under (Scope, Key). Absent or unreadable state
// is replaced by an empty cart. When the backend can signal external changes
// the store follows them until Close.
func Open(ctx context.Context, p Params) (*Store, error) {
	if p.KV == nil {
		return nil, errors.New("cart storage required")
	}
	if strings.TrimSpace(p.Scope) == "" {
		p.Scope = DefaultScope
	}
	if strings.TrimSpace(p.Key) == "" {
		p.Key = DefaultStorageKey
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if strings.TrimSpace(p.PlaceholderImage) == "" {
		p.PlaceholderImage = DefaultPlaceholderImage
	}
	if p.Shipping.IsNegative() {
		return nil, errors.New("shipping must be non-negative")
	}

	s := &Store{
		kv:          p.KV,
		scope:       strings.TrimSpace(p.Scope),
		key:         strings.TrimSpace(p.Key),
		origin:      uuid.NewString(),
		logg:        p.Logger,
		now:         p.Clock,
		placeholder: p.PlaceholderImage,
		shipping:    p.Shipping,
		items:       []LineItem{},
		observers:   map[int]Observer{},
	}
	for _, o := range p.Observers {
		s.Subscribe(o)
	}

	if w, ok := p.KV.(storage.Watcher); ok {
		watchCtx, cancel := context.WithCancel(storage.WithOrigin(context.Background(), s.origin))
		changes, err := w.Watch(watchCtx, s.scope, s.key)
		if err != nil {
			cancel()
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "watch cart storage")
		}
		s.stopWatch = cancel
		s.watchDone = make(chan struct{})
		go s.follow(watchCtx, changes)
	}

	if err := s.restore(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Scope returns the storage scope the store is bound to.
func (s *Store) Scope() string { return s.scope }

// Origin identifies this store's writes to the backend.
func (s *Store) Origin() string { return s.origin }

func (s *Store) restore(ctx context.Context) error {
	ctx = s.logg.WithCartScope(ctx, s.scope)

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	raw, ok, err := s.kv.Get(ctx, s.scope, s.key)
	if err != nil {
		s.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart storage")
	}
	if ok {
		items, decodeErr := decodeItems(raw)
		if decodeErr == nil {
			s.items = items
			s.mu.Unlock()
			s.logg.Debug(s.logg.WithField(ctx, "items", len(items)), "cart.restored")
			return nil
		}
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"code":  pkgerrors.CodeStorageCorrupt,
			"error": decodeErr.Error(),
		}), "cart.storage_reset")
	}

	s.items = []LineItem{}
	if err := s.persistLocked(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.emitAndUnlock(ctx, ActionReset, nil)
	return nil
}

func decodeItems(raw string) ([]LineItem, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") {
		return nil, errors.New("stored cart is not an array")
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(trimmed), &items); err != nil {
		return nil, fmt.Errorf("decode stored cart: %w", err)
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

// AddItem validates and normalizes in, then merges it into the line with the
// same identity or appends a new line.
func (s *Store) AddItem(ctx context.Context, in ItemInput) (Mutation, error) {
	norm, err := normalizeInput(in, s.placeholder)
	if err != nil {
		return Mutation{}, err
	}

	var result Mutation
	err = s.mutate(ctx, func(now time.Time) (Action, *LineItem, error) {
		if idx := s.indexOf(norm.id); idx >= 0 {
			item := &s.items[idx]
			if item.Quantity > MaxQuantity-norm.quantity {
				return "", nil, invalidItem(fmt.Sprintf("quantity cannot exceed %d", MaxQuantity), "quantity")
			}
			item.Quantity += norm.quantity
			item.UpdatedAt = timePtr(now)
			result = Mutation{Action: ActionUpdated, Item: item.clone()}
			return ActionUpdated, &result.Item, nil
		}
		item := LineItem{
			ID:        norm.id,
			Name:      norm.name,
			Price:     norm.price,
			Quantity:  norm.quantity,
			Image:     norm.image,
			Request:   norm.request,
			AddedAt:   timePtr(now),
			UpdatedAt: timePtr(now),
		}
		s.items = append(s.items, item)
		result = Mutation{Action: ActionAdded, Item: item.clone()}
		return ActionAdded, &result.Item, nil
	})
	if err != nil {
		return Mutation{}, err
	}
	return result, nil
}

// RemoveItem removes the line with the given id.
func (s *Store) RemoveItem(ctx context.Context, id string) (LineItem, error) {
	var removed LineItem
	err := s.mutate(ctx, func(time.Time) (Action, *LineItem, error) {
		idx := s.indexOf(id)
		if idx < 0 {
			return "", nil, notFound(id)
		}
		removed = s.items[idx].clone()
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		return ActionRemoved, &removed, nil
	})
	if err != nil {
		return LineItem{}, err
	}
	return removed, nil
}

// UpdateQuantity sets the quantity of a line. A quantity that coerces to zero
// or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity any) (Mutation, error) {
	qty, ok := ParseQuantity(quantity)
	if !ok {
		return Mutation{}, invalidItem("quantity must be an integer", "quantity")
	}
	if qty <= 0 {
		removed, err := s.RemoveItem(ctx, id)
		if err != nil {
			return Mutation{}, err
		}
		return Mutation{Action: ActionRemoved, Item: removed}, nil
	}

	var result Mutation
	err := s.mutate(ctx, func(now time.Time) (Action, *LineItem, error) {
		idx := s.indexOf(id)
		if idx < 0 {
			return "", nil, notFound(id)
		}
		item := &s.items[idx]
		item.Quantity = qty
		item.UpdatedAt = timePtr(now)
		result = Mutation{Action: ActionUpdated, Item: item.clone()}
		return ActionUpdated, &result.Item, nil
	})
	if err != nil {
		return Mutation{}, err
	}
	return result, nil
}

// Clear empties the cart unconditionally.
func (s *Store) Clear(ctx context.Context) error {
	return s.mutate(ctx, func(time.Time) (Action, *LineItem, error) {
		s.items = []LineItem{}
		return ActionCleared, nil, nil
	})
}

// Items returns a copy of the lines in insertion order.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// ItemsByRecency returns a copy of the lines, most recently touched first.
// Stored order is not affected.
func (s *Store) ItemsByRecency() []LineItem {
	items := s.Items()
	SortByRecency(items)
	return items
}

// SortByRecency orders items in place, most recently touched first. Ties keep
// their insertion order.
func SortByRecency(items []LineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := touchedAt(items[i]), touchedAt(items[j])
		return ti.After(tj)
	})
}

func touchedAt(item LineItem) time.Time {
	if item.UpdatedAt != nil {
		return *item.UpdatedAt
	}
	if item.AddedAt != nil {
		return *item.AddedAt
	}
	return time.Time{}
}

// TotalItemCount is the sum of all quantities.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countOf(s.items)
}

// Subtotal is the sum of price * quantity over all lines.
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return subtotalOf(s.items)
}

// Snapshot returns the items with their count, subtotal, flat shipping and total.
func (s *Store) Snapshot() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	subtotal := subtotalOf(s.items)
	shipping := decimal.Zero
	if len(s.items) > 0 {
		shipping = s.shipping
	}
	return Summary{
		Items:     cloneItems(s.items),
		ItemCount: countOf(s.items),
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
	}
}

// ValidateForCheckout reports EmptyCart or InvalidCartState without changing
// anything.
func (s *Store) ValidateForCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validateLocked()
}

func (s *Store) validateLocked() error {
	if len(s.items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	seen := make(map[string]struct{}, len(s.items))
	var invalid []map[string]any
	for _, item := range s.items {
		problems := item.problems()
		if _, dup := seen[item.ID]; dup {
			problems = append(problems, "duplicate id")
		}
		seen[item.ID] = struct{}{}
		if len(problems) > 0 {
			invalid = append(invalid, map[string]any{
				"id":       item.ID,
				"name":     item.Name,
				"problems": problems,
			})
		}
	}
	if len(invalid) > 0 {
		return pkgerrors.New(pkgerrors.CodeInvalidCartState, "some items in the cart are invalid").
			WithDetails(map[string]any{"items": invalid})
	}
	return nil
}

// Checkout re-validates the cart, builds the order snapshot and empties the
// cart. Submitting the order is left to the caller.
func (s *Store) Checkout(ctx context.Context, userID string, opts CheckoutOptions) (*Order, error) {
	shipping := s.shipping
	if opts.Shipping != nil {
		if opts.Shipping.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping must be non-negative").
				WithDetails(map[string]any{"field": "shipping"})
		}
		shipping = *opts.Shipping
	}

	var order *Order
	err := s.mutate(ctx, func(now time.Time) (Action, *LineItem, error) {
		if err := s.validateLocked(); err != nil {
			return "", nil, err
		}
		items := cloneItems(s.items)
		subtotal := subtotalOf(items)
		order = &Order{
			ID:          uuid.NewString(),
			UserID:      strings.TrimSpace(userID),
			Items:       items,
			ItemCount:   countOf(items),
			Subtotal:    subtotal,
			Shipping:    shipping,
			Total:       subtotal.Add(shipping),
			Notes:       strings.TrimSpace(opts.Notes),
			PaymentInfo: copyStrings(opts.PaymentInfo),
			Status:      OrderStatusPending,
			CreatedAt:   now,
		}
		s.items = []LineItem{}
		return ActionCleared, nil, nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Reload replaces the in-memory cart with the stored one and notifies
// observers with ActionSynced. An absent value loads as an empty cart; an
// unreadable one is ignored and the current state kept.
func (s *Store) Reload(ctx context.Context) error {
	ctx = s.logg.WithCartScope(ctx, s.scope)

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed()
	}
	raw, ok, err := s.kv.Get(ctx, s.scope, s.key)
	if err != nil {
		s.mu.Unlock()
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart storage")
	}
	items := []LineItem{}
	if ok {
		decoded, decodeErr := decodeItems(raw)
		if decodeErr != nil {
			s.mu.Unlock()
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"code":  pkgerrors.CodeStorageCorrupt,
				"error": decodeErr.Error(),
			}), "cart.sync_ignored")
			return nil
		}
		items = decoded
	}
	s.items = items
	s.emitAndUnlock(ctx, ActionSynced, nil)
	return nil
}

func (s *Store) follow(ctx context.Context, changes <-chan storage.Change) {
	defer close(s.watchDone)
	for range changes {
		err := s.Reload(ctx)
		if err == nil {
			continue
		}
		if s.isClosed() {
			return
		}
		s.logg.Error(s.logg.WithCartScope(ctx, s.scope), "cart.sync_failed", err)
	}
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Subscribe registers o for notifications and returns a function removing it.
func (s *Store) Subscribe(o Observer) func() {
	if o == nil {
		return func() {}
	}
	s.obsMu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = o
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

// Close stops following external changes. Later operations fail.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchDone
	}
	return nil
}

// mutate runs fn under the store lock, persists the result and notifies. Any
// failure restores the previous items and emits nothing.
func (s *Store) mutate(ctx context.Context, fn func(now time.Time) (Action, *LineItem, error)) error {
	ctx = s.logg.WithCartScope(ctx, s.scope)

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errClosed()
	}
	prev := cloneItems(s.items)
	action, item, err := fn(s.now().UTC())
	if err != nil {
		s.items = prev
		s.mu.Unlock()
		return err
	}
	if err := s.persistLocked(ctx); err != nil {
		s.items = prev
		s.mu.Unlock()
		return err
	}
	s.emitAndUnlock(ctx, action, item)
	return nil
}

func (s *Store) persistLocked(ctx context.Context) error {
	payload, err := json.Marshal(s.items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.kv.Set(storage.WithOrigin(ctx, s.origin), s.scope, s.key, string(payload)); err != nil {
		s.logg.Error(ctx, "cart.persist_failed", err)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}

// emitAndUnlock must be called with notifyMu and mu held; it releases mu
// before running observers so they can read the store.
func (s *Store) emitAndUnlock(ctx context.Context, action Action, item *LineItem) {
	event := Event{
		Action:     action,
		Scope:      s.scope,
		Items:      cloneItems(s.items),
		TotalCount: countOf(s.items),
	}
	if item != nil {
		copied := item.clone()
		event.Item = &copied
	}

	s.mu.Unlock()

	s.obsMu.RLock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.RUnlock()

	for _, o := range observers {
		o.CartChanged(ctx, event)
	}
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func notFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "item not found in cart").
		WithDetails(map[string]any{"id": id})
}

func errClosed() error {
	return pkgerrors.New(pkgerrors.CodeInternal, "cart store closed")
}

func cloneItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		out[i] = item.clone()
	}
	return out
}

func countOf(items []LineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func subtotalOf(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

func copyStrings(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func timePtr(t time.Time) *time.Time {
	return &t
}
