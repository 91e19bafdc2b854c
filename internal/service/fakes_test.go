package service

import (
	"context"
	"sync"
	"time"

	"github.com/brewline/order-service/internal/gateway"
	"github.com/brewline/order-service/internal/model"
	"github.com/brewline/order-service/internal/queue"
	"github.com/brewline/order-service/internal/repository"
)

// In-memory store fakes. Each guards its state with a mutex so concurrency
// tests exercise the same all-or-nothing semantics the SQL repositories get
// from row-level atomicity.

type fakeOrderStore struct {
	mu       sync.Mutex
	orders   map[string]*model.Order
	byIntent map[string]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders:   make(map[string]*model.Order),
		byIntent: make(map[string]string),
	}
}

func (s *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *o
	cp.CreatedAt = time.Now().UTC()
	s.orders[o.ID] = &cp
	return nil
}

func (s *fakeOrderStore) AttachIntent(_ context.Context, rec *model.PaymentIntentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[rec.OrderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	id := rec.IntentID
	o.PaymentIntentID = &id
	s.byIntent[id] = rec.OrderID
	return nil
}

func (s *fakeOrderStore) GetByID(_ context.Context, id string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *fakeOrderStore) GetByIntentID(_ context.Context, intentID string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	if !ok {
		return nil, repository.ErrUnknownIntent
	}
	cp := *s.orders[id]
	return &cp, nil
}

func (s *fakeOrderStore) MarkProcessing(_ context.Context, intentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	if !ok {
		return false, nil
	}
	o := s.orders[id]
	if o.PaymentStatus != model.PaymentStatusPending {
		return false, nil
	}
	o.PaymentStatus = model.PaymentStatusProcessing
	return true, nil
}

func (s *fakeOrderStore) MarkTerminal(_ context.Context, intentID, paymentStatus string, _, _ *string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byIntent[intentID]
	if !ok {
		return false, nil
	}
	o := s.orders[id]
	if model.IsTerminalPayment(o.PaymentStatus) {
		return false, nil
	}
	derived, _ := model.DeriveOrderStatus(paymentStatus)
	o.PaymentStatus = paymentStatus
	o.Status = derived
	return true, nil
}

func (s *fakeOrderStore) MarkGatewayFailure(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	if o.PaymentStatus == model.PaymentStatusPending {
		o.Status = model.OrderStatusCancelled
		o.PaymentStatus = model.PaymentStatusFailed
	}
	return nil
}

func (s *fakeOrderStore) CancelStale(_ context.Context, maxAge time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().UTC().Add(-maxAge)
	var n int64
	for _, o := range s.orders {
		if o.PaymentStatus == model.PaymentStatusPending && o.PaymentIntentID == nil && o.CreatedAt.Before(cutoff) {
			o.Status = model.OrderStatusCancelled
			o.PaymentStatus = model.PaymentStatusCanceled
			n++
		}
	}
	return n, nil
}

type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[uint64]*model.Profile
	awards   map[string]int64
	merch    map[uint64]*model.MerchItem
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{
		profiles: make(map[uint64]*model.Profile),
		awards:   make(map[string]int64),
		merch:    make(map[uint64]*model.MerchItem),
	}
}

func (s *fakeProfileStore) GetByUserID(_ context.Context, userID uint64) (*model.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProfileStore) AwardPoints(_ context.Context, userID uint64, orderID string, points int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if points <= 0 {
		return nil
	}
	if _, done := s.awards[orderID]; done {
		return nil
	}
	p, ok := s.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	s.awards[orderID] = points
	p.Points += points
	return nil
}

func (s *fakeProfileStore) RedeemPoints(_ context.Context, userID uint64, cost int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	if p.Points < cost {
		return repository.ErrInsufficientPoints
	}
	p.Points -= cost
	return nil
}

func (s *fakeProfileStore) GetMerchItem(_ context.Context, merchID uint64) (*model.MerchItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.merch[merchID]
	if !ok {
		return nil, repository.ErrMerchNotFound
	}
	cp := *m
	return &cp, nil
}

type rsvpKey struct {
	eventID uint64
	userID  uint64
}

type fakeEventStore struct {
	mu     sync.Mutex
	events map[uint64]*model.Event
	rsvps  map[rsvpKey]bool
	// When set, Cancel fails after the delete step the way a broken counter
	// update would, and the reservation row must survive (rollback).
	failIncrement bool
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{
		events: make(map[uint64]*model.Event),
		rsvps:  make(map[rsvpKey]bool),
	}
}

func (s *fakeEventStore) Reserve(_ context.Context, eventID, userID uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return 0, repository.ErrEventNotFound
	}
	k := rsvpKey{eventID, userID}
	if s.rsvps[k] {
		return 0, repository.ErrAlreadyReserved
	}
	if ev.AvailableSpots == 0 {
		return 0, repository.ErrCapacityExhausted
	}
	ev.AvailableSpots--
	s.rsvps[k] = true
	return ev.AvailableSpots, nil
}

func (s *fakeEventStore) Cancel(_ context.Context, eventID, userID uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := rsvpKey{eventID, userID}
	if !s.rsvps[k] {
		return 0, repository.ErrNoReservation
	}
	if s.failIncrement {
		return 0, repository.ErrCapacityUpdateFailed
	}
	delete(s.rsvps, k)
	ev := s.events[eventID]
	if ev.AvailableSpots < ev.Capacity {
		ev.AvailableSpots++
	}
	return ev.AvailableSpots, nil
}

func (s *fakeEventStore) GetByID(_ context.Context, eventID uint64) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrEventNotFound
	}
	cp := *ev
	return &cp, nil
}

func (s *fakeEventStore) List(_ context.Context) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, *ev)
	}
	return out, nil
}

type fakeNotificationStore struct {
	mu    sync.Mutex
	items []model.Notification
}

func (s *fakeNotificationStore) Create(_ context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *n)
	return nil
}

func (s *fakeNotificationStore) ListByUser(_ context.Context, userID uint64) ([]model.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Notification, 0)
	for _, n := range s.items {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, id string, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].UserID == userID {
			s.items[i].Read = true
			return nil
		}
	}
	return repository.ErrForbidden
}

func (s *fakeNotificationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type fakeGateway struct {
	mu      sync.Mutex
	err     error
	created []gateway.IntentParams
}

func (g *fakeGateway) CreateIntent(_ context.Context, p gateway.IntentParams) (*gateway.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.created = append(g.created, p)
	return &gateway.Intent{
		ID:           "pi_" + p.OrderID,
		ClientSecret: "pi_" + p.OrderID + "_secret",
		Status:       "requires_payment_method",
		Amount:       p.AmountCents,
		Currency:     p.Currency,
	}, nil
}

type fakeDispatcher struct {
	mu     sync.Mutex
	events []queue.NotificationDispatch
	err    error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, ev queue.NotificationDispatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.events = append(d.events, ev)
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (d *fakeDeduper) Seen(_ context.Context, eventID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seen[eventID]
}

func (d *fakeDeduper) Mark(_ context.Context, eventID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[eventID] = true
}
