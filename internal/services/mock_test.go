package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"event-ticketing-api/internal/models"
	"event-ticketing-api/internal/repositories"

	"github.com/shopspring/decimal"
)

var errMock = errors.New("mock error")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockEventRepository keeps events in memory and doubles as the capacity
// ledger, guarding the counters with one mutex.
type mockEventRepository struct {
	mu            sync.Mutex
	events        map[string]*models.Event
	shouldFailOps map[string]bool
	releases      int
}

func newMockEventRepository() *mockEventRepository {
	return &mockEventRepository{
		events:        make(map[string]*models.Event),
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockEventRepository) fail(op string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shouldFailOps[op]
}

func (m *mockEventRepository) setFail(op string, fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFailOps[op] = fail
}

func (m *mockEventRepository) put(event *models.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *event
	m.events[event.ID] = &copied
}

func (m *mockEventRepository) available(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id].AvailableTickets
}

func (m *mockEventRepository) Create(ctx context.Context, event *models.Event) error {
	if m.fail("Create") {
		return errMock
	}
	m.put(event)
	return nil
}

func (m *mockEventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	if m.fail("GetByID") {
		return nil, errMock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (m *mockEventRepository) ListUpcoming(ctx context.Context, now time.Time, limit int) ([]*models.Event, error) {
	if m.fail("ListUpcoming") {
		return nil, errMock
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*models.Event
	for _, e := range m.events {
		if e.IsPublished() && e.StartDate.After(now) {
			copied := *e
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.Before(result[j].StartDate) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockEventRepository) UpdateStatus(ctx context.Context, event *models.Event) error {
	if m.fail("UpdateStatus") {
		return errMock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.events[event.ID]
	if !ok {
		return models.ErrEventNotFound
	}
	stored.Status = event.Status
	stored.ValidatedBy = event.ValidatedBy
	stored.ValidatedAt = event.ValidatedAt
	stored.UpdatedAt = event.UpdatedAt
	return nil
}

func (m *mockEventRepository) Reserve(ctx context.Context, eventID string, quantity int) (int, error) {
	if m.fail("Reserve") {
		return 0, errMock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return 0, models.ErrEventNotFound
	}
	if err := event.Reserve(quantity); err != nil {
		return 0, err
	}
	return event.AvailableTickets, nil
}

func (m *mockEventRepository) Release(ctx context.Context, eventID string, quantity int) (int, error) {
	if m.fail("Release") {
		return 0, errMock
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	event, ok := m.events[eventID]
	if !ok {
		return 0, models.ErrEventNotFound
	}
	event.Release(quantity)
	m.releases++
	return event.AvailableTickets, nil
}

func (m *mockEventRepository) Available(ctx context.Context, event *models.Event) (int, error) {
	if m.fail("Available") {
		return 0, errMock
	}
	return m.available(event.ID), nil
}

// mockTicketRepository stores copies so callers cannot mutate stored rows
type mockTicketRepository struct {
	mu            sync.Mutex
	tickets       map[string]*models.Ticket
	shouldFailOps map[string]bool
	createCalls   int
	// updateFailures fails the next n Update calls
	updateFailures int
}

func newMockTicketRepository() *mockTicketRepository {
	return &mockTicketRepository{
		tickets:       make(map[string]*models.Ticket),
		shouldFailOps: make(map[string]bool),
	}
}

func (m *mockTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.shouldFailOps["Create"] {
		return errMock
	}
	if err := ticket.Validate(); err != nil {
		return err
	}
	for _, t := range m.tickets {
		if t.TicketNumber == ticket.TicketNumber {
			return fmt.Errorf("duplicate ticket number: %w", models.ErrConflict)
		}
	}
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOps["GetByID"] {
		return nil, errMock
	}
	t, ok := m.tickets[id]
	if !ok {
		return nil, models.ErrTicketNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *mockTicketRepository) GetByNumberAndCode(ctx context.Context, number, code string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOps["GetByNumberAndCode"] {
		return nil, errMock
	}
	for _, t := range m.tickets {
		if t.TicketNumber == number && t.ValidationCode == code {
			copied := *t
			return &copied, nil
		}
	}
	return nil, models.ErrTicketNotFound
}

func (m *mockTicketRepository) Update(ctx context.Context, ticket *models.Ticket, expected models.TicketState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOps["Update"] {
		return errMock
	}
	if m.updateFailures > 0 {
		m.updateFailures--
		return errMock
	}
	stored, ok := m.tickets[ticket.ID]
	if !ok {
		return models.ErrTicketNotFound
	}
	if stored.State() != expected {
		return models.ErrConflict
	}
	copied := *ticket
	m.tickets[ticket.ID] = &copied
	return nil
}

func (m *mockTicketRepository) Delete(ctx context.Context, id string, expected models.TicketState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOps["Delete"] {
		return errMock
	}
	stored, ok := m.tickets[id]
	if !ok || stored.State() != expected {
		return models.ErrConflict
	}
	delete(m.tickets, id)
	return nil
}

func (m *mockTicketRepository) ListByUser(ctx context.Context, userID string, filters repositories.TicketSearchFilters) ([]*models.Ticket, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOps["ListByUser"] {
		return nil, 0, errMock
	}
	var result []*models.Ticket
	for _, t := range m.tickets {
		if t.UserID() != userID {
			continue
		}
		if filters.Status != "" && t.Status != filters.Status {
			continue
		}
		copied := *t
		result = append(result, &copied)
	}
	return result, len(result), nil
}

func (m *mockTicketRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFailOps["ListByEvent"] {
		return nil, errMock
	}
	var result []*models.Ticket
	for _, t := range m.tickets {
		if t.EventID == eventID {
			copied := *t
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockTicketRepository) EventStats(ctx context.Context, eventID string) ([]repositories.StatusStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byStatus := make(map[models.TicketStatus]*repositories.StatusStat)
	for _, t := range m.tickets {
		if t.EventID != eventID {
			continue
		}
		stat, ok := byStatus[t.Status]
		if !ok {
			stat = &repositories.StatusStat{Status: t.Status, TotalRevenue: decimal.Zero}
			byStatus[t.Status] = stat
		}
		stat.Tickets++
		stat.TotalQuantity += t.Quantity
		stat.TotalRevenue = stat.TotalRevenue.Add(t.TotalPrice)
	}
	var result []repositories.StatusStat
	for _, stat := range byStatus {
		result = append(result, *stat)
	}
	return result, nil
}

// stored returns the persisted copy of a ticket
func (m *mockTicketRepository) stored(id string) *models.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *m.tickets[id]
	return &copied
}

type mockPaymentProcessor struct {
	mu      sync.Mutex
	decline bool
	err     error
	calls   int
}

func (m *mockPaymentProcessor) ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	result := &PaymentResult{
		PaymentID: fmt.Sprintf("PAY_TEST_%d", m.calls),
		Status:    PaymentResultSuccess,
		Amount:    req.Amount,
	}
	if m.decline {
		result.Status = PaymentResultFailed
		result.ErrorMessage = "card declined"
	}
	return result, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// sequenceIDs hands out predictable ids; numbers repeats the first
// duplicates ticket numbers before moving on.
type sequenceIDs struct {
	mu         sync.Mutex
	next       int
	duplicates int
}

func (g *sequenceIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

func (g *sequenceIDs) TicketNumber(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.duplicates > 0 {
		g.duplicates--
		return "TKT-DUPLICATE"
	}
	g.next++
	return fmt.Sprintf("TKT-%d-%09d", now.UnixMilli(), g.next)
}

func (g *sequenceIDs) ValidationCode() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("C%05d", g.next)
}

func (g *sequenceIDs) PaymentReference(now time.Time) string {
	return fmt.Sprintf("PAY_%d_TEST", now.UnixMilli())
}

// mockAuditRepository keeps audit entries in insertion order
type mockAuditRepository struct {
	mu      sync.Mutex
	entries []*models.AuditLog
	failing bool
}

func (m *mockAuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errMock
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepository) GetByTarget(ctx context.Context, targetType, targetID string, limit, offset int) ([]*models.AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.AuditLog
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if e.TargetType == targetType && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func (m *mockAuditRepository) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}
