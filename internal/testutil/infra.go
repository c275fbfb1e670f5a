package testutil

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spendly/spendly-backend/internal/domain"
	"github.com/spendly/spendly-backend/internal/mail"
	"github.com/spendly/spendly-backend/internal/websocket"
)

// MockMailQueue records enqueued messages
type MockMailQueue struct {
	mu       sync.Mutex
	Messages []*mail.Message
	Err      error
}

// NewMockMailQueue creates a new MockMailQueue
func NewMockMailQueue() *MockMailQueue {
	return &MockMailQueue{}
}

func (m *MockMailQueue) Enqueue(ctx context.Context, msg *mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// ByKind returns the recorded messages of one kind
func (m *MockMailQueue) ByKind(kind mail.Kind) []*mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*mail.Message
	for _, msg := range m.Messages {
		if msg.Kind == kind {
			result = append(result, msg)
		}
	}
	return result
}

// MockObjectStore keeps uploaded objects in memory
type MockObjectStore struct {
	Objects   map[string][]byte
	Types     map[string]string
	Deleted   []string
	UploadErr error
}

// NewMockObjectStore creates a new MockObjectStore
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (m *MockObjectStore) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	buf, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.Objects[objectPath] = buf
	m.Types[objectPath] = contentType
	return objectPath, nil
}

func (m *MockObjectStore) Delete(ctx context.Context, objectPath string) error {
	delete(m.Objects, objectPath)
	m.Deleted = append(m.Deleted, objectPath)
	return nil
}

func (m *MockObjectStore) URL(ctx context.Context, objectPath string) (string, error) {
	return "https://storage.test/" + objectPath, nil
}

// PublishedEvent is one event captured by MockEventPublisher
type PublishedEvent struct {
	UserID uuid.UUID
	Event  websocket.Event
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(userID uuid.UUID, event websocket.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{UserID: userID, Event: event})
}

// Types returns the combined type of every recorded event in order
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Event.Type
	}
	return types
}

// Count returns how many events of the given combined type were recorded
func (m *MockEventPublisher) Count(eventType string) int {
	count := 0
	for _, t := range m.Types() {
		if t == eventType {
			count++
		}
	}
	return count
}

// MockReportRepository aggregates the transactions held by the linked mocks
type MockReportRepository struct {
	Transactions *MockTransactionRepository
	Wallets      *MockWalletRepository
	Categories   *MockCategoryRepository
	LastFilter   *domain.ReportFilter
}

// NewMockReportRepository creates a new MockReportRepository
func NewMockReportRepository(txRepo *MockTransactionRepository, walletRepo *MockWalletRepository, categoryRepo *MockCategoryRepository) *MockReportRepository {
	return &MockReportRepository{
		Transactions: txRepo,
		Wallets:      walletRepo,
		Categories:   categoryRepo,
	}
}

func (m *MockReportRepository) matching(userID uuid.UUID, filter domain.ReportFilter) []*domain.Transaction {
	m.LastFilter = &filter
	start := dayOf(filter.StartDate)
	end := dayOf(filter.EndDate)
	result := make([]*domain.Transaction, 0)
	for _, t := range m.Transactions.Live(userID) {
		d := dayOf(t.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		if filter.WalletID != nil && !t.Touches(*filter.WalletID) {
			continue
		}
		if filter.Currency != "" {
			w, ok := m.Wallets.Wallets[t.WalletID]
			if !ok || w.Currency != filter.Currency {
				continue
			}
		}
		result = append(result, t)
	}
	return result
}

func (m *MockReportRepository) SumByType(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter) (*domain.TypeTotals, error) {
	totals := &domain.TypeTotals{Income: decimal.Zero, Expense: decimal.Zero}
	for _, t := range m.matching(userID, filter) {
		switch t.Type {
		case domain.TransactionTypeIncome:
			totals.Income = totals.Income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	return totals, nil
}

func (m *MockReportRepository) CategoryBreakdown(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter) ([]*domain.CategoryTotal, error) {
	type key struct {
		id     int32
		txType domain.TransactionType
	}
	rows := make(map[key]*domain.CategoryTotal)
	for _, t := range m.matching(userID, filter) {
		if t.Type == domain.TransactionTypeTransfer || t.CategoryID == nil {
			continue
		}
		k := key{id: *t.CategoryID, txType: t.Type}
		var name, icon, color string
		if c, ok := m.Categories.Categories[*t.CategoryID]; ok {
			name, icon, color = c.Name, c.Icon, c.Color
		}
		row, ok := rows[k]
		if !ok {
			row = &domain.CategoryTotal{CategoryID: k.id, CategoryName: name, Icon: icon, Color: color, Type: t.Type, Amount: decimal.Zero}
			rows[k] = row
		}
		row.Amount = row.Amount.Add(t.Amount)
		row.Count++
	}
	result := make([]*domain.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Amount.Equal(result[j].Amount) {
			return result[i].Amount.GreaterThan(result[j].Amount)
		}
		return result[i].CategoryID < result[j].CategoryID
	})
	return result, nil
}

func (m *MockReportRepository) Series(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter, bucket domain.BucketSize) ([]*domain.SeriesPoint, error) {
	points := make(map[time.Time]*domain.SeriesPoint)
	for _, t := range m.matching(userID, filter) {
		b := dayOf(t.Date)
		if bucket == domain.BucketMonth {
			b = time.Date(b.Year(), b.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
		p, ok := points[b]
		if !ok {
			p = &domain.SeriesPoint{Bucket: b, Income: decimal.Zero, Expense: decimal.Zero}
			points[b] = p
		}
		switch t.Type {
		case domain.TransactionTypeIncome:
			p.Income = p.Income.Add(t.Amount)
		case domain.TransactionTypeExpense:
			p.Expense = p.Expense.Add(t.Amount)
		}
	}
	result := make([]*domain.SeriesPoint, 0, len(points))
	for _, p := range points {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Bucket.Before(result[j].Bucket) })
	return result, nil
}

func (m *MockReportRepository) StatementLines(ctx context.Context, userID uuid.UUID, filter domain.ReportFilter, limit int32) ([]*domain.StatementLine, error) {
	txs := m.matching(userID, filter)
	sort.Slice(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date) {
			return txs[i].Date.Before(txs[j].Date)
		}
		return txs[i].ID < txs[j].ID
	})
	lines := make([]*domain.StatementLine, 0, len(txs))
	for _, t := range txs {
		if int32(len(lines)) >= limit {
			break
		}
		line := &domain.StatementLine{Date: t.Date, Type: t.Type, Amount: t.Amount}
		if w, ok := m.Wallets.Wallets[t.WalletID]; ok {
			line.WalletName = w.Name
		}
		if t.CategoryID != nil {
			if c, ok := m.Categories.Categories[*t.CategoryID]; ok {
				line.CategoryName = c.Name
			}
		} else if t.ToWalletID != nil {
			if w, ok := m.Wallets.Wallets[*t.ToWalletID]; ok {
				line.CategoryName = fmt.Sprintf("To %s", w.Name)
			}
		}
		if t.Note != nil {
			line.Note = *t.Note
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
