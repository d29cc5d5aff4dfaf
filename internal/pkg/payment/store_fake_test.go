package payment

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mxi-labs/presale/app/models"
	"github.com/mxi-labs/presale/app/repository"
)

var errInjected = errors.New("injected store failure")

// memStore is an in-memory ledger. With atomic set, InTransaction restores
// a snapshot when fn fails; otherwise writes stay applied like a store
// without multi-row transactions.
type memStore struct {
	mu          sync.Mutex
	atomic      bool
	payments    map[string]models.Payment
	users       map[string]models.User
	commissions []models.Commission
	metrics     repository.MetricsDelta
	audits      []models.AuditLog

	failCommissionLevel int
	failReferrerOf      string
	failMetrics         bool
	failAudit           bool
	failRevert          bool
}

func newMemStore(atomic bool) *memStore {
	return &memStore{
		atomic:   atomic,
		payments: map[string]models.Payment{},
		users:    map[string]models.User{},
	}
}

func (m *memStore) addUser(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *memStore) addPayment(p models.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.PaymentID] = p
}

func (m *memStore) payment(id string) models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[id]
}

func (m *memStore) user(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[id]
}

func (m *memStore) commissionRows() []models.Commission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Commission(nil), m.commissions...)
}

func (m *memStore) auditRows() []models.AuditLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.AuditLog(nil), m.audits...)
}

func (m *memStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (m *memStore) TransitionPayment(ctx context.Context, paymentID, fromStatus string, update repository.PaymentUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[paymentID]
	if !ok || p.Status != fromStatus {
		return ErrConcurrentUpdate
	}
	if m.failRevert && fromStatus == models.PaymentStatusConfirmed {
		return errInjected
	}
	p.Status = update.Status
	if update.ConfirmedAt != nil {
		at := *update.ConfirmedAt
		p.ConfirmedAt = &at
	}
	if update.ClearConfirmedAt {
		p.ConfirmedAt = nil
	}
	if update.OkxTransactionID != nil {
		tx := *update.OkxTransactionID
		p.OkxTransactionID = &tx
	}
	if update.IncrementAttempts {
		p.VerificationAttempts++
	}
	if update.LastVerificationAt != nil {
		at := *update.LastVerificationAt
		p.LastVerificationAt = &at
	}
	m.payments[paymentID] = p
	return nil
}

func (m *memStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.payments {
		if (p.Status == models.PaymentStatusPending || p.Status == models.PaymentStatusConfirming) && p.ExpiresAt.Before(now) {
			p.Status = models.PaymentStatusExpired
			m.payments[id] = p
			n++
		}
	}
	return n, nil
}

func (m *memStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (m *memStore) LockUser(ctx context.Context, userID string) (*models.User, error) {
	return m.GetUser(ctx, userID)
}

func (m *memStore) UpdateUserBalance(ctx context.Context, userID string, update repository.BalanceUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.MxiBalance = update.MxiBalance
	u.UsdtContributed = update.UsdtContributed
	u.MxiPurchasedDirectly = update.MxiPurchasedDirectly
	u.IsActiveContributor = update.IsActiveContributor
	u.YieldRatePerMinute = update.YieldRatePerMinute
	u.LastYieldUpdate = update.LastYieldUpdate
	m.users[userID] = u
	return nil
}

func (m *memStore) GetReferrerID(ctx context.Context, userID string) (*string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReferrerOf == userID {
		return nil, errInjected
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !u.HasReferrer() {
		return nil, nil
	}
	ref := *u.ReferredBy
	return &ref, nil
}

func (m *memStore) CreateCommission(ctx context.Context, c *models.Commission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCommissionLevel == c.Level {
		return errInjected
	}
	c.ID = uint(len(m.commissions) + 1)
	m.commissions = append(m.commissions, *c)
	return nil
}

func (m *memStore) IncrementMetrics(ctx context.Context, delta repository.MetricsDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failMetrics {
		return errInjected
	}
	m.metrics.TokensSold = m.metrics.TokensSold.Add(delta.TokensSold)
	m.metrics.UsdtContributed = m.metrics.UsdtContributed.Add(delta.UsdtContributed)
	m.metrics.TokensDistributed = m.metrics.TokensDistributed.Add(delta.TokensDistributed)
	return nil
}

func (m *memStore) AppendAuditLog(ctx context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAudit {
		return errInjected
	}
	entry.ID = uint(len(m.audits) + 1)
	m.audits = append(m.audits, *entry)
	return nil
}

func (m *memStore) ListAuditLogs(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditLog
	for _, a := range m.audits {
		if a.PaymentID == paymentID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) InTransaction(ctx context.Context, fn func(tx Store) error) error {
	if !m.atomic {
		return fn(m)
	}

	m.mu.Lock()
	payments := make(map[string]models.Payment, len(m.payments))
	for k, v := range m.payments {
		payments[k] = v
	}
	users := make(map[string]models.User, len(m.users))
	for k, v := range m.users {
		users[k] = v
	}
	commissions := len(m.commissions)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.payments = payments
		m.users = users
		m.commissions = m.commissions[:commissions]
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Atomic() bool {
	return m.atomic
}
