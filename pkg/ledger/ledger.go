package ledger

import (
	"fmt"
	"sync"

	"github.com/dskvich/homework-telegram-bot/pkg/metrics"
)

// Ledger keeps the consumable credit balance of every identity in memory.
// Identities are created lazily with the trial balance on first access.
type Ledger struct {
	mu       sync.Mutex
	balances map[int64]int64
	trial    int64
}

func New(trial int64) *Ledger {
	if trial < 0 {
		trial = 0
	}
	return &Ledger{
		balances: make(map[int64]int64),
		trial:    trial,
	}
}

// TryConsume takes one credit if the balance allows it.
func (l *Ledger) TryConsume(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	balance := l.balanceLocked(userID)
	if balance < 1 {
		metrics.CreditOperations.WithLabelValues("rejected").Inc()
		return false
	}
	l.balances[userID] = balance - 1
	metrics.CreditOperations.WithLabelValues("consume").Inc()

	return true
}

// Credit adds purchased units to the balance.
func (l *Ledger) Credit(userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[userID] = l.balanceLocked(userID) + amount
	metrics.CreditOperations.WithLabelValues("credit").Inc()

	return nil
}

// Refund returns a unit taken by TryConsume whose request produced no answer.
func (l *Ledger) Refund(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balances[userID] = l.balanceLocked(userID) + 1
	metrics.CreditOperations.WithLabelValues("refund").Inc()
}

func (l *Ledger) Balance(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balanceLocked(userID)
}

func (l *Ledger) balanceLocked(userID int64) int64 {
	balance, ok := l.balances[userID]
	if !ok {
		balance = l.trial
		l.balances[userID] = balance
	}
	return balance
}
