package pipeline

import (
	"context"
	"errors"
	"math"
	"math/big"
	"sync"

	"github.com/Haithedotai/core/pkg/apierr"
	"github.com/Haithedotai/core/pkg/model"
)

// keyedMutex serializes work per organization. Waiters give up when their
// context ends.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	ch   chan struct{}
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*keyedLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases
// the lock and is safe to call more than once.
func (k *keyedMutex) Lock(ctx context.Context, key int64) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{ch: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, l)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-l.ch
			k.release(key, l)
		})
	}, nil
}

func (k *keyedMutex) release(key int64, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// size is the number of keys currently held or waited on.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// checkBalance fails when the organization's token balance is below total.
// It returns the expenditure recorded so far.
func (p *Pipeline) checkBalance(ctx context.Context, org *model.Organization, total uint64) (uint64, error) {
	balance, err := p.deps.Chain.TokenBalance(ctx, org.GetAddress())
	if err != nil {
		return 0, apierr.Internal("Failed to call balanceOf", err)
	}
	spent, err := p.deps.Store.Expenditure(ctx, org.ID)
	if err != nil {
		return 0, apierr.Internal("Failed to load expenditure", err)
	}
	if balance.Cmp(new(big.Int).SetUint64(total)) < 0 {
		return 0, apierr.BadRequest("Insufficient funds")
	}
	return uint64(max(spent, 0)), nil
}

// commit adds total to the organization's expenditure and returns the value
// it had before.
func (p *Pipeline) commit(ctx context.Context, org *model.Organization, total uint64) (uint64, error) {
	if total > math.MaxInt64 {
		return 0, apierr.Internal("Failed to update expenditure", errors.New("cost exceeds ledger range"))
	}
	before, err := p.deps.Store.AddExpenditure(context.WithoutCancel(ctx), org.ID, int64(total))
	if err != nil {
		return 0, apierr.Internal("Failed to update expenditure", err)
	}
	return uint64(max(before, 0)), nil
}
