package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/instrument-shop/internal/domain"
	"github.com/DRSN-tech/instrument-shop/internal/repository/memory"
	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/keymutex"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []usecase.CartEvent
	err    error
}

func (p *recordingPublisher) PublishCartEvent(_ context.Context, event *usecase.CartEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, *event)
	return p.err
}

func (p *recordingPublisher) types() []usecase.CartEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]usecase.CartEventType, 0, len(p.events))
	for _, ev := range p.events {
		res = append(res, ev.Type)
	}
	return res
}

type failingSessions struct {
	getErr error
	setErr error
}

func (f *failingSessions) Get(context.Context, string, string) ([]byte, error) {
	return nil, f.getErr
}

func (f *failingSessions) Set(context.Context, string, string, []byte) error {
	return f.setErr
}

type failingLocker struct {
	err error
}

func (l failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, l.err
}

type cartFixture struct {
	uc        *usecase.CartUseCase
	sessions  *memory.SessionRepo
	locks     *keymutex.KeyMutex
	publisher *recordingPublisher
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()

	f := &cartFixture{
		sessions:  memory.NewSessionRepo(0),
		locks:     keymutex.New(),
		publisher: &recordingPublisher{},
	}
	f.uc = usecase.NewCartUC(
		memory.NewSeededProductRepo(),
		f.sessions,
		f.locks,
		f.publisher,
		logger.NewNop(),
		usecase.CartOptions{LockTimeout: time.Second},
	)
	return f
}

func TestCartGet_EmptyForNewSession(t *testing.T) {
	f := newCartFixture(t)

	cart, err := f.uc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	stored, err := f.sessions.Get(context.Background(), "s1", domain.CartSessionKey)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestCartAdd_TwiceIncrementsAndPersists(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, 1))
	require.NoError(t, err)
	_, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, 0))
	require.NoError(t, err)

	cart, err := f.uc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "259.8", cart.Total().String())

	assert.Equal(t, []usecase.CartEventType{usecase.CartItemAdded, usecase.CartItemAdded}, f.publisher.types())
}

func TestCartAdd_SessionsAreIsolated(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, 1))
	require.NoError(t, err)

	other, err := f.uc.Get(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestCartAdd_UnknownProductDoesNotMutate(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 3, 1))
	require.NoError(t, err)

	_, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 999, 1))
	require.ErrorIs(t, err, e.ErrProductNotFound)

	cart, err := f.uc.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(3), cart.Items[0].ProductID)
	assert.Len(t, f.publisher.types(), 1)
}

func TestCartAdd_InvalidArguments(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.Add(ctx, usecase.NewAddToCartReq(" ", 1, 1))
	require.ErrorIs(t, err, e.ErrEmptySessionID)

	_, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 0, 1))
	require.ErrorIs(t, err, e.ErrInvalidProductID)

	_, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, -2))
	require.ErrorIs(t, err, e.ErrInvalidQuantity)

	assert.Empty(t, f.publisher.types())
}

func TestCartRemove_Idempotent(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, 1))
	require.NoError(t, err)
	_, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 4, 2))
	require.NoError(t, err)

	cart, err := f.uc.Remove(ctx, usecase.NewRemoveFromCartReq("s1", 1))
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	again, err := f.uc.Remove(ctx, usecase.NewRemoveFromCartReq("s1", 1))
	require.NoError(t, err)
	assert.Equal(t, cart.Items, again.Items)

	missing, err := f.uc.Remove(ctx, usecase.NewRemoveFromCartReq("fresh", 7))
	require.NoError(t, err)
	assert.True(t, missing.IsEmpty())

	removed := 0
	for _, tp := range f.publisher.types() {
		if tp == usecase.CartItemRemoved {
			removed++
		}
	}
	assert.Equal(t, 1, removed)
}

func TestCartDecreaseAndClear(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	_, err := f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 2, 3))
	require.NoError(t, err)

	cart, err := f.uc.Decrease(ctx, usecase.NewDecreaseCartItemReq("s1", 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	_, err = f.uc.Decrease(ctx, usecase.NewDecreaseCartItemReq("s1", 2, 0))
	require.ErrorIs(t, err, e.ErrInvalidQuantity)

	cart, err = f.uc.Decrease(ctx, usecase.NewDecreaseCartItemReq("s1", 2, 5))
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	cart, err = f.uc.Decrease(ctx, usecase.NewDecreaseCartItemReq("s1", 2, 1))
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, []usecase.CartEventType{
		usecase.CartItemAdded,
		usecase.CartItemDecreased,
		usecase.CartItemDecreased,
	}, f.publisher.types())

	_, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 5, 1))
	require.NoError(t, err)
	cart, err = f.uc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	stored, err := f.uc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())
}

func TestCartAdd_ConcurrentNoLostUpdates(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := range workers {
		go func() {
			defer wg.Done()
			productID := int64(1 + i%2)
			_, err := f.uc.Add(ctx, usecase.NewAddToCartReq("shared", productID, 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := f.uc.Get(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, workers, cart.Count())

	item, ok := cart.Item(1)
	require.True(t, ok)
	assert.Equal(t, workers/2, item.Quantity)
	assert.Equal(t, 0, f.locks.Len())
}

func TestCartAdd_SessionBusy(t *testing.T) {
	locks := keymutex.New()
	uc := usecase.NewCartUC(
		memory.NewSeededProductRepo(),
		memory.NewSessionRepo(0),
		locks,
		nil,
		logger.NewNop(),
		usecase.CartOptions{LockTimeout: 20 * time.Millisecond},
	)

	unlock, err := locks.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	_, err = uc.Add(context.Background(), usecase.NewAddToCartReq("s1", 1, 1))
	require.ErrorIs(t, err, e.ErrSessionBusy)

	_, err = uc.Add(context.Background(), usecase.NewAddToCartReq("s2", 1, 1))
	require.NoError(t, err)
}

func TestCartAdd_CanceledRequestIsNotBusy(t *testing.T) {
	locks := keymutex.New()
	uc := usecase.NewCartUC(
		memory.NewSeededProductRepo(),
		memory.NewSessionRepo(0),
		locks,
		nil,
		logger.NewNop(),
		usecase.CartOptions{LockTimeout: time.Second},
	)

	unlock, err := locks.Lock(context.Background(), "s1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = uc.Clear(ctx, "s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrSessionBusy)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCart_SessionStoreFailures(t *testing.T) {
	storeErr := errors.New("connection refused")
	ctx := context.Background()

	newUC := func(sessions usecase.SessionStore) *usecase.CartUseCase {
		return usecase.NewCartUC(memory.NewSeededProductRepo(), sessions, keymutex.New(), nil, logger.NewNop(), usecase.CartOptions{})
	}

	readFails := newUC(&failingSessions{getErr: storeErr})
	_, err := readFails.Get(ctx, "s1")
	require.ErrorIs(t, err, e.ErrSessionStore)
	require.ErrorIs(t, err, storeErr)

	_, err = readFails.Add(ctx, usecase.NewAddToCartReq("s1", 1, 1))
	require.ErrorIs(t, err, e.ErrSessionStore)

	writeFails := newUC(&failingSessions{setErr: storeErr})
	_, err = writeFails.Remove(ctx, usecase.NewRemoveFromCartReq("s1", 1))
	require.ErrorIs(t, err, e.ErrSessionStore)
}

func TestCart_LockStoreFailureIsNotBusy(t *testing.T) {
	dialErr := e.WrapKind(e.ErrSessionStore, fmt.Errorf("dial tcp: %w", context.DeadlineExceeded))
	uc := usecase.NewCartUC(
		memory.NewSeededProductRepo(),
		memory.NewSessionRepo(0),
		failingLocker{err: dialErr},
		nil,
		logger.NewNop(),
		usecase.CartOptions{LockTimeout: time.Second},
	)
	ctx := context.Background()

	_, err := uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, 1))
	require.ErrorIs(t, err, e.ErrSessionStore)
	assert.NotErrorIs(t, err, e.ErrSessionBusy)

	_, err = uc.Decrease(ctx, usecase.NewDecreaseCartItemReq("s1", 1, 1))
	require.ErrorIs(t, err, e.ErrSessionStore)
	assert.NotErrorIs(t, err, e.ErrSessionBusy)
}

func TestCart_CorruptStoredCartIsReset(t *testing.T) {
	f := newCartFixture(t)
	ctx := context.Background()

	require.NoError(t, f.sessions.Set(ctx, "s1", domain.CartSessionKey, []byte("not json")))

	cart, err := f.uc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	cart, err = f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 6, 1))
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	stored, err := f.sessions.Get(ctx, "s1", domain.CartSessionKey)
	require.NoError(t, err)
	decoded, err := usecase.DecodeCart(stored)
	require.NoError(t, err)
	assert.Equal(t, cart.Items, decoded.Items)
}

func TestCart_PublishFailureDoesNotFailMutation(t *testing.T) {
	f := newCartFixture(t)
	f.publisher.err = errors.New("kafka unavailable")
	ctx := context.Background()

	cart, err := f.uc.Add(ctx, usecase.NewAddToCartReq("s1", 1, 1))
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	ev := f.publisher.events[0]
	assert.Equal(t, "s1", ev.SessionID)
	assert.Equal(t, int64(1), ev.ProductID)
	assert.Equal(t, 1, ev.Quantity)
	assert.NotEmpty(t, ev.EventID)
}
