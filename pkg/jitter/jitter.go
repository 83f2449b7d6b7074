// Package jitter считает интервалы повторных попыток с экспоненциальным ростом и случайной добавкой,
// чтобы конкурирующие клиенты не повторяли запросы синхронно.
package jitter

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// DefaultJitter - стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

var (
	globalRand = rand.New(rand.NewSource(time.Now().UnixNano()))
	randMutex  sync.Mutex
)

// Duration возвращает d с добавкой в диапазоне [0, d*jitterFactor].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	randMutex.Lock()
	f := globalRand.Float64()
	randMutex.Unlock()

	return d + time.Duration(f*jitterFactor*float64(d))
}

// Backoff описывает политику ожидания между попытками.
type Backoff struct {
	Base   time.Duration
	Max    time.Duration
	Factor float64
}

// Next возвращает паузу перед попыткой attempt (нумерация с нуля).
// Без джиттера пауза не превышает Max.
func (b Backoff) Next(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt && d < b.Max; i++ {
		d *= 2
	}
	if d > b.Max {
		d = b.Max
	}

	return Duration(d, b.Factor)
}

// Sleep ждёт паузу для attempt или отмену контекста.
func (b Backoff) Sleep(ctx context.Context, attempt int) error {
	t := time.NewTimer(b.Next(attempt))
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
