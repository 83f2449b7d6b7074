// Package keymutex реализует взаимоисключение по строковому ключу внутри одного процесса.
package keymutex

import (
	"context"
	"sync"
)

// KeyMutex выдаёт отдельную блокировку на каждый ключ.
// Записи удаляются, когда ключ больше никто не держит и не ждёт.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func New() *KeyMutex {
	return &KeyMutex{locks: make(map[string]*entry)}
}

// Lock захватывает ключ или возвращает ctx.Err(), если контекст отменён раньше.
// Возвращённую функцию освобождения можно вызывать несколько раз.
func (k *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	en, ok := k.locks[key]
	if !ok {
		en = &entry{sem: make(chan struct{}, 1)}
		k.locks[key] = en
	}
	en.refs++
	k.mu.Unlock()

	select {
	case en.sem <- struct{}{}:
	case <-ctx.Done():
		k.release(key, en)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-en.sem
			k.release(key, en)
		})
	}, nil
}

// Len возвращает число ключей, которые сейчас удерживаются или ожидаются.
func (k *KeyMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyMutex) release(key string, en *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()

	en.refs--
	if en.refs == 0 {
		delete(k.locks, key)
	}
}
