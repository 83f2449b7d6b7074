package closer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Closer закрывает зарегистрированные ресурсы в обратном порядке (LIFO).
type Closer struct {
	mu            sync.Mutex
	once          sync.Once
	items         []item
	forcedTimeout time.Duration
}

// Func - сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type item struct {
	name string
	fn   Func
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout - время на принудительное закрытие ресурсов, не успевших закрыться до отмены контекста.
func NewCloser(forcedTimeout time.Duration) *Closer {
	if forcedTimeout <= 0 {
		forcedTimeout = 2 * time.Second
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует ресурс под именем, которое попадёт в текст ошибки.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item{name: name, fn: f})
}

// Close закрывает ресурсы по одному. Повторные вызовы ничего не делают.
// Если ctx отменён, оставшиеся ресурсы закрываются параллельно с собственным таймаутом.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		items := c.items
		c.mu.Unlock()

		var errs []string
		for i := len(items) - 1; i >= 0; i-- {
			done := make(chan error, 1)
			go func(it item) {
				done <- it.fn(ctx)
			}(items[i])

			select {
			case closeErr := <-done:
				if closeErr != nil {
					errs = append(errs, fmt.Sprintf("[%s] %v", items[i].name, closeErr))
				}
			case <-ctx.Done():
				errs = append(errs, c.forcedClose(items[:i+1])...)
				err = fmt.Errorf("shutdown interrupted after %d/%d resources:\n%s",
					len(items)-1-i, len(items), strings.Join(errs, "\n"))
				return
			}
		}

		if len(errs) > 0 {
			err = fmt.Errorf("shutdown finished with error(s):\n%s", strings.Join(errs, "\n"))
		}
	})

	return err
}

func (c *Closer) forcedClose(items []item) []string {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []string
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, it := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := it.fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("[FORCED %s] %v", it.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
