package payment

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const DefaultSweepInterval = 5 * time.Minute

// ExpirySweeper periodically expires open payments whose expiry has passed.
type ExpirySweeper struct {
	service  *Service
	interval time.Duration
	ticker   *time.Ticker
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

func NewExpirySweeper(service *Service, interval time.Duration) *ExpirySweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &ExpirySweeper{service: service, interval: interval}
}

// Start runs one sweep immediately and then one per interval.
func (w *ExpirySweeper) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return
	}

	w.stopCh = make(chan struct{})
	w.ticker = time.NewTicker(w.interval)
	w.running = true
	log.Infof("[ExpirySweeper] Starting (interval=%s)", w.interval)

	w.wg.Add(1)
	go w.loop(w.stopCh, w.ticker)
}

func (w *ExpirySweeper) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	log.Info("[ExpirySweeper] Stopping...")
	w.ticker.Stop()
	close(w.stopCh)
	w.stopCh = nil
	w.running = false

	w.wg.Wait()
	log.Info("[ExpirySweeper] Stopped")
}

func (w *ExpirySweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// SweepOnce expires overdue payments and returns how many were changed.
func (w *ExpirySweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := w.service.ExpireOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Infof("[ExpirySweeper] Expired %d overdue payments", n)
	}
	return n, nil
}

func (w *ExpirySweeper) loop(stopCh <-chan struct{}, ticker *time.Ticker) {
	defer w.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stopCh
		cancel()
	}()

	if _, err := w.SweepOnce(ctx); err != nil {
		log.Errorf("[ExpirySweeper] Sweep error: %v", err)
	}
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				log.Errorf("[ExpirySweeper] Sweep error: %v", err)
			}
		}
	}
}
