// Package worker runs the recurring SLA scan loop.
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"repairdesk/internal/usecase"
)

// MonitorLoop drives SLAMonitor.Scan on a fixed interval until its
// context is cancelled.
type MonitorLoop struct {
	Monitor  *usecase.SLAMonitor
	Interval time.Duration
	Logger   *zap.Logger
	Clock    func() time.Time

	wg sync.WaitGroup
}

func NewMonitorLoop(monitor *usecase.SLAMonitor, interval time.Duration, logger *zap.Logger) *MonitorLoop {
	return &MonitorLoop{
		Monitor:  monitor,
		Interval: interval,
		Logger:   logger,
		Clock:    time.Now,
	}
}

// Start launches the loop goroutine. One scan runs immediately so a
// freshly started worker does not wait a full interval before its
// first pass.
func (l *MonitorLoop) Start(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.scan(ctx)
		ticker := time.NewTicker(l.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.scan(ctx)
			case <-ctx.Done():
				l.Logger.Info("sla monitor loop stopping")
				return
			}
		}
	}()
	l.Logger.Info("sla monitor loop started", zap.Duration("interval", l.Interval))
}

// Wait blocks until the loop goroutine has exited.
func (l *MonitorLoop) Wait() {
	l.wg.Wait()
}

func (l *MonitorLoop) scan(ctx context.Context) {
	result, err := l.Monitor.Scan(ctx, l.Clock())
	if err != nil {
		l.Logger.Error("sla scan failed", zap.Error(err))
		return
	}
	if len(result.Events) > 0 || len(result.Failures) > 0 {
		l.Logger.Info("sla scan finished",
			zap.Int("scanned", result.Scanned),
			zap.Int("events", len(result.Events)),
			zap.Int("failures", len(result.Failures)))
	}
}
