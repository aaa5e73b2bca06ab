package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/artfolio/marketplace-chain-sync/internal/watcher"
	"go.uber.org/zap"
)

const restartDelay = 5 * time.Second

// Daemon supervises the two reconciliation loops. Each loop is restarted
// if it ever returns or panics before shutdown; neither failure mode is
// allowed to take the process down.
type Daemon struct {
	scanner watcher.Scanner
	auditor watcher.Auditor
}

func NewDaemon(scanner watcher.Scanner, auditor watcher.Auditor) *Daemon {
	return &Daemon{scanner: scanner, auditor: auditor}
}

func (d *Daemon) Execute(ctx context.Context) {
	zap.L().Info("Daemon started")

	var wg sync.WaitGroup
	wg.Add(2)

	go d.supervise(ctx, &wg, "scanner", d.scanner.Run)
	go d.supervise(ctx, &wg, "auditor", d.auditor.Run)

	wg.Wait()
	zap.L().Info("Daemon stopped")
}

func (d *Daemon) supervise(ctx context.Context, wg *sync.WaitGroup, name string, run func(context.Context)) {
	defer wg.Done()

	for {
		d.runGuarded(name, func() { run(ctx) })

		if ctx.Err() != nil {
			return
		}

		zap.L().With(zap.String("loop", name)).Warn("Daemon: Loop exited, restarting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

func (d *Daemon) runGuarded(name string, run func()) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().With(zap.String("loop", name), zap.Any("panic", r)).Error("Daemon: Loop panicked")
		}
	}()

	run()
}
