package engine

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dominicbreuker/fsw/native"
)

const changeBuffer = 256

// run drives one monitor: it starts the driver, batches changes for the
// configured latency and hands every batch to the callback on the calling
// goroutine. It returns when cfg.stop is closed or the driver fails.
func run(cfg *monitorConfig, logger logrus.FieldLogger, verbose bool) native.Status {
	drv, err := startDriver(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to start monitor")
		return native.ErrUnknownError
	}
	defer func() {
		if err := drv.close(); err != nil {
			logger.WithError(err).Warn("Failed to close monitor")
		}
	}()

	if verbose {
		logger.WithFields(logrus.Fields{
			"driver":     drv.name(),
			"roots":      cfg.roots,
			"latency":    cfg.latency,
			"recursive":  cfg.recursive,
			"properties": cfg.properties,
		}).Debug("Monitor started")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan change, changeBuffer)
	errCh := make(chan error, 1)
	go func() {
		errCh <- drv.run(ctx, out)
	}()

	var pending []native.Record
	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		cfg.callback(batch, cfg.data)
	}

	tick := cfg.latency
	if tick <= 0 {
		tick = time.Hour
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case c := <-out:
			if slices.Contains(c.flags, native.Overflow) && !cfg.allowOverflow {
				flush()
				logger.Error("Event queue overflow")
				cancel()
				<-errCh
				return native.ErrUnknownError
			}
			rec, ok := cfg.record(c, time.Now())
			if !ok {
				continue
			}
			pending = append(pending, rec)
			if cfg.latency <= 0 {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-cfg.stop:
			cancel()
			<-errCh
			flush()
			return native.OK
		case err := <-errCh:
			flush()
			if err != nil {
				logger.WithError(err).Error("Monitor failed")
				return native.ErrUnknownError
			}
			return native.OK
		}
	}
}
