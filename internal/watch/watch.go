package watch

import (
	"fmt"
	"os"

	"github.com/dominicbreuker/fsw"
	"github.com/dominicbreuker/fsw/internal/config"
	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/native"
)

const eventBuffer = 256

type Bindings struct {
	Logger  Logger
	Library *fsw.Library
}

type Logger interface {
	Infof(format string, v ...interface{})
	Errorf(debug bool, format string, v ...interface{})
	Eventf(color int, format string, v ...interface{})
}

// Start builds a session from cfg and prints its events until a signal
// arrives on sigCh or the monitor stops by itself. The monitor result is
// sent on the returned channel.
func Start(cfg *config.Config, b *Bindings, sigCh chan os.Signal) (chan error, error) {
	b.Logger.Infof("Config: %s", cfg)

	builder, err := newBuilder(cfg, b.Library)
	if err != nil {
		return nil, err
	}
	it, err := builder.BuildIter(eventBuffer)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	stopped := make(chan struct{})
	exit := make(chan error, 1)

	go func() {
		for e := range it.All() {
			printEvent(cfg, b.Logger, e)
		}
		close(stopped)
		if err := it.Close(); err != nil {
			b.Logger.Errorf(false, "closing session: %v", err)
		}
		exit <- it.Err()
	}()

	go func() {
		select {
		case sig := <-sigCh:
			b.Logger.Infof("Exiting program... (%s)", sig)
			if err := it.Close(); err != nil {
				b.Logger.Errorf(false, "stopping monitor: %v", err)
			}
		case <-stopped:
		}
	}()

	return exit, nil
}

func newBuilder(cfg *config.Config, lib *fsw.Library) (*fsw.Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	monitorType, err := cfg.MonitorType()
	if err != nil {
		return nil, err
	}
	flags, err := cfg.EventFlags()
	if err != nil {
		return nil, err
	}

	b := lib.NewBuilder(cfg.Paths...).
		Monitor(monitorType).
		Latency(cfg.Latency).
		Recursive(cfg.Recursive).
		DirectoryOnly(cfg.DirectoryOnly).
		FollowSymlinks(cfg.FollowSymlinks).
		AllowOverflow(cfg.AllowOverflow).
		Filter(cfg.Filters()...).
		EventType(flags...)
	for name, value := range cfg.Properties {
		b.Property(name, value)
	}
	return b, nil
}

func printEvent(cfg *config.Config, logger Logger, e fsw.Event) {
	color := logging.ColorNone
	if cfg.Color {
		color = eventColor(e.Flags)
	}
	logger.Eventf(color, "FS: %-12s %s", e.Flags, e.Path)
}

func eventColor(flags fsw.FlagSet) int {
	switch {
	case flags.Has(native.Overflow):
		return logging.ColorRed
	case flags.Has(native.Removed):
		return logging.ColorRed
	case flags.Has(native.Created):
		return logging.ColorGreen
	case flags.Has(native.Renamed), flags.Has(native.MovedFrom), flags.Has(native.MovedTo):
		return logging.ColorYellow
	case flags.Has(native.Updated), flags.Has(native.AttributeModified), flags.Has(native.OwnerModified):
		return logging.ColorBlue
	default:
		return logging.ColorNone
	}
}
