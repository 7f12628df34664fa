//go:build !libfswatch || !cgo

package fsw

import (
	"github.com/dominicbreuker/fsw/internal/engine"
	"github.com/dominicbreuker/fsw/internal/logging"
	"github.com/dominicbreuker/fsw/native"
)

func defaultBackend() native.Library {
	return engine.New(logging.Log)
}
