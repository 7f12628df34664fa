//go:build libfswatch && cgo

package fsw

import (
	"github.com/dominicbreuker/fsw/internal/libfswatch"
	"github.com/dominicbreuker/fsw/native"
)

func defaultBackend() native.Library {
	return libfswatch.New()
}
