package wmbusdv

import (
	"sync"

	"github.com/zdyb/wmbusdv/internal/driver"
	"github.com/zdyb/wmbusdv/internal/driver/c5isf"
	"github.com/zdyb/wmbusdv/internal/driver/ultrimis"
)

var defaultRegistry = sync.OnceValue(NewDefaultRegistry)

// NewDefaultRegistry builds a registry with every bundled driver. Callers
// embedding the library can instead assemble their own registry and pass it
// through AnalyzeOptions.
func NewDefaultRegistry() *driver.Registry {
	reg := driver.NewRegistry()
	reg.Register(c5isf.New(), c5isf.Detections()...)
	reg.Register(ultrimis.New(), ultrimis.Detections()...)
	return reg
}

// DefaultRegistry returns the shared registry used when AnalyzeOptions does
// not supply one.
func DefaultRegistry() *driver.Registry {
	return defaultRegistry()
}
