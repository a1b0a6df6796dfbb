package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/zdyb/wmbusdv/internal/frame"
)

// Detection identifies a telegram family by the manufacturer code, device
// type and version byte of its header. One driver may claim several
// detections; the C5-ISF heat meter, for instance, emits three layout
// variants under different device types.
type Detection struct {
	Manufacturer uint16
	DeviceType   byte
	Version      byte
}

// Reading is the outcome of processing one telegram: named fields plus the
// offset annotations drivers attach while extracting them.
type Reading struct {
	Fields       map[string]any
	Explanations []Explanation
}

// Explanation ties human-readable text to a payload byte offset.
type Explanation struct {
	Offset int
	Text   string
}

// Driver processes telegrams once selected.
type Driver interface {
	Name() string
	Process(context.Context, *frame.Telegram) (Reading, error)
}

// PartialReporter can supply minimal fields when payload decryption fails.
type PartialReporter interface {
	PartialFields(*frame.Telegram) map[string]any
}

// Registry maps detections to drivers. It is constructed explicitly at
// startup and passed to whoever dispatches telegrams; there is no implicit
// package-level registration.
type Registry struct {
	mu      sync.RWMutex
	entries []entry
}

type entry struct {
	detect Detection
	driver Driver
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register stores a driver under one or more detections.
func (r *Registry) Register(drv Driver, detections ...Detection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, det := range detections {
		r.entries = append(r.entries, entry{detect: det, driver: drv})
	}
}

// Lookup returns the first registered driver matching the telegram header.
func (r *Registry) Lookup(t *frame.Telegram) (Driver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.detect.Manufacturer == t.Manufacturer &&
			e.detect.DeviceType == t.DeviceType &&
			e.detect.Version == t.Version {
			return e.driver, nil
		}
	}
	return nil, fmt.Errorf("driver not found for manufacturer 0x%04X type 0x%02X version 0x%02X",
		t.Manufacturer, t.DeviceType, t.Version)
}
