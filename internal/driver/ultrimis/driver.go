package ultrimis

import (
	"context"
	"fmt"

	"github.com/zdyb/wmbusdv/internal/driver"
	"github.com/zdyb/wmbusdv/internal/dv"
	"github.com/zdyb/wmbusdv/internal/frame"
)

const (
	manufacturerAPA = 0x0601
	versionUltrimis = 0x01
	deviceTypeCold  = 0x16

	defaultTimestamp = "1111-11-11T11:11:11Z"

	// Literal record keys for the vendor-specific entries: the 24-bit info
	// code word and the backward-flow volume (volume VIF with the backward
	// combinable VIFE).
	keyInfoCodes    = "03FD17"
	keyBackwardFlow = "04933C"
)

// Detections matches the Apator Ultrimis ultrasonic cold water meter.
func Detections() []driver.Detection {
	return []driver.Detection{
		{Manufacturer: manufacturerAPA, DeviceType: deviceTypeCold, Version: versionUltrimis},
	}
}

// Driver decodes Apator Ultrimis water meters.
type Driver struct {
	bindings []driver.FieldBinding
}

var _ driver.PartialReporter = Driver{}

// New builds the driver with its static field table.
func New() Driver {
	return Driver{bindings: fieldTable()}
}

// Name returns the canonical driver name.
func (Driver) Name() string { return "ultrimis" }

// PartialFields exposes basic metadata when the payload cannot be decoded.
func (Driver) PartialFields(t *frame.Telegram) map[string]any {
	return map[string]any{
		"_":     "telegram",
		"id":    t.MeterIDString(),
		"meter": "ultrimis",
		"media": "cold water",
	}
}

// Process extracts total and target consumption, the backward flow total and
// the info-code status.
func (d Driver) Process(_ context.Context, t *frame.Telegram) (driver.Reading, error) {
	fs, err := dv.Parse(t.Payload)
	if err != nil && len(fs.Records()) == 0 {
		return driver.Reading{}, err
	}
	fields := map[string]any{
		"_":         "telegram",
		"id":        t.MeterIDString(),
		"meter":     "ultrimis",
		"media":     "cold water",
		"timestamp": defaultTimestamp,
	}
	driver.ApplyBindings(fs, d.bindings, fields)
	return driver.Reading{Fields: fields, Explanations: driver.Annotations(fs)}, nil
}

// statusString renders the info codes. Any nonzero code reports as a
// hex-formatted error; the meter manual does not document individual bits.
func statusString(infoCodes uint64) string {
	if infoCodes == 0 {
		return "OK"
	}
	return fmt.Sprintf("ERR(%06x)", infoCodes)
}

func fieldTable() []driver.FieldBinding {
	return []driver.FieldBinding{
		{
			Name: "total", Kind: driver.NumericField, Unit: dv.UnitM3,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifVolume},
		},
		{
			// Consumption recorded at the beginning of the current month.
			Name: "target", Kind: driver.NumericField, Unit: dv.UnitM3,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifVolume, Storage: 1},
		},
		{
			Name: "current_status", Kind: driver.LookupField, Render: statusString,
			Query: dv.Query{Key: keyInfoCodes},
		},
		{
			Name: "total_backward_flow", Kind: driver.NumericField, Unit: dv.UnitM3,
			Query: dv.Query{Key: keyBackwardFlow},
		},
	}
}
