package c5isf

import (
	"context"
	"fmt"

	"github.com/zdyb/wmbusdv/internal/driver"
	"github.com/zdyb/wmbusdv/internal/dv"
	"github.com/zdyb/wmbusdv/internal/frame"
)

const (
	manufacturerZRI = 0x6A49
	versionC5isf    = 0x88

	deviceTypeHeat        = 0x04 // telegram layout T1B
	deviceTypeWater       = 0x07 // telegram layout T1A2
	deviceTypeHeatCooling = 0x0D // telegram layout T1A1

	defaultTimestamp = "1111-11-11T11:11:11Z"

	// The meter reports 14 previous-month history slots, addressed through
	// extended storage numbers 32..45.
	historyMonths    = 14
	historyStorageNr = 32
)

// Detections lists the three telegram layouts the meter emits; the device
// type byte doubles as the layout detection byte.
func Detections() []driver.Detection {
	return []driver.Detection{
		{Manufacturer: manufacturerZRI, DeviceType: deviceTypeHeatCooling, Version: versionC5isf},
		{Manufacturer: manufacturerZRI, DeviceType: deviceTypeWater, Version: versionC5isf},
		{Manufacturer: manufacturerZRI, DeviceType: deviceTypeHeat, Version: versionC5isf},
	}
}

// Driver decodes Zenner C5-ISF ultrasonic heat meters.
type Driver struct {
	bindings []driver.FieldBinding
}

var _ driver.PartialReporter = Driver{}

// New builds the driver with its static field table.
func New() Driver {
	return Driver{bindings: fieldTable()}
}

// Name returns the canonical driver name.
func (Driver) Name() string { return "c5isf" }

// PartialFields exposes basic metadata when the payload cannot be decoded.
func (Driver) PartialFields(t *frame.Telegram) map[string]any {
	return map[string]any{
		"_":     "telegram",
		"id":    t.MeterIDString(),
		"meter": "c5isf",
		"media": mediaFromDeviceType(t.DeviceType),
	}
}

// Process extracts the fields present in this telegram variant. Fields whose
// records are absent stay out of the map; T1A1, T1A2 and T1B each carry a
// different subset of the bound fields.
func (d Driver) Process(_ context.Context, t *frame.Telegram) (driver.Reading, error) {
	fs, err := dv.Parse(t.Payload)
	if err != nil && len(fs.Records()) == 0 {
		return driver.Reading{}, err
	}
	fields := map[string]any{
		"_":         "telegram",
		"id":        t.MeterIDString(),
		"meter":     "c5isf",
		"media":     mediaFromDeviceType(t.DeviceType),
		"timestamp": defaultTimestamp,
	}
	driver.ApplyBindings(fs, d.bindings, fields)
	return driver.Reading{Fields: fields, Explanations: driver.Annotations(fs)}, nil
}

func mediaFromDeviceType(device byte) string {
	switch device {
	case deviceTypeHeat:
		return "heat"
	case deviceTypeWater:
		return "water"
	case deviceTypeHeatCooling:
		return "heat/cooling load"
	default:
		return "unknown"
	}
}

// errorFlags translates the 02FD17 status word. Thresholds are decimal and
// cumulative: each recognized value is subtracted and the remainder keeps
// matching smaller entries, so 36 renders as both the reverse-flow and the
// supply-sensor flag.
var errorFlags = dv.NewTranslateTable("OK", []dv.TranslateRule{
	{Value: 2000, Name: "VERIFICATION_EXPIRED"},
	{Value: 1000, Name: "BATTERY_EXPIRED"},
	{Value: 800, Name: "WIRELESS_ERROR"},
	{Value: 100, Name: "HARDWARE_ERROR3"},
	{Value: 50, Name: "VALUE_OVERLOAD"},
	{Value: 40, Name: "AIR_INSIDE"},
	{Value: 30, Name: "REVERSE_FLOW"},
	{Value: 20, Name: "DRY"},
	{Value: 10, Name: "ERROR_MEASURING"},
	{Value: 9, Name: "HARDWARE_ERROR2"},
	{Value: 8, Name: "HARDWARE_ERROR1"},
	{Value: 7, Name: "LOW_BATTERY"},
	{Value: 6, Name: "SUPPLY_SENSOR_INTERRUPTED"},
	{Value: 5, Name: "SHORT_CIRCUIT_SUPPLY_SENSOR"},
	{Value: 4, Name: "RETURN_SENSOR_INTERRUPTED"},
	{Value: 3, Name: "SHORT_CIRCUIT_RETURN_SENSOR"},
	{Value: 2, Name: "TEMP_ABOVE_RANGE"},
	{Value: 1, Name: "TEMP_BELOW_RANGE"},
})

func fieldTable() []driver.FieldBinding {
	bindings := []driver.FieldBinding{
		// Common to all three layouts.
		{
			Name: "total_energy_consumption", Kind: driver.NumericField, Unit: dv.UnitKWH,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifEnergyWh},
		},
		{
			Name: "total_volume", Kind: driver.NumericField, Unit: dv.UnitM3,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifVolume},
		},
		// Status word, present in T1A1 and T1B.
		{
			Name: "status", Kind: driver.LookupField, Lookup: &errorFlags,
			Query: dv.Query{Key: "02FD17"},
		},
	}

	// History slots: dates in T1A1 and T1A2, energy series in T1A1, volume
	// series in T1A2. Slot i lives at storage number 31+i.
	for i := 1; i <= historyMonths; i++ {
		storage := historyStorageNr + i - 1
		bindings = append(bindings,
			driver.FieldBinding{
				Name: fmt.Sprintf("prev_%d_month", i), Kind: driver.TextField,
				Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifDate, Storage: storage},
			},
			driver.FieldBinding{
				Name: fmt.Sprintf("prev_%d_month", i), Kind: driver.NumericField, Unit: dv.UnitKWH,
				Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifEnergyWh, Storage: storage},
			},
			driver.FieldBinding{
				Name: fmt.Sprintf("prev_%d_month", i), Kind: driver.NumericField, Unit: dv.UnitM3,
				Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifVolume, Storage: storage},
			},
		)
	}

	// T1B only.
	bindings = append(bindings,
		driver.FieldBinding{
			Name: "due_energy_consumption", Kind: driver.NumericField, Unit: dv.UnitKWH,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifEnergyWh, Storage: 8},
		},
		driver.FieldBinding{
			Name: "due_date", Kind: driver.TextField,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifDate, Storage: 8},
		},
		driver.FieldBinding{
			Name: "volume_flow", Kind: driver.NumericField, Unit: dv.UnitM3H,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifVolumeFlow},
		},
		driver.FieldBinding{
			Name: "power", Kind: driver.NumericField, Unit: dv.UnitKW,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifPowerW},
		},
		driver.FieldBinding{
			Name: "total_energy_consumption_last_month", Kind: driver.NumericField, Unit: dv.UnitKWH,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifEnergyWh, Storage: historyStorageNr},
		},
		driver.FieldBinding{
			Name: "last_month_date", Kind: driver.TextField,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifDate, Storage: historyStorageNr},
		},
		driver.FieldBinding{
			Name: "max_power_last_month", Kind: driver.NumericField, Unit: dv.UnitKW,
			Query: dv.Query{Type: dv.Maximum, Range: dv.VifPowerW, Storage: historyStorageNr},
		},
		driver.FieldBinding{
			Name: "flow_temperature", Kind: driver.NumericField, Unit: dv.UnitC,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifFlowTemperature},
		},
		driver.FieldBinding{
			Name: "return_temperature", Kind: driver.NumericField, Unit: dv.UnitC,
			Query: dv.Query{Type: dv.Instantaneous, Range: dv.VifReturnTemperature},
		},
	)
	return bindings
}
