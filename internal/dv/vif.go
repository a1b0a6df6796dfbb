package dv

import "math"

// resolve fills the semantic descriptor of a scanned record. Resolution is
// pure and never fails: unknown VIF bytes classify as VifAny or
// VifManufacturer so the record stays addressable by its literal key.
func resolve(r *Record) {
	switch (r.DIF >> 4) & 0x03 {
	case 0x00:
		r.Type = Instantaneous
	case 0x01:
		r.Type = Maximum
	case 0x02:
		r.Type = Minimum
	default:
		r.Type = AtError
	}

	// DIF carries storage bit 0; each DIFE appends four more storage bits,
	// two tariff bits and one subunit bit, least significant group first.
	r.Storage = int((r.DIF >> 6) & 0x01)
	for n, dife := range r.DIFEs {
		r.Storage |= int(dife&0x0F) << (1 + n*4)
		r.Tariff |= int((dife>>4)&0x03) << (n * 2)
		r.Subunit |= int((dife>>6)&0x01) << n
	}

	switch r.VIF {
	case 0xFD:
		resolveSecondExt(r)
	case 0xFB:
		resolveFirstExt(r)
	case 0x7E, 0xFE:
		r.Range, r.Scale = VifAny, 1
	case 0x7F, 0xFF:
		r.Range, r.Scale = VifManufacturer, 1
	case 0x7C:
		r.Range, r.Scale = VifAny, 1 // unit given as plain text
	default:
		resolvePrimary(r, r.VIF&0x7F)
	}
}

// vifBlock is one row of the closed primary VIF catalog: a contiguous range
// of VIF values whose low bits select a decimal exponent.
type vifBlock struct {
	low, high byte
	rng       VifRange
	unit      Unit
	exp       int // scale = 10^(exp + vif - low)
}

// Scales land in the catalog's base units directly: kWh, MJ, m3, kg, kW,
// m3/h, degrees Celsius, Kelvin, bar.
var primaryBlocks = []vifBlock{
	{0x00, 0x07, VifEnergyWh, UnitKWH, -6},
	{0x08, 0x0F, VifEnergyMJ, UnitMJ, -6},
	{0x10, 0x17, VifVolume, UnitM3, -6},
	{0x18, 0x1F, VifMass, UnitKg, -3},
	{0x28, 0x2F, VifPowerW, UnitKW, -6},
	{0x38, 0x3F, VifVolumeFlow, UnitM3H, -6},
	{0x50, 0x57, VifMassFlow, UnitKgH, -3},
	{0x58, 0x5B, VifFlowTemperature, UnitC, -3},
	{0x5C, 0x5F, VifReturnTemperature, UnitC, -3},
	{0x60, 0x63, VifTemperatureDifference, UnitK, -3},
	{0x64, 0x67, VifExternalTemperature, UnitC, -3},
	{0x68, 0x6B, VifPressure, UnitBar, -3},
}

// Duration VIFs encode their unit in the low two bits rather than an
// exponent: seconds, minutes, hours, days. Values normalize to hours.
var durationScale = [4]float64{1.0 / 3600, 1.0 / 60, 1, 24}

func resolvePrimary(r *Record, vif byte) {
	for _, b := range primaryBlocks {
		if vif >= b.low && vif <= b.high {
			r.Range = b.rng
			r.Unit = b.unit
			r.Scale = math.Pow10(b.exp + int(vif-b.low))
			return
		}
	}
	switch {
	case vif >= 0x20 && vif <= 0x23:
		r.Range, r.Unit, r.Scale = VifOnTime, UnitHours, durationScale[vif&0x03]
	case vif >= 0x24 && vif <= 0x27:
		r.Range, r.Unit, r.Scale = VifOperatingTime, UnitHours, durationScale[vif&0x03]
	case vif >= 0x30 && vif <= 0x37:
		// Power in J/h, normalized to kW.
		r.Range, r.Unit, r.Scale = VifPowerJh, UnitKW, math.Pow10(int(vif&0x07))/3.6e6
	case vif >= 0x40 && vif <= 0x47:
		// Volume flow in m3/min, normalized to m3/h.
		r.Range, r.Unit, r.Scale = VifVolumeFlow, UnitM3H, 60*math.Pow10(int(vif&0x07)-7)
	case vif >= 0x48 && vif <= 0x4F:
		// Volume flow in m3/s, normalized to m3/h.
		r.Range, r.Unit, r.Scale = VifVolumeFlow, UnitM3H, 3600*math.Pow10(int(vif&0x07)-9)
	case vif == 0x6C:
		r.Range, r.Scale = VifDate, 1
	case vif == 0x6D:
		r.Range, r.Scale = VifDateTime, 1
	case vif == 0x6E:
		r.Range, r.Unit, r.Scale = VifHCA, UnitNone, 1
	case vif == 0x78:
		r.Range, r.Scale = VifFabricationNo, 1
	default:
		r.Range, r.Scale = VifAny, 1
	}
}

// resolveSecondExt handles the FD table. Only the error-flag entry carries
// catalog semantics here; everything else stays generic but keyed.
func resolveSecondExt(r *Record) {
	r.Scale = 1
	if len(r.VIFEs) == 0 {
		r.Range = VifAny
		return
	}
	switch r.VIFEs[0] & 0x7F {
	case 0x17:
		r.Range = VifErrorFlags
	default:
		r.Range = VifAny
	}
}

// resolveFirstExt handles the FB table subset: large energy units.
func resolveFirstExt(r *Record) {
	r.Scale = 1
	if len(r.VIFEs) == 0 {
		r.Range = VifAny
		return
	}
	vife := r.VIFEs[0] & 0x7F
	switch {
	case vife <= 0x01:
		// 10^(n-1) MWh, normalized to kWh.
		r.Range, r.Unit, r.Scale = VifEnergyWh, UnitKWH, math.Pow10(int(vife)+2)
	case vife >= 0x08 && vife <= 0x09:
		// 10^(n-1) GJ, normalized to MJ.
		r.Range, r.Unit, r.Scale = VifEnergyMJ, UnitMJ, math.Pow10(int(vife&0x01)+2)
	default:
		r.Range = VifAny
	}
}
