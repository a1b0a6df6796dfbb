// Package dv implements the EN 13757-3 data-record layer: it walks the
// DIF/VIF encoded application payload of a Wireless M-Bus telegram, resolves
// every record into a semantic descriptor and decodes its value. Drivers
// query the resulting FieldSet instead of touching raw bytes.
package dv

import (
	"encoding/hex"
	"strings"
)

// MeasurementType is the function field of the DIF byte (bits 4-5).
type MeasurementType int

const (
	AnyType MeasurementType = iota
	Instantaneous
	Maximum
	Minimum
	AtError
)

func (m MeasurementType) String() string {
	switch m {
	case Instantaneous:
		return "instantaneous"
	case Maximum:
		return "maximum"
	case Minimum:
		return "minimum"
	case AtError:
		return "at error"
	default:
		return "any"
	}
}

// VifRange classifies what physical quantity a VIF chain describes. The
// catalog is closed: bytes that do not map to a known range resolve to
// VifAny or VifManufacturer and stay reachable through their literal key.
type VifRange int

const (
	VifAny VifRange = iota
	VifEnergyWh
	VifEnergyMJ
	VifVolume
	VifMass
	VifOnTime
	VifOperatingTime
	VifPowerW
	VifPowerJh
	VifVolumeFlow
	VifMassFlow
	VifFlowTemperature
	VifReturnTemperature
	VifTemperatureDifference
	VifExternalTemperature
	VifPressure
	VifDate
	VifDateTime
	VifHCA
	VifFabricationNo
	VifErrorFlags
	VifManufacturer
)

// Coding is the payload encoding selected by the low nibble of the DIF.
type Coding int

const (
	CodingNone Coding = iota
	CodingInt      // little-endian unsigned integer
	CodingReal     // 32-bit IEEE float
	CodingBCD      // packed BCD, least significant byte first
	CodingVariable // LVAR, length prefix followed by text
)

// Record is one data record of a telegram: the raw DIF/VIF chain and payload
// bytes produced by the scanner, plus the semantic descriptor filled in by
// the resolver. Records are immutable once the FieldSet is built.
type Record struct {
	// Raw layer, in wire order.
	Offset     int // payload offset of the DIF byte
	DataOffset int // payload offset of the first data byte
	DIF        byte
	DIFEs      []byte
	VIF        byte
	VIFEs      []byte
	Data       []byte

	// Resolved descriptor.
	Type    MeasurementType
	Range   VifRange
	Storage int
	Tariff  int
	Subunit int
	Scale   float64 // multiplier that turns the raw integer into Unit
	Unit    Unit
	Coding  Coding
}

// Key returns the literal DIF/VIF key of the record, the uppercase hex
// concatenation of DIF, DIFE, VIF and VIFE bytes ("02FD17" style).
func (r *Record) Key() string {
	buf := make([]byte, 0, 2+len(r.DIFEs)+len(r.VIFEs))
	buf = append(buf, r.DIF)
	buf = append(buf, r.DIFEs...)
	buf = append(buf, r.VIF)
	buf = append(buf, r.VIFEs...)
	return strings.ToUpper(hex.EncodeToString(buf))
}
