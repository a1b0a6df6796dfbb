package dv

import "fmt"

// Unit is the base unit a decoded numeric value is expressed in.
type Unit int

const (
	UnitNone Unit = iota
	UnitKWH
	UnitMJ
	UnitGJ
	UnitM3
	UnitM3H
	UnitKW
	UnitW
	UnitC
	UnitK
	UnitBar
	UnitKg
	UnitKgH
	UnitHours
)

func (u Unit) String() string {
	switch u {
	case UnitKWH:
		return "kWh"
	case UnitMJ:
		return "MJ"
	case UnitGJ:
		return "GJ"
	case UnitM3:
		return "m3"
	case UnitM3H:
		return "m3/h"
	case UnitKW:
		return "kW"
	case UnitW:
		return "W"
	case UnitC:
		return "c"
	case UnitK:
		return "k"
	case UnitBar:
		return "bar"
	case UnitKg:
		return "kg"
	case UnitKgH:
		return "kg/h"
	case UnitHours:
		return "h"
	default:
		return ""
	}
}

// Suffix is the lowercase field-name suffix for the unit ("kwh", "m3h").
func (u Unit) Suffix() string {
	switch u {
	case UnitKWH:
		return "kwh"
	case UnitMJ:
		return "mj"
	case UnitGJ:
		return "gj"
	case UnitM3:
		return "m3"
	case UnitM3H:
		return "m3h"
	case UnitKW:
		return "kw"
	case UnitW:
		return "w"
	case UnitC:
		return "c"
	case UnitK:
		return "k"
	case UnitBar:
		return "bar"
	case UnitKg:
		return "kg"
	case UnitKgH:
		return "kgh"
	case UnitHours:
		return "h"
	default:
		return ""
	}
}

// Convert translates a value between compatible units. It is a pure
// conversion separate from decoding.
func Convert(v float64, from, to Unit) (float64, error) {
	if from == to {
		return v, nil
	}
	// Energy converts through MJ, power through W, temperature through C.
	switch from {
	case UnitKWH:
		switch to {
		case UnitMJ:
			return v * 3.6, nil
		case UnitGJ:
			return v * 3.6 / 1000, nil
		}
	case UnitMJ:
		switch to {
		case UnitKWH:
			return v / 3.6, nil
		case UnitGJ:
			return v / 1000, nil
		}
	case UnitGJ:
		switch to {
		case UnitKWH:
			return v * 1000 / 3.6, nil
		case UnitMJ:
			return v * 1000, nil
		}
	case UnitKW:
		if to == UnitW {
			return v * 1000, nil
		}
	case UnitW:
		if to == UnitKW {
			return v / 1000, nil
		}
	case UnitC:
		if to == UnitK {
			return v + 273.15, nil
		}
	case UnitK:
		if to == UnitC {
			return v - 273.15, nil
		}
	}
	return 0, fmt.Errorf("cannot convert %s to %s", from, to)
}
