package dv

import (
	"fmt"
	"math"
)

// Uint returns the raw payload interpreted as an unsigned little-endian
// integer (or its BCD digit value), before any scaling. Values that exceed
// the nominal range of the declared width pass through unchanged; meters use
// out-of-range patterns such as 0xFFFFFFFF as missing-data sentinels and
// downstream consumers rely on seeing them.
func (r *Record) Uint() (uint64, bool) {
	switch r.Coding {
	case CodingInt:
		if len(r.Data) == 0 || len(r.Data) > 8 {
			return 0, false
		}
		var v uint64
		for n := len(r.Data) - 1; n >= 0; n-- {
			v = v<<8 | uint64(r.Data[n])
		}
		return v, true
	case CodingBCD:
		if len(r.Data) == 0 || len(r.Data) > 8 {
			return 0, false
		}
		// Nibbles decode positionally without validation, matching the
		// observed behavior for non-digit bit patterns.
		var v uint64
		mul := uint64(1)
		for _, b := range r.Data {
			v += uint64(b&0x0F) * mul
			mul *= 10
			v += uint64(b>>4) * mul
			mul *= 10
		}
		return v, true
	default:
		return 0, false
	}
}

// Double returns the scaled numeric value in the record's base unit.
func (r *Record) Double() (float64, bool) {
	switch r.Coding {
	case CodingInt, CodingBCD:
		v, ok := r.Uint()
		if !ok {
			return 0, false
		}
		return float64(v) * r.Scale, true
	case CodingReal:
		if len(r.Data) != 4 {
			return 0, false
		}
		bits := uint32(r.Data[0]) | uint32(r.Data[1])<<8 | uint32(r.Data[2])<<16 | uint32(r.Data[3])<<24
		return float64(math.Float32frombits(bits)) * r.Scale, true
	default:
		return 0, false
	}
}

// Text returns the record's value rendered as a string: a calendar date for
// date/datetime ranges, the reversed character payload for LVAR records.
func (r *Record) Text() (string, bool) {
	switch {
	case r.Range == VifDate && len(r.Data) == 2:
		return decodeTypeGDate(r.Data), true
	case r.Range == VifDateTime && len(r.Data) == 4:
		return decodeTypeFDateTime(r.Data), true
	case r.Coding == CodingVariable:
		// M-Bus transmits text least significant character first.
		buf := make([]byte, len(r.Data))
		for n, b := range r.Data {
			buf[len(buf)-1-n] = b
		}
		return string(buf), true
	default:
		return "", false
	}
}

// decodeTypeGDate unpacks the two-byte Type G date. Fields decode
// positionally with no range validation: the all-ones pattern 0xFFFF renders
// as "2127-15-31", the sentinel meters emit for an unset history slot.
func decodeTypeGDate(b []byte) string {
	day := int(b[0] & 0x1F)
	month := int(b[1] & 0x0F)
	year := 2000 + int((b[1]&0xF0)>>1|(b[0]>>5))
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// decodeTypeFDateTime unpacks the four-byte Type F timestamp, again without
// validating any field.
func decodeTypeFDateTime(b []byte) string {
	minute := int(b[0] & 0x3F)
	hour := int(b[1] & 0x1F)
	day := int(b[2] & 0x1F)
	month := int(b[3] & 0x0F)
	year := 2000 + int((b[3]>>4)<<3|(b[2]>>5))
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", year, month, day, hour, minute)
}
