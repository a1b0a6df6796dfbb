package dv

import (
	"errors"
	"fmt"
)

// ErrMalformedTelegram marks a payload that ended mid-record or used an
// encoding the scanner cannot size. Records scanned before the fault are
// still returned and remain queryable.
var ErrMalformedTelegram = errors.New("malformed telegram")

const (
	difIdleFiller = 0x2F
	difMfctStart  = 0x0F
	difMfctMore   = 0x1F

	maxDIFEs = 10
	maxVIFEs = 10
)

// scan segments the payload into raw records. It stops cleanly at the
// manufacturer-data marker (DIF 0x0F/0x1F) and returns whatever bytes follow
// it separately.
func scan(payload []byte) ([]Record, []byte, error) {
	records := make([]Record, 0, 8)
	i := 0
	for i < len(payload) {
		dif := payload[i]
		if dif == difIdleFiller {
			i++
			continue
		}
		if dif == difMfctStart || dif == difMfctMore {
			return records, payload[i+1:], nil
		}
		rec := Record{Offset: i, DIF: dif}
		i++

		hasDIFE := dif&0x80 != 0
		for hasDIFE {
			if i >= len(payload) {
				return records, nil, fmt.Errorf("%w: payload ended inside DIFE chain at offset %d", ErrMalformedTelegram, i)
			}
			if len(rec.DIFEs) >= maxDIFEs {
				return records, nil, fmt.Errorf("%w: DIFE chain longer than %d at offset %d", ErrMalformedTelegram, maxDIFEs, rec.Offset)
			}
			dife := payload[i]
			i++
			rec.DIFEs = append(rec.DIFEs, dife)
			hasDIFE = dife&0x80 != 0
		}

		if i >= len(payload) {
			return records, nil, fmt.Errorf("%w: payload ended before VIF at offset %d", ErrMalformedTelegram, i)
		}
		rec.VIF = payload[i]
		i++
		hasVIFE := rec.VIF&0x80 != 0
		if rec.VIF == 0x7C {
			// Plain-text unit: length byte plus ASCII characters, stored as
			// VIFE bytes so the literal key stays unambiguous.
			if i >= len(payload) {
				return records, nil, fmt.Errorf("%w: payload ended before ASCII unit length", ErrMalformedTelegram)
			}
			n := int(payload[i])
			if i+1+n > len(payload) {
				return records, nil, fmt.Errorf("%w: ASCII unit of %d bytes truncated", ErrMalformedTelegram, n)
			}
			rec.VIFEs = append(rec.VIFEs, payload[i:i+1+n]...)
			i += 1 + n
			hasVIFE = false
		}
		for hasVIFE {
			if i >= len(payload) {
				return records, nil, fmt.Errorf("%w: payload ended inside VIFE chain at offset %d", ErrMalformedTelegram, i)
			}
			if len(rec.VIFEs) >= maxVIFEs {
				return records, nil, fmt.Errorf("%w: VIFE chain longer than %d at offset %d", ErrMalformedTelegram, maxVIFEs, rec.Offset)
			}
			vife := payload[i]
			i++
			rec.VIFEs = append(rec.VIFEs, vife)
			hasVIFE = vife&0x80 != 0
		}

		length, coding, ok := sizeForDIF(dif)
		if !ok {
			return records, nil, fmt.Errorf("%w: unsupported DIF coding 0x%02X at offset %d", ErrMalformedTelegram, dif&0x0F, rec.Offset)
		}
		if coding == CodingVariable {
			if i >= len(payload) {
				return records, nil, fmt.Errorf("%w: payload ended before LVAR length", ErrMalformedTelegram)
			}
			lvar := payload[i]
			i++
			switch {
			case lvar <= 0xBF:
				length = int(lvar)
			case lvar >= 0xC0 && lvar <= 0xC9:
				// Variable-length positive BCD number, (LVAR - C0h) bytes.
				length = int(lvar - 0xC0)
				coding = CodingBCD
			case lvar >= 0xD0 && lvar <= 0xD9:
				// Negative BCD variant; the magnitude decodes the same way.
				length = int(lvar - 0xD0)
				coding = CodingBCD
			case lvar >= 0xE0 && lvar <= 0xEF:
				// Variable-length binary number, (LVAR - E0h) bytes.
				length = int(lvar - 0xE0)
				coding = CodingInt
			default:
				return records, nil, fmt.Errorf("%w: LVAR 0x%02X carries no defined length", ErrMalformedTelegram, lvar)
			}
		}
		rec.DataOffset = i
		if i+length > len(payload) {
			return records, nil, fmt.Errorf("%w: %d data bytes missing for DIF 0x%02X at offset %d", ErrMalformedTelegram, i+length-len(payload), dif, rec.Offset)
		}
		rec.Data = append(rec.Data, payload[i:i+length]...)
		rec.Coding = coding
		i += length
		records = append(records, rec)
	}
	return records, nil, nil
}

// sizeForDIF maps the data field (low nibble of the DIF) to a payload width
// and coding. Variable-length records report width 0 here; the scanner reads
// the LVAR byte itself.
func sizeForDIF(dif byte) (int, Coding, bool) {
	switch dif & 0x0F {
	case 0x00:
		return 0, CodingNone, true
	case 0x01:
		return 1, CodingInt, true
	case 0x02:
		return 2, CodingInt, true
	case 0x03:
		return 3, CodingInt, true
	case 0x04:
		return 4, CodingInt, true
	case 0x05:
		return 4, CodingReal, true
	case 0x06:
		return 6, CodingInt, true
	case 0x07:
		return 8, CodingInt, true
	case 0x08:
		return 0, CodingNone, true // selection for readout
	case 0x09:
		return 1, CodingBCD, true
	case 0x0A:
		return 2, CodingBCD, true
	case 0x0B:
		return 3, CodingBCD, true
	case 0x0C:
		return 4, CodingBCD, true
	case 0x0D:
		return 0, CodingVariable, true
	case 0x0E:
		return 6, CodingBCD, true
	default:
		return 0, CodingNone, false
	}
}
