package dv

import (
	"encoding/binary"
	"math"
	"testing"
)

func parseOne(t *testing.T, payload string) *Record {
	t.Helper()
	fs, err := Parse(decodeHex(t, payload))
	if err != nil {
		t.Fatalf("Parse(%s): %v", payload, err)
	}
	if len(fs.Records()) != 1 {
		t.Fatalf("Parse(%s): expected one record, got %d", payload, len(fs.Records()))
	}
	return &fs.Records()[0]
}

func TestDecodeIntWithScale(t *testing.T) {
	cases := []struct {
		payload string
		want    float64
		unit    Unit
	}{
		{"0406 1A000000", 26, UnitKWH},        // energy, 10^0 kWh
		{"0413 C2080000", 2.242, UnitM3},      // volume, liters
		{"043B A4000000", 0.164, UnitM3H},     // volume flow
		{"042D 19000000", 2.5, UnitKW},        // power, 100 W steps
		{"0259 1216", 56.5, UnitC},            // flow temperature, 10^-2 C
		{"025D E210", 43.22, UnitC},           // return temperature
		{"0414 00000080", 21474836.48, UnitM3}, // volume, 10^-2 m3, sentinel
	}
	for _, tc := range cases {
		rec := parseOne(t, tc.payload)
		got, ok := rec.Double()
		if !ok {
			t.Fatalf("Double(%s): not numeric", tc.payload)
		}
		if math.Abs(got-tc.want) > 1e-9*math.Max(1, tc.want) {
			t.Fatalf("Double(%s) = %v, want %v", tc.payload, got, tc.want)
		}
		if rec.Unit != tc.unit {
			t.Fatalf("unit for %s = %v, want %v", tc.payload, rec.Unit, tc.unit)
		}
	}
}

func TestDecodeOverflowPassThrough(t *testing.T) {
	// 0x80000000 exceeds a signed 32-bit range; the value passes through
	// undamped because meters use it as a missing-data sentinel.
	rec := parseOne(t, "0406 00000080")
	got, ok := rec.Double()
	if !ok || got != 2147483648 {
		t.Fatalf("Double = %v ok=%v, want 2147483648", got, ok)
	}
}

func TestDecodeBCD(t *testing.T) {
	rec := parseOne(t, "0C13 42230000")
	v, ok := rec.Uint()
	if !ok || v != 2342 {
		t.Fatalf("Uint = %d ok=%v, want 2342", v, ok)
	}
}

func TestDecodeTypeGDate(t *testing.T) {
	cases := []struct {
		payload string
		want    string
	}{
		{"026C 2124", "2017-04-01"},
		{"026C C121", "2022-01-01"},
		// All bits set decodes positionally to the impossible sentinel
		// date rather than failing.
		{"026C FFFF", "2127-15-31"},
	}
	for _, tc := range cases {
		rec := parseOne(t, tc.payload)
		got, ok := rec.Text()
		if !ok || got != tc.want {
			t.Fatalf("Text(%s) = %q ok=%v, want %q", tc.payload, got, ok, tc.want)
		}
	}
}

func TestDecodeTypeFDateTime(t *testing.T) {
	rec := parseOne(t, "046D 27287E2A")
	got, ok := rec.Text()
	if !ok || got != "2019-10-30 08:39" {
		t.Fatalf("Text = %q ok=%v, want 2019-10-30 08:39", got, ok)
	}
}

func TestDecodeReal(t *testing.T) {
	bits := math.Float32bits(1.5)
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, bits)
	rec := parseOne(t, "0513 "+hexString(data))
	got, ok := rec.Double()
	if !ok || math.Abs(got-0.0015) > 1e-12 {
		t.Fatalf("Double = %v ok=%v, want 0.0015", got, ok)
	}
}

// Decoding then reverse-scaling must reproduce the original payload bytes
// for fixed-width integer records.
func TestDecodeRoundTrip(t *testing.T) {
	payloads := []string{
		"0406 1A000000",
		"0413 C2080000",
		"042D 19000000",
		"0259 1216",
		"0406 00000080",
	}
	for _, payload := range payloads {
		rec := parseOne(t, payload)
		v, ok := rec.Double()
		if !ok {
			t.Fatalf("Double(%s): not numeric", payload)
		}
		raw := uint64(math.Round(v / rec.Scale))
		buf := make([]byte, len(rec.Data))
		for n := range buf {
			buf[n] = byte(raw >> (8 * n))
		}
		if hexString(buf) != hexString(rec.Data) {
			t.Fatalf("round trip %s: re-encoded %s, want %s", payload, hexString(buf), hexString(rec.Data))
		}
	}
}

func hexString(b []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, len(b)*2)
	for _, by := range b {
		out = append(out, digits[by>>4], digits[by&0x0F])
	}
	return string(out)
}
