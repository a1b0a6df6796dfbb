package dv

import (
	"encoding/hex"
	"errors"
	"testing"
)

// Application payload of a C5-ISF T1B telegram, idle filler at both ends.
const t1bPayload = "2F2F04061A0000000413C20800008404060000000082046CC121043BA4000000042D1900000002591216025DE21002FD17000084800106000000008280016CC121948001AE25000000002F2F2F2F2F2F"

func TestScanRecordCount(t *testing.T) {
	fs, err := Parse(decodeHex(t, t1bPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	records := fs.Records()
	if len(records) != 12 {
		t.Fatalf("expected 12 records, got %d", len(records))
	}
	prevEnd := -1
	for _, rec := range records {
		if rec.Offset <= prevEnd {
			t.Fatalf("record at offset %d overlaps previous record ending at %d", rec.Offset, prevEnd)
		}
		if rec.DataOffset <= rec.Offset {
			t.Fatalf("data offset %d not after DIF offset %d", rec.DataOffset, rec.Offset)
		}
		prevEnd = rec.DataOffset + len(rec.Data) - 1
	}
}

func TestScanStorageAssembly(t *testing.T) {
	cases := []struct {
		payload string
		storage int
		tariff  int
		subunit int
	}{
		{"0406 00000000", 0, 0, 0},
		{"4406 00000000", 1, 0, 0},
		{"84800106 00000000", 32, 0, 0},
		{"C4800106 00000000", 33, 0, 0},
		{"84810106 00000000", 34, 0, 0},
		{"C4860106 00000000", 45, 0, 0},
		{"82046C C121", 8, 0, 0},
		{"8410 06 00000000", 0, 1, 0},
		{"8440 06 00000000", 0, 0, 1},
	}
	for _, tc := range cases {
		fs, err := Parse(decodeHex(t, tc.payload))
		if err != nil {
			t.Fatalf("Parse(%s): %v", tc.payload, err)
		}
		if len(fs.Records()) != 1 {
			t.Fatalf("Parse(%s): expected one record, got %d", tc.payload, len(fs.Records()))
		}
		rec := fs.Records()[0]
		if rec.Storage != tc.storage || rec.Tariff != tc.tariff || rec.Subunit != tc.subunit {
			t.Fatalf("Parse(%s): got storage=%d tariff=%d subunit=%d, want %d/%d/%d",
				tc.payload, rec.Storage, rec.Tariff, rec.Subunit, tc.storage, tc.tariff, tc.subunit)
		}
	}
}

func TestScanTruncatedKeepsPartial(t *testing.T) {
	// Second record declares four data bytes but only two follow.
	fs, err := Parse(decodeHex(t, "0406 1A000000 0413 C208"))
	if !errors.Is(err, ErrMalformedTelegram) {
		t.Fatalf("expected ErrMalformedTelegram, got %v", err)
	}
	if len(fs.Records()) != 1 {
		t.Fatalf("expected the first record to survive, got %d records", len(fs.Records()))
	}
	if got := fs.Records()[0].Key(); got != "0406" {
		t.Fatalf("unexpected surviving record %s", got)
	}
}

func TestScanManufacturerData(t *testing.T) {
	fs, err := Parse(decodeHex(t, "0406 1A000000 0F DEADBEEF"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(fs.Records()) != 1 {
		t.Fatalf("expected one record, got %d", len(fs.Records()))
	}
	if got := len(fs.MfctData()); got != 4 {
		t.Fatalf("expected 4 manufacturer bytes, got %d", got)
	}
}

func TestScanVIFEChain(t *testing.T) {
	fs, err := Parse(decodeHex(t, "04933C 05000000"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := fs.Records()[0]
	if rec.Key() != "04933C" {
		t.Fatalf("unexpected key %s", rec.Key())
	}
	if rec.Range != VifVolume {
		t.Fatalf("backward-flow record should stay in the volume range, got %v", rec.Range)
	}
}

func TestScanLVAR(t *testing.T) {
	fs, err := Parse(decodeHex(t, "0D78 03 434241"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec := fs.Records()[0]
	s, ok := rec.Text()
	if !ok || s != "ABC" {
		t.Fatalf("expected reversed text \"ABC\", got %q ok=%v", s, ok)
	}
}

func TestScanLVARNumber(t *testing.T) {
	// C0h-based LVAR declares a BCD number; records after it still scan.
	fs, err := Parse(decodeHex(t, "0D78 C2 3412 0259 1216"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	records := fs.Records()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Coding != CodingBCD {
		t.Fatalf("expected BCD coding, got %v", records[0].Coding)
	}
	if v, ok := records[0].Uint(); !ok || v != 1234 {
		t.Fatalf("BCD number = %d ok=%v, want 1234", v, ok)
	}
	if records[1].Range != VifFlowTemperature {
		t.Fatalf("record after LVAR number lost: %v", records[1].Range)
	}

	// D0h-based variant carries a negative number, same magnitude layout.
	fs, err = Parse(decodeHex(t, "0D13 D1 05"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := fs.Records()[0].Uint(); !ok || v != 5 {
		t.Fatalf("negative BCD magnitude = %d ok=%v, want 5", v, ok)
	}

	// E0h-based variant declares a little-endian binary number.
	fs, err = Parse(decodeHex(t, "0D13 E2 0102"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := fs.Records()[0].Uint(); !ok || v != 0x0201 {
		t.Fatalf("binary LVAR = %#x ok=%v, want 0x201", v, ok)
	}
}

func TestScanLVARUndefined(t *testing.T) {
	fs, err := Parse(decodeHex(t, "0406 1A000000 0D78 FA 00"))
	if !errors.Is(err, ErrMalformedTelegram) {
		t.Fatalf("expected ErrMalformedTelegram, got %v", err)
	}
	if len(fs.Records()) != 1 {
		t.Fatalf("records before the undefined LVAR must survive, got %d", len(fs.Records()))
	}
}

func TestScanEmptyPayload(t *testing.T) {
	fs, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if len(fs.Records()) != 0 {
		t.Fatalf("expected no records, got %d", len(fs.Records()))
	}
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	clean := ""
	for _, r := range s {
		if r != ' ' {
			clean += string(r)
		}
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}
