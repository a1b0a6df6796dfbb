package frame

import (
	"encoding/hex"
	"testing"
)

func TestParse(t *testing.T) {
	raw := decodeHex(t, "5E44496A5555445588047A0A0050052F2F04061A0000000413C20800008404060000000082046CC121043BA4000000042D1900000002591216025DE21002FD17000084800106000000008280016CC121948001AE25000000002F2F2F2F2F2F")
	tg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tg.Manufacturer != 0x6A49 {
		t.Fatalf("manufacturer mismatch: %04X", tg.Manufacturer)
	}
	if got := tg.MeterIDString(); got != "55445555" {
		t.Fatalf("meter id mismatch: %s", got)
	}
	if tg.CI != 0x7A {
		t.Fatalf("unexpected CI 0x%02X", tg.CI)
	}
	if tg.Version != 0x88 || tg.DeviceType != 0x04 {
		t.Fatalf("unexpected version/type 0x%02X/0x%02X", tg.Version, tg.DeviceType)
	}
	if got := tg.SecurityMode(); got != 5 {
		t.Fatalf("unexpected security mode %d", got)
	}
	if tg.Payload[0] != 0x2F || tg.Payload[1] != 0x2F {
		t.Fatalf("payload does not start at the decryption marker: % X", tg.Payload[:2])
	}
}

func TestParseLengthMismatch(t *testing.T) {
	raw := decodeHex(t, "5E44496A5555445588047A0A005005")
	if _, err := Parse(raw); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	return b
}
