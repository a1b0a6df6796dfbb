package ultrimis

import (
	"context"
	"encoding/hex"
	"math"
	"testing"

	"github.com/zdyb/wmbusdv/internal/frame"
)

const workedExample = "274401069676617201167A000000000413320C000003FD170C0C0C44132109000004933C05000000"

func TestDriverProcess(t *testing.T) {
	raw, err := hex.DecodeString(workedExample)
	if err != nil {
		t.Fatalf("hex decode: %v", err)
	}
	tg, err := frame.Parse(raw)
	if err != nil {
		t.Fatalf("frame.Parse: %v", err)
	}
	reading, err := New().Process(context.Background(), &tg)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	fields := reading.Fields
	if fields["id"] != "72617696" {
		t.Fatalf("unexpected id: %v", fields["id"])
	}
	numeric := map[string]float64{
		"total_m3":               3.122,
		"target_m3":              2.337,
		"total_backward_flow_m3": 0.005,
	}
	for name, want := range numeric {
		got, ok := fields[name].(float64)
		if !ok || math.Abs(got-want) > 1e-9 {
			t.Fatalf("%s = %v, want %v", name, fields[name], want)
		}
	}
	// Any nonzero info code renders as a hex error, not a flag table.
	if fields["current_status"] != "ERR(0c0c0c)" {
		t.Fatalf("unexpected status: %v", fields["current_status"])
	}
}

func TestStatusString(t *testing.T) {
	if got := statusString(0); got != "OK" {
		t.Fatalf("statusString(0) = %q", got)
	}
	if got := statusString(0x0C0C0C); got != "ERR(0c0c0c)" {
		t.Fatalf("statusString = %q", got)
	}
	if got := statusString(0x1F); got != "ERR(00001f)" {
		t.Fatalf("statusString = %q", got)
	}
}
