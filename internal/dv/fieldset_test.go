package dv

import "testing"

func TestFindStructured(t *testing.T) {
	fs, err := Parse(decodeHex(t, t1bPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	rec, ok := fs.Find(Query{Type: Instantaneous, Range: VifEnergyWh})
	if !ok || rec.Key() != "0406" {
		t.Fatalf("energy storage 0: got %v ok=%v", rec, ok)
	}

	rec, ok = fs.Find(Query{Type: Instantaneous, Range: VifEnergyWh, Storage: 8})
	if !ok || rec.Key() != "840406" {
		t.Fatalf("energy storage 8: got %v ok=%v", rec, ok)
	}

	rec, ok = fs.Find(Query{Type: Maximum, Range: VifPowerW, Storage: 32})
	if !ok || rec.Key() != "948001AE25" {
		t.Fatalf("max power: got %v ok=%v", rec, ok)
	}

	if _, ok = fs.Find(Query{Type: Minimum, Range: VifPowerW, Storage: AnyStorageNr}); ok {
		t.Fatal("minimum power should be absent")
	}
}

func TestFindWildcardAndIndex(t *testing.T) {
	// Three flow temperature records; the index selects the Nth in wire
	// order, a wildcard returns the first.
	fs, err := Parse(decodeHex(t, "0259 0100 0259 0200 0259 0300"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec, ok := fs.Find(Query{Type: Instantaneous, Range: VifFlowTemperature})
	if !ok {
		t.Fatal("first flow temperature not found")
	}
	if v, _ := rec.Uint(); v != 1 {
		t.Fatalf("wildcard index: got record %d, want first", v)
	}
	rec, ok = fs.Find(Query{Type: Instantaneous, Range: VifFlowTemperature, Index: 3})
	if !ok {
		t.Fatal("third flow temperature not found")
	}
	if v, _ := rec.Uint(); v != 3 {
		t.Fatalf("index 3: got record %d, want third", v)
	}
	if _, ok = fs.Find(Query{Type: Instantaneous, Range: VifFlowTemperature, Index: 4}); ok {
		t.Fatal("index beyond the matches should report not found")
	}
}

func TestFindByLiteralKey(t *testing.T) {
	fs, err := Parse(decodeHex(t, "0413 320C0000 03FD17 0C0C0C"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	rec, ok := fs.ByKey("03FD17")
	if !ok {
		t.Fatal("03FD17 not found")
	}
	if rec.Range != VifErrorFlags {
		t.Fatalf("expected error-flag range, got %v", rec.Range)
	}
	v, ok := rec.Uint()
	if !ok || v != 0x0C0C0C {
		t.Fatalf("info codes = %06x ok=%v, want 0c0c0c", v, ok)
	}
	if _, ok = fs.ByKey("04FD17"); ok {
		t.Fatal("mismatched key should report not found")
	}
}

func TestExplanationsSorted(t *testing.T) {
	fs, err := Parse(decodeHex(t, t1bPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	fs.AddExplanation(20, "later")
	fs.AddExplanation(2, "earlier")
	exps := fs.Explanations()
	if len(exps) != 2 || exps[0].Text != "earlier" || exps[1].Text != "later" {
		t.Fatalf("unexpected explanation order: %v", exps)
	}
}
