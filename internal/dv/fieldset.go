package dv

import (
	"sort"
	"strings"
)

// Wildcards for structured queries.
const (
	AnyStorageNr = -1
	AnyTariffNr  = -1
	AnySubunitNr = -1
)

// Query selects a record. A non-empty Key is a literal DIF/VIF match and
// overrides the structured criteria. Index picks the Nth (1-based) record
// among those matching; zero means first.
type Query struct {
	Key     string
	Type    MeasurementType
	Range   VifRange
	Storage int
	Tariff  int
	Subunit int
	Index   int
}

// An Explanation annotates a payload byte offset with human-readable text,
// collected for verbose output.
type Explanation struct {
	Offset int
	Text   string
}

// FieldSet is the queryable record set of one telegram. It is built once per
// telegram and, apart from the explanation sink, never mutated; concurrent
// decodes of separate telegrams share only the immutable catalogs.
type FieldSet struct {
	records      []Record
	mfctData     []byte
	explanations []Explanation
}

// Parse scans and resolves the application payload. On a malformed payload
// the returned FieldSet still carries every record scanned before the fault,
// alongside a wrapped ErrMalformedTelegram.
func Parse(payload []byte) (*FieldSet, error) {
	records, mfct, err := scan(payload)
	for n := range records {
		resolve(&records[n])
	}
	return &FieldSet{records: records, mfctData: mfct}, err
}

// Records exposes the records in wire order.
func (fs *FieldSet) Records() []Record {
	return fs.records
}

// MfctData returns the opaque bytes following a manufacturer-data DIF, if any.
func (fs *FieldSet) MfctData() []byte {
	return fs.mfctData
}

// Find returns the first record matching the query in wire order, or the Nth
// when Index is set. The boolean is false when nothing matches; an absent
// field is a normal outcome, not an error.
func (fs *FieldSet) Find(q Query) (*Record, bool) {
	want := q.Index
	if want < 1 {
		want = 1
	}
	key := strings.ToUpper(q.Key)
	seen := 0
	for n := range fs.records {
		rec := &fs.records[n]
		if !matches(rec, q, key) {
			continue
		}
		seen++
		if seen == want {
			return rec, true
		}
	}
	return nil, false
}

// ByKey returns the first record with the exact literal DIF/VIF key.
func (fs *FieldSet) ByKey(key string) (*Record, bool) {
	return fs.Find(Query{Key: key})
}

func matches(rec *Record, q Query, key string) bool {
	if key != "" {
		return rec.Key() == key
	}
	if q.Type != AnyType && rec.Type != q.Type {
		return false
	}
	if q.Range != VifAny && rec.Range != q.Range {
		return false
	}
	if q.Storage != AnyStorageNr && rec.Storage != q.Storage {
		return false
	}
	if q.Tariff != AnyTariffNr && rec.Tariff != q.Tariff {
		return false
	}
	if q.Subunit != AnySubunitNr && rec.Subunit != q.Subunit {
		return false
	}
	return true
}

// AddExplanation attaches a note to a payload byte offset.
func (fs *FieldSet) AddExplanation(offset int, text string) {
	fs.explanations = append(fs.explanations, Explanation{Offset: offset, Text: text})
}

// Explanations returns the collected annotations ordered by offset.
func (fs *FieldSet) Explanations() []Explanation {
	out := make([]Explanation, len(fs.explanations))
	copy(out, fs.explanations)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
