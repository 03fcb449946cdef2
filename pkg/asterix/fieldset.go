package asterix

import (
	"fmt"

	"github.com/vog/asterix/internal/decode"
)

// FieldSet offers typed helpers on top of one decoded record.
type FieldSet struct {
	record decode.Record
}

// Fields returns a FieldSet wrapper for the given record of a block.
func (r Result) Fields(block, record int) (FieldSet, error) {
	if block < 0 || block >= len(r.Blocks) {
		return FieldSet{}, fmt.Errorf("block index %d out of range", block)
	}
	records := r.Blocks[block].Records
	if record < 0 || record >= len(records) {
		return FieldSet{}, fmt.Errorf("record index %d out of range in block %d", record, block)
	}
	return FieldSet{record: records[record]}, nil
}

// Record exposes the underlying record for callers that need raw access.
func (fs FieldSet) Record() decode.Record {
	return fs.record
}

// Raw returns the stored value without conversions.
func (fs FieldSet) Raw(id string) (decode.Value, bool) {
	v, ok := fs.record[id]
	return v, ok
}

// Float returns a decoded numeric field. Unresolved diagnostic values are
// an error here since their bytes were never interpreted.
func (fs FieldSet) Float(id string) (float64, error) {
	v, ok := fs.record[id]
	if !ok {
		return 0, fmt.Errorf("field %q missing", id)
	}
	if v.Unresolved() {
		return 0, fmt.Errorf("field %q is unresolved (%s)", id, v)
	}
	return v.Number, nil
}

// Text returns the diagnostic dump of an unresolved field.
func (fs FieldSet) Text(id string) (string, error) {
	v, ok := fs.record[id]
	if !ok {
		return "", fmt.Errorf("field %q missing", id)
	}
	if !v.Unresolved() {
		return "", fmt.Errorf("field %q is numeric, not a diagnostic dump", id)
	}
	return v.Text, nil
}

// Unresolved reports whether the field is present as a diagnostic stand-in.
func (fs FieldSet) Unresolved(id string) bool {
	v, ok := fs.record[id]
	return ok && v.Unresolved()
}
