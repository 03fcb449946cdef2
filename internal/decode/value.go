package decode

import "strconv"

// ValueKind discriminates the representations a decoded field can take.
type ValueKind int

const (
	// KindNumber is a fully decoded numeric field.
	KindNumber ValueKind = iota
	// KindRawDump is a hex dump of a field whose semantics are not modeled.
	KindRawDump
	// KindBitDump is the bit string of an undecoded extension bitmap.
	KindBitDump
)

// Value is a single decoded field: either a number or a diagnostic dump of
// bytes the schema does not describe further.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
}

// NumberValue wraps a decoded numeric field.
func NumberValue(n float64) Value {
	return Value{Kind: KindNumber, Number: n}
}

// RawDumpValue wraps an unresolved hex dump such as "ab cd".
func RawDumpValue(dump string) Value {
	return Value{Kind: KindRawDump, Text: dump}
}

// BitDumpValue wraps an unresolved extension-bitmap bit string such as "1010100".
func BitDumpValue(bits string) Value {
	return Value{Kind: KindBitDump, Text: bits}
}

// Unresolved reports whether the value is a diagnostic stand-in rather than
// a decoded number.
func (v Value) Unresolved() bool {
	return v.Kind != KindNumber
}

// String renders the value for reports.
func (v Value) String() string {
	switch v.Kind {
	case KindRawDump:
		return "UNKNOWN " + v.Text
	case KindBitDump:
		return "UNKNOWN FX " + v.Text
	default:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	}
}

// Record maps field ids to decoded values. One record corresponds to one
// decode of a category's subschema; keys are unique and a merge lets later
// writers overwrite earlier ones.
type Record map[string]Value

func (r Record) merge(other Record) {
	for id, v := range other {
		r[id] = v
	}
}

// DataBlock is one category block: the category number and the records
// decoded from its body, in wire order.
type DataBlock struct {
	Category uint8
	Records  []Record
}
