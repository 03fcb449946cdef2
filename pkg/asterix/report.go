package asterix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vog/asterix/internal/decode"
)

// recordSortKey is the composite key reports are ordered by, field by field.
var recordSortKey = []string{"time", "sac", "sic", "track"}

// SortRecords orders the records of every block by (time, sac, sic, track).
// This is a presentation convenience; the decoder itself returns records in
// wire order.
func (r *Result) SortRecords() {
	for i := range r.Blocks {
		records := r.Blocks[i].Records
		sort.SliceStable(records, func(a, b int) bool {
			return lessRecord(records[a], records[b])
		})
	}
}

func lessRecord(a, b decode.Record) bool {
	for _, key := range recordSortKey {
		av, aok := a[key]
		bv, bok := b[key]
		if aok != bok {
			return bok
		}
		if !aok {
			continue
		}
		if av.Kind == decode.KindNumber && bv.Kind == decode.KindNumber {
			if av.Number != bv.Number {
				return av.Number < bv.Number
			}
			continue
		}
		if as, bs := av.String(), bv.String(); as != bs {
			return as < bs
		}
	}
	return false
}

// Report renders every block and record as text, one "field = value" line
// per field with the field ids sorted.
func (r Result) Report() string {
	var b strings.Builder
	for _, block := range r.Blocks {
		fmt.Fprintf(&b, "### data block (cat %d) ###\n", block.Category)
		for _, record := range block.Records {
			b.WriteString("--- record ---\n")
			ids := make([]string, 0, len(record))
			for id := range record {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(&b, "%s = %s\n", id, record[id])
			}
		}
	}
	return b.String()
}
