package decode

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vog/asterix/internal/schema"
	"github.com/vog/asterix/internal/stream"
)

// cat048 layout: FRN 1 sac, 2 range, 3 blob, 4 pos, 5 ext, 6 spare, 7 neg.
const testDoc = `<?xml version="1.0"?>
<schema xmlns="http://www.profv.de/asterix">
    <fspec id="cat048">
        <number id="sac" octets="1"/>
        <number id="range" octets="2" rshift="1" factor="2.0"/>
        <unknown id="blob" octets="2"/>
        <multi id="pos">
            <number id="x" octets="1"/>
            <number id="y" octets="1"/>
        </multi>
        <fx id="ext"/>
        <unknown id="spare" failure_info="spare item must not be present"/>
        <number id="neg" octets="1" signed="true"/>
    </fspec>
</schema>`

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s, err := schema.Load([]byte(testDoc))
	if err != nil {
		t.Fatalf("load test schema: %v", err)
	}
	return s
}

func decodeBytes(t *testing.T, data []byte) ([]DataBlock, error) {
	t.Helper()
	return Decode(bytes.NewReader(data), testSchema(t))
}

func TestEmptyInputIsCleanEnd(t *testing.T) {
	blocks, err := decodeBytes(t, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(blocks) != 0 {
		t.Fatalf("got %d blocks from empty input", len(blocks))
	}
}

func TestPresenceBitOrder(t *testing.T) {
	// FSPEC 0xB0: FRNs 1, 3 and 4 present, FRN 2 skipped.
	data := []byte{0x30, 0x00, 0x09, 0xB0, 0x07, 0xAB, 0xCD, 0x01, 0x02}
	blocks, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(blocks) != 1 || blocks[0].Category != 48 || len(blocks[0].Records) != 1 {
		t.Fatalf("unexpected blocks: %+v", blocks)
	}
	rec := blocks[0].Records[0]
	if v := rec["sac"]; v.Kind != KindNumber || v.Number != 7 {
		t.Fatalf("sac = %+v", v)
	}
	if _, ok := rec["range"]; ok {
		t.Fatal("range decoded despite clear presence bit")
	}
	if v := rec["blob"]; !v.Unresolved() || v.Text != "ab cd" {
		t.Fatalf("blob = %+v", v)
	}
	if rec["x"].Number != 1 || rec["y"].Number != 2 {
		t.Fatalf("composite fields = %+v", rec)
	}
}

func TestNumericScaling(t *testing.T) {
	// range: raw 10, rshift 1, factor 2.0 -> 10 / 2 * 2.0 = 10.0
	data := []byte{0x30, 0x00, 0x06, 0x40, 0x00, 0x0A}
	blocks, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v := blocks[0].Records[0]["range"]; v.Number != 10.0 {
		t.Fatalf("range = %+v", v)
	}
}

func TestNumericUnscaled(t *testing.T) {
	data := []byte{0x30, 0x00, 0x05, 0x80, 0x2A}
	blocks, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if v := blocks[0].Records[0]["sac"]; v.Number != 42 {
		t.Fatalf("sac = %+v", v)
	}

	node := &schema.Node{Type: schema.TypeNumber, ID: "wide", Octets: 2}
	r := stream.NewCountingReader(bytes.NewReader([]byte{0xAB, 0xCD}))
	rec, err := decodeNode(r, node)
	if err != nil {
		t.Fatalf("decodeNode: %v", err)
	}
	if rec["wide"].Number != 0xABCD {
		t.Fatalf("wide = %+v", rec["wide"])
	}
}

func TestUnknownCategoryFatal(t *testing.T) {
	blocks, err := decodeBytes(t, []byte{0xFF, 0x00, 0x03})
	if !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if blocks != nil {
		t.Fatalf("blocks returned alongside fatal error: %+v", blocks)
	}
}

func TestForbiddenItemFatal(t *testing.T) {
	// FSPEC 0x04: FRN 6 (spare, failure_info) present.
	_, err := decodeBytes(t, []byte{0x30, 0x00, 0x04, 0x04})
	if !errors.Is(err, ErrForbiddenItem) {
		t.Fatalf("expected ErrForbiddenItem, got %v", err)
	}
}

func TestUnknownFieldReferenceFatal(t *testing.T) {
	// Second FSPEC octet sets presence position 7; the schema declares
	// only positions 0 through 6.
	_, err := decodeBytes(t, []byte{0x30, 0x00, 0x05, 0x01, 0x80})
	if !errors.Is(err, ErrUnknownFieldReference) {
		t.Fatalf("expected ErrUnknownFieldReference, got %v", err)
	}
}

func TestTrailingZeroBitsIgnored(t *testing.T) {
	data := []byte{0x30, 0x00, 0x05, 0x01, 0x00}
	blocks, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(blocks[0].Records) != 1 || len(blocks[0].Records[0]) != 0 {
		t.Fatalf("unexpected records: %+v", blocks[0].Records)
	}
}

func TestExtensionBitmapDiagnostic(t *testing.T) {
	// FSPEC 0x08 selects the fx item; fx octet 0xAA has no extension flag.
	data := []byte{0x30, 0x00, 0x05, 0x08, 0xAA}
	blocks, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	v := blocks[0].Records[0]["ext"]
	if v.Kind != KindBitDump || !v.Unresolved() || v.Text != "1010101" {
		t.Fatalf("ext = %+v", v)
	}
}

func TestBlockLengthMismatchFatal(t *testing.T) {
	// Declared body of 3 bytes; the two records consume 4.
	_, err := decodeBytes(t, []byte{0x30, 0x00, 0x06, 0x80, 0x01, 0x80, 0x02})
	if !errors.Is(err, ErrBlockLength) {
		t.Fatalf("expected ErrBlockLength, got %v", err)
	}
}

func TestBlockLengthBelowHeaderFatal(t *testing.T) {
	_, err := decodeBytes(t, []byte{0x30, 0x00, 0x02})
	if !errors.Is(err, ErrBlockLength) {
		t.Fatalf("expected ErrBlockLength, got %v", err)
	}
}

func TestSignedNumberUnsupported(t *testing.T) {
	// FSPEC 0x02 selects FRN 7, a signed number.
	_, err := decodeBytes(t, []byte{0x30, 0x00, 0x04, 0x02})
	if !errors.Is(err, ErrSignedUnsupported) {
		t.Fatalf("expected ErrSignedUnsupported, got %v", err)
	}
}

func TestTruncatedBlockHeaderFatal(t *testing.T) {
	for _, data := range [][]byte{{0x30}, {0x30, 0x00}} {
		if _, err := decodeBytes(t, data); err == nil {
			t.Fatalf("truncated header %v decoded without error", data)
		}
	}
}

func TestMultipleBlocks(t *testing.T) {
	data := []byte{
		0x30, 0x00, 0x05, 0x80, 0x01,
		0x30, 0x00, 0x05, 0x80, 0x02,
	}
	blocks, err := decodeBytes(t, data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks", len(blocks))
	}
	if blocks[0].Records[0]["sac"].Number != 1 || blocks[1].Records[0]["sac"].Number != 2 {
		t.Fatalf("blocks decoded out of order: %+v", blocks)
	}
}

func TestCompositeMergeOverwrites(t *testing.T) {
	node := &schema.Node{
		Type: schema.TypeComposite,
		ID:   "dup",
		Children: []*schema.Node{
			{Type: schema.TypeNumber, ID: "v", Octets: 1},
			{Type: schema.TypeNumber, ID: "v", Octets: 1},
		},
	}
	r := stream.NewCountingReader(bytes.NewReader([]byte{1, 2}))
	rec, err := decodeNode(r, node)
	if err != nil {
		t.Fatalf("decodeNode: %v", err)
	}
	if rec["v"].Number != 2 {
		t.Fatalf("later child did not overwrite: %+v", rec)
	}
}

func TestDispatcher(t *testing.T) {
	if _, err := decoderFor(&schema.Node{Type: schema.TypeRoot}); !errors.Is(err, ErrUnsupportedNodeType) {
		t.Fatalf("nested root: expected ErrUnsupportedNodeType, got %v", err)
	}
	for _, typ := range []schema.NodeType{schema.TypeList, schema.TypeBool, schema.TypeEnum, schema.TypeUnknown} {
		d, err := decoderFor(&schema.Node{Type: typ})
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if _, ok := d.(placeholderDecoder); !ok {
			t.Fatalf("%s dispatched to %T", typ, d)
		}
	}
}
