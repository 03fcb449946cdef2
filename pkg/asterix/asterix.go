package asterix

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/vog/asterix/internal/decode"
	"github.com/vog/asterix/internal/stream"
)

// Result captures the outcome of one decode run.
type Result struct {
	Blocks    []decode.DataBlock
	ByteCount int
}

// Decode reads concatenated ASTERIX data blocks from r using the embedded
// schema until end of input.
func Decode(r io.Reader) (Result, error) {
	return DecodeWithOptions(r, DecodeOptions{})
}

// DecodeWithOptions decodes with custom options.
func DecodeWithOptions(r io.Reader, opts DecodeOptions) (Result, error) {
	sch, err := opts.schema()
	if err != nil {
		return Result{}, err
	}
	counted := stream.NewCountingReader(r)
	blocks, err := decode.Decode(counted, sch)
	if err != nil {
		return Result{}, err
	}
	return Result{Blocks: blocks, ByteCount: counted.Total()}, nil
}

// DecodeHex decodes a hex dump of a recorded stream. Whitespace and the
// '|' and '_' separators common in captures are ignored.
func DecodeHex(raw string) (Result, error) {
	return DecodeHexWithOptions(raw, DecodeOptions{})
}

// DecodeHexWithOptions decodes a hex dump with custom options.
func DecodeHexWithOptions(raw string, opts DecodeOptions) (Result, error) {
	data, err := decodeHex(raw)
	if err != nil {
		return Result{}, err
	}
	return DecodeWithOptions(bytes.NewReader(data), opts)
}

func decodeHex(input string) ([]byte, error) {
	clean := stripWhitespace(input)
	if strings.HasPrefix(strings.ToUpper(clean), "0X") {
		clean = clean[2:]
	}
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("hex stream must contain an even number of digits, got %d", len(clean))
	}
	decoded := make([]byte, len(clean)/2)
	if _, err := hex.Decode(decoded, []byte(clean)); err != nil {
		return nil, fmt.Errorf("decode hex: %w", err)
	}
	return decoded, nil
}

func stripWhitespace(s string) string {
	builder := strings.Builder{}
	builder.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || r == '|' || r == '_' {
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
