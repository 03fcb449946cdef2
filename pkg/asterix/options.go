package asterix

import "github.com/vog/asterix/internal/schema"

// DecodeOptions configures decoding.
type DecodeOptions struct {
	// SchemaXML is a schema document overriding the embedded one.
	SchemaXML []byte
	// Schema is a precompiled schema handle; it takes precedence over
	// SchemaXML and lets callers load the document once across runs.
	Schema *schema.Schema
}

func (opts DecodeOptions) schema() (*schema.Schema, error) {
	if opts.Schema != nil {
		return opts.Schema, nil
	}
	if opts.SchemaXML != nil {
		return schema.Load(opts.SchemaXML)
	}
	return schema.Default()
}
