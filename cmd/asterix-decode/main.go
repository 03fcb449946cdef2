package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vog/asterix/pkg/asterix"
)

var (
	rootCmd = &cobra.Command{
		Use:   "asterix-decode [file]",
		Short: "Decode ASTERIX surveillance data",
		Long: "asterix-decode reads a raw ASTERIX byte stream from stdin or a capture file " +
			"and prints every data block and record. Captures ending in .gz, .zst or .lz4 " +
			"are decompressed transparently.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			opts := asterix.DecodeOptions{}
			if schemaPath != "" {
				doc, err := os.ReadFile(schemaPath)
				if err != nil {
					return fmt.Errorf("read schema: %w", err)
				}
				opts.SchemaXML = doc
			}
			in, closeInput, err := openInput(args)
			if err != nil {
				return err
			}
			defer closeInput()
			return runDecode(in, opts)
		},
	}

	schemaPath string
	debug      bool
	noSort     bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&schemaPath, "schema", "", "schema XML overriding the embedded one")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noSort, "no-sort", false, "print records in decode order")
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func runDecode(in io.Reader, opts asterix.DecodeOptions) error {
	digest := xxhash.New()
	result, err := asterix.DecodeWithOptions(io.TeeReader(in, digest), opts)
	if err != nil {
		return err
	}
	if !noSort {
		result.SortRecords()
	}
	logrus.WithFields(logrus.Fields{
		"blocks": len(result.Blocks),
		"bytes":  result.ByteCount,
		"digest": fmt.Sprintf("%016x", digest.Sum64()),
	}).Info("capture decoded")
	fmt.Print(result.Report())
	return nil
}

// openInput selects stdin or a capture file, unwrapping compression by
// file extension.
func openInput(args []string) (io.Reader, func() error, error) {
	if len(args) == 0 {
		return os.Stdin, func() error { return nil }, nil
	}
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("open gzip capture: %w", err)
		}
		return zr, func() error {
			zr.Close()
			return f.Close()
		}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, fmt.Errorf("open zstd capture: %w", err)
		}
		return zr, func() error {
			zr.Close()
			return f.Close()
		}, nil
	case ".lz4":
		return lz4.NewReader(f), f.Close, nil
	default:
		return f, f.Close, nil
	}
}
