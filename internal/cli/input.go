package cli

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/csvio"
	"github.com/JonMunkholm/cleanse/internal/table"
)

// inputOptions control how the input CSV is read.
type inputOptions struct {
	delimiter   string
	lenient     bool
	noInfer     bool
	inferSample int
}

func (o *inputOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.delimiter, "delimiter", "d", ",", `field delimiter (a single character, or "tab")`)
	fs.BoolVar(&o.lenient, "lenient", false, "accept bare quotes and ragged rows")
	fs.BoolVar(&o.noInfer, "no-infer", false, "read every column as text")
	fs.IntVar(&o.inferSample, "infer-sample", csvio.DefaultInferenceSample, "cells per column used to infer types")
}

// read loads the table at path; "-" reads standard input. textColumns are
// never converted by type inference.
func (o *inputOptions) read(cmd *cobra.Command, path string, textColumns ...string) (*table.Table, error) {
	comma, err := parseDelimiter(o.delimiter)
	if err != nil {
		return nil, err
	}
	opts := csvio.Options{
		Comma:       comma,
		InferTypes:  !o.noInfer,
		SampleSize:  o.inferSample,
		Lenient:     o.lenient,
		TextColumns: textColumns,
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	t, err := csvio.Read(r, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q: want a single character", s)
	}
	return r, nil
}

// formatColumns lists the email and phone columns of an enabled formats
// stage.
func formatColumns(cfg core.Config) []string {
	if !cfg.Formats.Enabled {
		return nil
	}
	return cfg.Formats.Columns()
}
