package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oleg578/csv2jsonl"
	"github.com/oleg578/csv2jsonl/internal/config"
	"github.com/oleg578/csv2jsonl/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var version = "dev"

const long = `csv2jsonl converts CSV to JSON Lines, streaming one row at a time.

By default it performs type inference without information loss: empty fields
become null and number strings become numbers only when the JSON rendering of
the number equals the original text (so values with e, E, leading zeros or
trailing zeros stay strings). If a UTF-8 or UTF-16 byte order mark is found the
input is transcoded; otherwise bytes are passed through as if they were UTF-8.
Compressed input (gzip, zstd, lz4, s2/snappy) is detected automatically.

Settings may also come from CSV2JSONL_* environment variables or --config.`

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	v := config.New()
	var configFile string

	cmd := &cobra.Command{
		Use:           "csv2jsonl [flags] [FILE]",
		Short:         "Convert CSV to JSON Lines",
		Long:          long,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(v, configFile); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging, stderr)
			if err != nil {
				return err
			}

			src := stdin
			name := "<stdin>"
			if len(args) == 1 {
				name = args[0]
				f, err := os.Open(name)
				if err != nil {
					return fmt.Errorf("could not read csv file: %w", err)
				}
				defer f.Close()
				src = f
			}

			conv, err := csv2jsonl.NewConverter(append(cfg.Options(), csv2jsonl.WithLogger(log))...)
			if err != nil {
				return err
			}
			stats, err := conv.Convert(cmd.Context(), src, stdout)
			fields := logrus.Fields{
				"input":       name,
				"rows":        stats.Rows,
				"encoding":    stats.Encoding,
				"compression": stats.Compression,
			}
			if err != nil {
				log.WithFields(fields).WithError(err).Debug("conversion aborted")
				return err
			}
			log.WithFields(fields).Info("conversion complete")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringP("delimiter", "d", ",", "Delimiting character (single byte) of the CSV")
	flags.BoolP("tabs", "t", false, "Use a tab delimiter (overrides --delimiter)")
	flags.IntP("indent", "i", 0, "Indent the output JSON this many spaces (disabled by default)")
	flags.BoolP("no-inference", "I", false, "Disable type inference: keep empty strings and number strings as strings")
	flags.String("decompress", "auto", "Input compression: auto, none, gzip, zstd, lz4, s2")
	flags.StringVar(&configFile, "config", "", "Configuration file path")
	flags.String("log-level", "warn", "Logging level (debug, info, warn, error)")
	flags.String("log-format", "text", "Log format (text, json, custom)")
	flags.Bool("log-colors", false, "Colorize log output")

	if err := config.BindFlags(v, flags); err != nil {
		panic(err)
	}
	return cmd
}
