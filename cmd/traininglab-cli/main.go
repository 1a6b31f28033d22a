package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/claude/traininglab/internal/export"
	"github.com/claude/traininglab/internal/workout"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var ftp int
	var verbose bool

	root := &cobra.Command{
		Use:           "traininglab-cli",
		Short:         "Compile, convert and check cycling workouts offline",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVar(&ftp, "ftp", 0, "FTP in watts (wattage targets, zones and erg output)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log defaults applied and summaries")

	logger := func() *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelInfo
		}
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}

	root.AddCommand(newGenerateCmd(&ftp, logger))
	root.AddCommand(newConvertCmd(&ftp))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newZonesCmd(&ftp))
	return root
}

func newGenerateCmd(ftp *int, logger func() *slog.Logger) *cobra.Command {
	var format, name, out string
	var minutes int

	cmd := &cobra.Command{
		Use:   "generate <description>",
		Short: "Compile a plain-language description into a workout file",
		Example: `  traininglab-cli generate "4x8 min threshold with 4 min recovery"
  traininglab-cli generate --minutes 90 --format erg --ftp 260 "3x15 sweet spot" -o ss.erg`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			res, err := workout.Generate(workout.Request{
				Description:   strings.Join(args, " "),
				FTP:           *ftp,
				TotalDuration: minutes * 60,
			})
			if err != nil {
				return err
			}
			for _, n := range res.Notes {
				log.Info("default applied", "note", n)
			}

			w := export.FromResult(res)
			if name != "" {
				w.Name = name
			}
			if err := export.ValidateName(w.Name); err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), out, func(dst io.Writer) error {
				return export.Write(dst, format, w, *ftp)
			}); err != nil {
				return err
			}
			log.Info("workout generated",
				"name", w.Name,
				"type", res.Type,
				"duration", workout.FormatDuration(res.TotalDuration),
				"tss", fmt.Sprintf("%.0f", res.TSS),
			)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatZWO, "output format: zwo, erg or mrc")
	cmd.Flags().IntVar(&minutes, "minutes", 0, "total length in minutes (overrides the description)")
	cmd.Flags().StringVar(&name, "name", "", "workout name (default: generated)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newConvertCmd(ftp *int) *cobra.Command {
	var format, out string

	cmd := &cobra.Command{
		Use:   "convert <file.zwo>",
		Short: "Convert a Zwift workout to ERG or MRC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readZWO(args[0])
			if err != nil {
				return err
			}
			if report := workout.Validate(w.Segments); !report.Valid {
				return fmt.Errorf("invalid workout: %s", strings.Join(report.Errors, "; "))
			}
			return writeOutput(cmd.OutOrStdout(), out, func(dst io.Writer) error {
				return export.Write(dst, format, w, *ftp)
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatERG, "output format: zwo, erg or mrc")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.zwo>",
		Short: "Check a Zwift workout and print the validation report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := readZWO(args[0])
			if err != nil {
				return err
			}
			report := workout.Validate(w.Segments)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Valid {
				return fmt.Errorf("%s: %d errors", args[0], len(report.Errors))
			}
			return nil
		},
	}
}

func newZonesCmd(ftp *int) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "Print the seven power zones for --ftp",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if *ftp <= 0 {
				return fmt.Errorf("--ftp is required")
			}
			out := cmd.OutOrStdout()
			for _, z := range workout.Zones(*ftp) {
				fmt.Fprintf(out, "Z%d  %-20s %3d-%3d%%  %4d-%4d W\n",
					z.Number, z.Name, z.Band.Min, z.Band.Max, z.MinWatts, z.MaxWatts)
			}
			return nil
		},
	}
}

func readZWO(path string) (export.Workout, error) {
	f, err := os.Open(path)
	if err != nil {
		return export.Workout{}, err
	}
	defer f.Close()
	w, err := export.ParseZWO(f)
	if err != nil {
		return export.Workout{}, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// writeOutput runs write against path, or stdout when path is empty.
func writeOutput(stdout io.Writer, path string, write func(io.Writer) error) error {
	dst := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		dst = f
	}
	bw := bufio.NewWriter(dst)
	if err := write(bw); err != nil {
		return err
	}
	return bw.Flush()
}
