package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mercadoapps/filemonitor/internal/common"
	"github.com/mercadoapps/filemonitor/internal/delivery"
	"github.com/mercadoapps/filemonitor/internal/export"
	"github.com/mercadoapps/filemonitor/internal/parser"
	"github.com/mercadoapps/filemonitor/internal/pipeline"
	"github.com/mercadoapps/filemonitor/internal/repository"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "filemonitor",
		Short:         "Positional item file ingestion tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProcessCmd())
	root.AddCommand(newPreviewCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newExportCmd())
	return root
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check every line against the strict positional layout and report findings",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			v := parser.NewValidator(slog.New(slog.NewTextHandler(os.Stderr, nil)))
			sc := bufio.NewScanner(f)
			sc.Buffer(make([]byte, 0, 4096), 1<<20)
			lineNumber := 0
			invalid := 0
			for sc.Scan() {
				lineNumber++
				result := v.ValidateLine(sc.Text(), lineNumber)
				v.LogResult(result)
				if !result.Valid {
					invalid++
					for _, e := range result.Errors {
						fmt.Printf("line %d: %s\n", result.LineNumber, e)
					}
				}
			}
			if err := sc.Err(); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d lines invalid", invalid, lineNumber)
			}
			fmt.Printf("%d lines valid\n", lineNumber)
			return nil
		},
	}
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <file>",
		Short: "Run the full pipeline for one file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			records, err := repository.Open(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer records.Close()

			sender := delivery.New(cfg.Remote.BaseURL, cfg.Remote.ProductsPath, cfg.Remote.Timeout, logger)
			proc := pipeline.NewProcessor(logger, records, sender,
				cfg.Monitor.OutputDir, cfg.Monitor.ProductOutputDir)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Monitor.ProcessTimeout)
			defer cancel()
			return proc.ProcessFile(ctx, args[0])
		},
	}
}

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <file>",
		Short: "Parse a file and print the first mapped products without side effects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

			proc := pipeline.NewProcessor(logger, nil, nil, "", "")
			result, err := proc.Preview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		from string
		to   string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export processing history to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			records, err := repository.Open(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer records.Close()

			fromT, err := parseDate(from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			toT, err := parseDate(to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			data, err := export.NewService(records, logger).HistoryXLSX(cmd.Context(), fromT, toT)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&out, "out", "processing-history.xlsx", "output file")
	return cmd
}

func setup() (*common.Config, *slog.Logger, error) {
	cfg := common.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := parser.ValidateLayout(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
