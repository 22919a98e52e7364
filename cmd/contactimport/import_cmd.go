package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/contactimport/internal/config"
	"github.com/JonMunkholm/contactimport/internal/core"
	"github.com/JonMunkholm/contactimport/internal/logging"
	"github.com/JonMunkholm/contactimport/internal/store/memory"
	"github.com/JonMunkholm/contactimport/internal/store/postgres"
)

type importOptions struct {
	file      string
	mode      string
	dryRun    bool
	countries []string
	jsonOut   bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import contacts from a CSV or XLSX file",
		Long: "Import contacts from a CSV or XLSX file.\n\n" +
			"Rows are matched to existing contacts by email. --mode create only adds\n" +
			"new contacts, update only changes existing ones, both does either.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "CSV or XLSX file to import (required)")
	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Import mode: create, update or both (default from IMPORT_DEFAULT_MODE)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Import into an empty in-memory store instead of the database")
	cmd.Flags().StringSliceVar(&opts.countries, "country", nil, "Country names known to the dry-run store (repeatable)")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print the full report as JSON")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runImport(ctx context.Context, opts importOptions, stdout, stderr io.Writer) error {
	var (
		logCfg config.LoggingConfig
		impCfg config.ImportConfig
	)
	if err := config.Populate(&logCfg, &impCfg); err != nil {
		return withCode(exitUsage, err)
	}
	slog.SetDefault(logging.New(stderr, logCfg.Level, logCfg.Format))

	rawMode := opts.mode
	if rawMode == "" {
		rawMode = impCfg.DefaultMode
	}
	mode, err := core.ParseMode(rawMode)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("--mode: %w", err))
	}

	data, err := os.ReadFile(opts.file)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("read --file: %w", err))
	}
	if impCfg.MaxFileSize > 0 && int64(len(data)) > impCfg.MaxFileSize {
		err := fmt.Errorf("%w: %d bytes exceeds limit of %d", core.ErrFileTooLarge, len(data), impCfg.MaxFileSize)
		return withCode(exitValidation, core.NewUserError(err))
	}

	contacts, countries, cleanup, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := core.NewService(contacts, countries, core.ServiceOptions{
		MaxConcurrent: 1,
		Timeout:       impCfg.Timeout,
	})

	report, err := svc.Import(ctx, data, filepath.Base(opts.file), mode)
	if report != nil {
		// A timed-out run still wrote some rows; show what happened.
		if printErr := printReport(stdout, report, opts.jsonOut); printErr != nil && err == nil {
			err = printErr
		}
	}
	switch {
	case err == nil:
		return nil
	case core.IsFatal(err):
		return withCode(exitValidation, core.NewUserError(err))
	case core.IsUserFacing(err):
		return withCode(exitFailure, core.NewUserError(err))
	}
	return withCode(exitFailure, err)
}

// openStore returns the dry-run memory store or a Postgres store configured
// from the environment.
func openStore(ctx context.Context, opts importOptions) (core.ContactStore, core.CountryDirectory, func(), error) {
	if opts.dryRun {
		store := memory.New()
		for _, name := range opts.countries {
			store.AddCountry(name)
		}
		return store, store, func() {}, nil
	}

	var dbCfg config.DatabaseConfig
	if err := config.Populate(&dbCfg); err != nil {
		return nil, nil, nil, withCode(exitUsage, fmt.Errorf("%w (use --dry-run to import without a database)", err))
	}

	pool, err := postgres.Open(ctx, dbCfg.URL, postgres.PoolOptions{
		MaxConns: 2,
		MinConns: 1,
	})
	if err != nil {
		return nil, nil, nil, withCode(exitDB, err)
	}
	if dbCfg.EnsureSchema {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, withCode(exitDB, err)
		}
	}

	store := postgres.NewStore(pool)
	return store, store, pool.Close, nil
}

func printReport(w io.Writer, report *core.ImportReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "%s\n\n%s\n", report.Notification.Title, report.Notification.Message)
	return nil
}
