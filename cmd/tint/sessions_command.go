package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/openradar/TINT/internal/store"
	"github.com/openradar/TINT/tint"
)

func newSessionsCommand(opts *globalOptions) *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List tracking sessions stored in a database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveSQLitePath(opts, sqlitePath)
			if err != nil {
				return err
			}
			db, err := store.OpenSQLite(path)
			if err != nil {
				return err
			}
			defer db.Close()

			sessions, err := db.ListSessions(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				stored, err := db.LoadTracks(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				tracks := tint.NewTrackTableFrom(stored)
				rows = append(rows, []string{
					session.ID.String(),
					session.Field,
					session.CreatedAt.UTC().Format(time.DateTime),
					strconv.Itoa(len(tracks.Scans())),
					strconv.Itoa(tracks.Len()),
					strconv.Itoa(len(summarizeCells(tracks.Rows()))),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out, []string{"Session", "Field", "Created", "Scans", "Rows", "Cells"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Track database path")
	return cmd
}

func newExportCommand(opts *globalOptions) *cobra.Command {
	var (
		sqlitePath string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export the tracks of a stored session as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return errors.Wrapf(err, "invalid session id %q", args[0])
			}
			path, err := resolveSQLitePath(opts, sqlitePath)
			if err != nil {
				return err
			}
			db, err := store.OpenSQLite(path)
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.LoadSession(cmd.Context(), id); err != nil {
				return err
			}
			rows, err := db.LoadTracks(cmd.Context(), id)
			if err != nil {
				return err
			}
			if outPath == "" || outPath == "-" {
				return store.WriteCSV(cmd.OutOrStdout(), rows)
			}
			return writeCSVFile(outPath, rows)
		},
	}
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Track database path")
	cmd.Flags().StringVarP(&outPath, "output", "o", "-", "CSV output path")
	return cmd
}

// resolveSQLitePath prefers the flag and falls back to the configured output.
func resolveSQLitePath(opts *globalOptions, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Output.SQLite == "" {
		return "", errors.New("no track database: set --sqlite or output.sqlite")
	}
	if _, err := os.Stat(cfg.Output.SQLite); err != nil {
		return "", errors.Wrap(err, "track database")
	}
	return cfg.Output.SQLite, nil
}
