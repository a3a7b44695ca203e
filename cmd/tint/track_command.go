package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/openradar/TINT/internal/config"
	"github.com/openradar/TINT/internal/gridio"
	"github.com/openradar/TINT/internal/observability"
	"github.com/openradar/TINT/internal/store"
	"github.com/openradar/TINT/tint"
)

type trackOptions struct {
	field       string
	sqlitePath  string
	csvPath     string
	metricsAddr string
	summary     bool
}

func newTrackCommand(opts *globalOptions) *cobra.Command {
	var trackOpts trackOptions

	cmd := &cobra.Command{
		Use:   "track [paths...]",
		Short: "Track cells through volume files or directories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			trackOpts.applyTo(cfg)

			logger, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runTrack(ctx, cfg, args, trackOpts.summary, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().StringVar(&trackOpts.field, "field", "", "Name of the tracked field")
	cmd.Flags().StringVar(&trackOpts.sqlitePath, "sqlite", "", "Write tracks to this SQLite database")
	cmd.Flags().StringVar(&trackOpts.csvPath, "csv", "", "Write tracks to this CSV file")
	cmd.Flags().StringVar(&trackOpts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while tracking")
	cmd.Flags().BoolVar(&trackOpts.summary, "summary", false, "Print a per-cell summary table")

	return cmd
}

// applyTo overrides configuration values with the flags that were set.
func (o trackOptions) applyTo(cfg *config.Config) {
	if o.field != "" {
		cfg.Tracking.Field = o.field
	}
	if o.sqlitePath != "" {
		cfg.Output.SQLite = o.sqlitePath
	}
	if o.csvPath != "" {
		cfg.Output.CSV = o.csvPath
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Addr = o.metricsAddr
	}
}

// contextSource stops a volume sequence once ctx is done.
type contextSource struct {
	ctx context.Context
	src tint.VolumeSource
}

func (s contextSource) Next() (*tint.Volume, error) {
	if err := s.ctx.Err(); err != nil {
		return nil, err
	}
	return s.src.Next()
}

func runTrack(ctx context.Context, cfg *config.Config, paths []string, summary bool, out io.Writer, logger *slog.Logger) error {
	params, err := cfg.Params()
	if err != nil {
		return err
	}
	src, err := gridio.NewSource(paths...)
	if err != nil {
		return err
	}
	logger.Info("volumes found", slog.Int("files", len(src.Paths())))

	sessionOpts := []tint.Option{tint.WithLogger(logger)}
	var server *http.Server
	if cfg.Metrics.Addr != "" {
		metrics := observability.NewMetrics()
		sessionOpts = append(sessionOpts, tint.WithObserver(metrics))
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		server = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	ct, err := tint.NewCellTracks(cfg.Tracking.Field, params, sessionOpts...)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if server != nil {
		g.Go(func() error {
			logger.Info("serving metrics", slog.String("addr", server.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "metrics server")
			}
			return nil
		})
	}
	g.Go(func() error {
		if server != nil {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				server.Shutdown(shutdownCtx)
			}()
		}
		return ct.GetTracks(contextSource{ctx: gctx, src: src})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	rows := ct.Tracks().Rows()
	if cfg.Output.SQLite != "" {
		if err := writeSQLite(ctx, cfg.Output.SQLite, ct, rows); err != nil {
			return err
		}
		logger.Info("tracks stored", slog.String("path", cfg.Output.SQLite), slog.String("session", ct.ID.String()))
	}
	if cfg.Output.CSV != "" {
		if err := writeCSVFile(cfg.Output.CSV, rows); err != nil {
			return err
		}
		logger.Info("tracks exported", slog.String("path", cfg.Output.CSV))
	}
	if summary {
		fmt.Fprintln(out, renderSummary(out, rows))
	}
	return nil
}

func writeSQLite(ctx context.Context, path string, ct *tint.CellTracks, rows []tint.Row) error {
	db, err := store.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	session := store.Session{
		ID:        ct.ID,
		Field:     ct.Field(),
		GridSize:  ct.GridSize(),
		Radar:     ct.Radar(),
		Params:    ct.Params(),
		CreatedAt: time.Now(),
	}
	if err := db.SaveSession(ctx, session); err != nil {
		return err
	}
	return db.ReplaceTracks(ctx, ct.ID, rows)
}

func writeCSVFile(path string, rows []tint.Row) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create csv")
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return store.WriteCSV(file, rows)
}

// cellSummary aggregates the rows of one unique id.
type cellSummary struct {
	uid       int
	firstScan int
	lastScan  int
	scans     int
	maxField  float64
	maxArea   float64
	origin    int
}

func summarizeCells(rows []tint.Row) []cellSummary {
	byUID := make(map[int]*cellSummary)
	for _, row := range rows {
		s, ok := byUID[row.UID]
		if !ok {
			s = &cellSummary{
				uid:       row.UID,
				firstScan: row.Scan,
				lastScan:  row.Scan,
				maxField:  row.Max,
				maxArea:   row.Area,
				origin:    row.Origin,
			}
			byUID[row.UID] = s
		}
		s.scans++
		s.firstScan = min(s.firstScan, row.Scan)
		s.lastScan = max(s.lastScan, row.Scan)
		s.maxField = max(s.maxField, row.Max)
		s.maxArea = max(s.maxArea, row.Area)
	}
	summaries := make([]cellSummary, 0, len(byUID))
	for _, s := range byUID {
		summaries = append(summaries, *s)
	}
	slices.SortFunc(summaries, func(a, b cellSummary) int {
		return a.uid - b.uid
	})
	return summaries
}

func renderSummary(out io.Writer, rows []tint.Row) string {
	cells := summarizeCells(rows)
	tableRows := make([][]string, 0, len(cells))
	for _, cell := range cells {
		origin := "-"
		if cell.origin != tint.NoOrigin {
			origin = strconv.Itoa(cell.origin)
		}
		tableRows = append(tableRows, []string{
			strconv.Itoa(cell.uid),
			strconv.Itoa(cell.firstScan),
			strconv.Itoa(cell.lastScan),
			strconv.Itoa(cell.scans),
			strconv.FormatFloat(cell.maxField, 'f', 1, 64),
			strconv.FormatFloat(cell.maxArea, 'f', 1, 64),
			origin,
		})
	}
	return renderTable(out,
		[]string{"UID", "First scan", "Last scan", "Scans", "Max", "Max area (km²)", "Origin"},
		tableRows,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
	)
}
