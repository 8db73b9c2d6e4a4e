// Command scout runs the scouting pipeline from a terminal.
//
// Usage:
//
//	scout report --team 47351 --hours 720
//	scout report --team 47351 --gte 2025-01-01T00:00:00Z --lte 2025-02-01T00:00:00Z --debug
//	scout titles
//	scout tournaments --title 3
//	scout pick-team --hours 168 --title 6
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/config"
	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/services"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
	"github.com/yourusername/esports-scout-api/pkg/cache"
	"github.com/yourusername/esports-scout-api/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "scout",
		Short:         "GRID team scouting CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(reportCmd())
	root.AddCommand(titlesCmd())
	root.AddCommand(tournamentsCmd())
	root.AddCommand(pickTeamCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is what every subcommand needs once config has loaded.
type app struct {
	cfg    *config.Config
	client *grid.Client
	log    *zap.Logger
}

// run loads config, wires the GRID client and calls fn with a context that
// is cancelled on Ctrl-C.
func run(fn func(ctx context.Context, a *app) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := grid.NewClientFromConfig(cfg, cache.NewMemoryStore(), log)
	return fn(ctx, &app{cfg: cfg, client: client, log: log})
}

// requireKey is for subcommands that call GRID directly; report goes through
// the pipeline, which answers MISSING_API_KEY itself.
func (a *app) requireKey() error {
	if !a.cfg.HasAPIKey() {
		return fmt.Errorf("%s: GRID_API_KEY is not set", services.CodeMissingAPIKey)
	}
	return nil
}

func printJSON(v any) error {
	out, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// --------------------------------------------------------------------------
// report command
// --------------------------------------------------------------------------

func reportCmd() *cobra.Command {
	var (
		req         services.ScoutRequest
		teamID      string
		tournaments string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a scouting report for one team",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app) error {
				req.TeamID = models.FlexID(teamID)
				req.TournamentIDs = splitIDs(tournaments)

				svc := services.NewScoutServiceFromConfig(a.cfg, a.client, a.log)
				res := svc.Scout(ctx, req)
				if err := printJSON(res.Response); err != nil {
					return err
				}
				if res.Status >= 400 {
					return fmt.Errorf("scout failed with HTTP %d (%s)", res.Status, res.Response.Code)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "GRID team id (required)")
	cmd.Flags().StringVar(&req.TitleID, "title", "", "Title id used to discover tournaments")
	cmd.Flags().StringVar(&tournaments, "tournaments", "", "Comma separated tournament ids")
	cmd.Flags().IntVar(&req.Hours, "hours", 0, "Relative window size in hours")
	cmd.Flags().StringVar(&req.Direction, "direction", "past", "Window direction: past or next")
	cmd.Flags().IntVar(&req.DaysBack, "days-back", 0, "Legacy window in days when --hours is not set")
	cmd.Flags().StringVar(&req.Gte, "gte", "", "Explicit window start (ISO-8601)")
	cmd.Flags().StringVar(&req.Lte, "lte", "", "Explicit window end (ISO-8601)")
	cmd.Flags().IntVar(&req.MaxSeries, "max-series", 0, "Probe at most this many series")
	cmd.Flags().BoolVar(&req.Debug, "debug", false, "Include the debug trace")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

// --------------------------------------------------------------------------
// titles / tournaments commands
// --------------------------------------------------------------------------

func titlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "titles",
		Short: "List GRID titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app) error {
				if err := a.requireKey(); err != nil {
					return err
				}
				titles, err := a.client.ListTitles(ctx)
				if err != nil {
					return err
				}
				return printJSON(titles)
			})
		},
	}
}

func tournamentsCmd() *cobra.Command {
	var (
		titleID string
		all     bool
	)
	cmd := &cobra.Command{
		Use:   "tournaments",
		Short: "List the tournaments of a title, whitelisted unless --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app) error {
				if err := a.requireKey(); err != nil {
					return err
				}
				list, err := a.client.ListTournaments(ctx, titleID)
				if err != nil {
					return err
				}

				out := list.Tournaments
				if !all {
					whitelist := a.cfg.TournamentIDs
					if len(whitelist) == 0 {
						whitelist = grid.DefaultTournamentIDs()
					}
					if filtered := grid.FilterWhitelisted(out, whitelist); len(filtered) > 0 {
						out = filtered
					}
				}
				a.log.Info("tournaments", zap.Int("shown", len(out)), zap.Int("total", list.TotalCount))
				return printJSON(out)
			})
		},
	}
	cmd.Flags().StringVar(&titleID, "title", "", "Title id (required)")
	cmd.Flags().BoolVar(&all, "all", false, "Skip the tournament whitelist")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

// --------------------------------------------------------------------------
// pick-team command
// --------------------------------------------------------------------------

func pickTeamCmd() *cobra.Command {
	var (
		hours       int
		direction   string
		titleID     string
		tournaments string
		maxSeries   int
	)
	cmd := &cobra.Command{
		Use:   "pick-team",
		Short: "Find a team id that has in-game evidence in a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := timewindow.ParseDirection(direction)
			if err != nil {
				return err
			}
			return run(func(ctx context.Context, a *app) error {
				if err := a.requireKey(); err != nil {
					return err
				}
				ctx, cancel := context.WithTimeout(ctx, a.cfg.ScoutTimeout)
				defer cancel()

				d := services.NewDiscoverer(a.client, services.DiscoveryConfig{
					PageSize:    a.cfg.SeriesPageSize,
					MaxItems:    a.cfg.SeriesMaxItems,
					Whitelist:   a.cfg.TournamentIDs,
					TitleFanout: a.cfg.TitleFanout,
				}, a.log)
				p := services.NewEvidenceProber(a.client, a.cfg.ProbeConcurrency, a.log)

				w := timewindow.Compute(dir, hours, time.Now())
				n := services.NarrowingFor(splitIDs(tournaments), titleID)

				res, err := services.PickTeam(ctx, d, p, w, n, maxSeries)
				if err != nil {
					return err
				}
				if err := printJSON(res); err != nil {
					return err
				}
				if !res.Found {
					return fmt.Errorf("no series with evidence among %d probed (%d discovered)", res.Probed, res.Candidates)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&hours, "hours", 168, "Window size in hours")
	cmd.Flags().StringVar(&direction, "direction", "past", "Window direction: past or next")
	cmd.Flags().StringVar(&titleID, "title", "", "Title id used to discover tournaments")
	cmd.Flags().StringVar(&tournaments, "tournaments", "", "Comma separated tournament ids")
	cmd.Flags().IntVar(&maxSeries, "max-series", services.ProbeCap, "Probe at most this many series")
	return cmd
}
