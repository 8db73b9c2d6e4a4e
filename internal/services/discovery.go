package services

import (
	"context"
	"sort"

	crerr "github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/isotime"
	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
)

type NarrowingKind string

const (
	ByTournamentSet NarrowingKind = "tournaments"
	ByTitle         NarrowingKind = "title"
	ByWindowOnly    NarrowingKind = "window"
)

// Narrowing constrains series discovery beyond the time window.
type Narrowing struct {
	Kind          NarrowingKind
	TournamentIDs []string
	TitleID       string
}

// NarrowingFor picks the strategy for a request: an explicit tournament set
// wins over a title, and a title wins over the bare window.
func NarrowingFor(tournamentIDs []string, titleID string) Narrowing {
	ids := make([]string, 0, len(tournamentIDs))
	for _, id := range tournamentIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}

	switch {
	case len(ids) > 0:
		return Narrowing{Kind: ByTournamentSet, TournamentIDs: ids}
	case titleID != "":
		return Narrowing{Kind: ByTitle, TitleID: titleID}
	default:
		return Narrowing{Kind: ByWindowOnly}
	}
}

type DiscoveryConfig struct {
	PageSize int
	MaxItems int
	// Whitelist limits which of a title's tournaments ByTitle may use.
	Whitelist []string
	// TitleFanout makes ByTitle query every selected tournament instead of
	// only the first.
	TitleFanout bool
}

type DiscoveryResult struct {
	Series                []models.SeriesCandidate
	Calls                 int
	TournamentsSelected   []string
	TournamentsQueried    []string
	TournamentsTotalCount int
}

// Discoverer pages through allSeries for a window. It does not filter by team.
type Discoverer struct {
	up     Upstream
	cfg    DiscoveryConfig
	logger *zap.Logger
}

func NewDiscoverer(up Upstream, cfg DiscoveryConfig, logger *zap.Logger) *Discoverer {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 200
	}
	if len(cfg.Whitelist) == 0 {
		cfg.Whitelist = grid.DefaultTournamentIDs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{up: up, cfg: cfg, logger: logger}
}

func (d *Discoverer) Discover(ctx context.Context, w timewindow.Window, n Narrowing) (DiscoveryResult, error) {
	bounds := w.Bounds()
	gte, err := isotime.Ensure(bounds.Gte)
	if err != nil {
		return DiscoveryResult{}, err
	}
	lte, err := isotime.Ensure(bounds.Lte)
	if err != nil {
		return DiscoveryResult{}, err
	}
	filter := grid.SeriesFilter{Gte: gte, Lte: lte}

	var res DiscoveryResult
	switch n.Kind {
	case ByTournamentSet:
		filter.TournamentIDs = n.TournamentIDs
		res.TournamentsSelected = n.TournamentIDs
		res.TournamentsQueried = n.TournamentIDs
		err = d.collect(ctx, filter, &res)

	case ByTitle:
		err = d.discoverByTitle(ctx, filter, n.TitleID, &res)

	default:
		filter.TitleID = n.TitleID
		err = d.collect(ctx, filter, &res)
	}
	if err != nil {
		return res, crerr.Wrapf(err, "discover series (%s)", n.Kind)
	}

	d.logger.Debug("series discovered",
		zap.String("narrowing", string(n.Kind)),
		zap.String("gte", gte),
		zap.String("lte", lte),
		zap.Int("series", len(res.Series)),
		zap.Int("calls", res.Calls))
	return res, nil
}

func (d *Discoverer) discoverByTitle(ctx context.Context, filter grid.SeriesFilter, titleID string, res *DiscoveryResult) error {
	list, err := d.up.ListTournaments(ctx, titleID)
	res.Calls++
	if err != nil {
		return err
	}
	res.TournamentsTotalCount = list.TotalCount

	selected := grid.FilterWhitelisted(list.Tournaments, d.cfg.Whitelist)
	if len(selected) == 0 {
		selected = list.Tournaments
	}
	for _, t := range selected {
		res.TournamentsSelected = append(res.TournamentsSelected, t.ID)
	}

	if len(selected) == 0 {
		d.logger.Debug("title has no tournaments, using window only", zap.String("titleId", titleID))
		filter.TitleID = titleID
		return d.collect(ctx, filter, res)
	}

	queried := res.TournamentsSelected[:1]
	if d.cfg.TitleFanout {
		queried = res.TournamentsSelected
	}
	res.TournamentsQueried = queried

	if len(queried) == 1 {
		filter.TournamentIDs = queried
		return d.collect(ctx, filter, res)
	}

	seen := make(map[string]struct{})
	var merged []models.SeriesCandidate
	for _, id := range queried {
		filter.TournamentIDs = []string{id}
		var part DiscoveryResult
		err := d.collect(ctx, filter, &part)
		res.Calls += part.Calls
		if err != nil {
			return err
		}
		for _, s := range part.Series {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			merged = append(merged, s)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].ScheduledStart().Before(merged[j].ScheduledStart())
	})
	if len(merged) > d.cfg.MaxItems {
		merged = merged[:d.cfg.MaxItems]
	}
	res.Series = merged
	return nil
}

// collect follows the cursor until the upstream runs dry, a short page comes
// back, or MaxItems is reached.
func (d *Discoverer) collect(ctx context.Context, filter grid.SeriesFilter, res *DiscoveryResult) error {
	after := ""
	for {
		page, err := d.up.ListSeriesPage(ctx, grid.SeriesPageRequest{
			Filter: filter,
			First:  d.cfg.PageSize,
			After:  after,
		})
		res.Calls++
		if err != nil {
			return err
		}

		res.Series = append(res.Series, page.Series...)
		if len(res.Series) >= d.cfg.MaxItems {
			res.Series = res.Series[:d.cfg.MaxItems]
			return nil
		}
		if !page.HasNextPage || len(page.Series) < d.cfg.PageSize || page.EndCursor == "" || page.EndCursor == after {
			return nil
		}
		after = page.EndCursor
	}
}

// FilterByTeam keeps series with at least one team whose id equals teamID.
// Order is preserved and each series id appears at most once.
func FilterByTeam(candidates []models.SeriesCandidate, teamID string) []models.SeriesCandidate {
	out := make([]models.SeriesCandidate, 0)
	seen := make(map[string]struct{})

	for _, c := range candidates {
		if !hasTeam(c, teamID) {
			continue
		}
		if c.ID != "" {
			if _, dup := seen[c.ID]; dup {
				continue
			}
			seen[c.ID] = struct{}{}
		}
		out = append(out, c)
	}
	return out
}

func hasTeam(c models.SeriesCandidate, teamID string) bool {
	for _, ref := range c.Teams {
		if id := ref.ExtractID(); id != "" && id == teamID {
			return true
		}
	}
	return false
}
