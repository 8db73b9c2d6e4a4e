package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/config"
	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/isotime"
	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
)

const (
	sourceGRID         = "GRID"
	sampleSeriesIDsCap = 5

	// Ten years either way; larger spans overflow time.Duration.
	maxHours    = 24 * 365 * 10
	maxDaysBack = 365 * 10
)

type ScoutConfig struct {
	HasAPIKey        bool
	Timeout          time.Duration
	DefaultDaysBack  int
	ProbeConcurrency int
	Discovery        DiscoveryConfig
}

// ScoutRequest is the caller-facing input. Only TeamID is required. An hours
// window takes precedence over DaysBack; explicit Gte/Lte bounds take
// precedence over both.
type ScoutRequest struct {
	TeamID        models.FlexID `json:"teamId"`
	TitleID       string        `json:"titleId,omitempty"`
	TournamentIDs []string      `json:"tournamentIds,omitempty"`
	Hours         int           `json:"hours,omitempty"`
	Direction     string        `json:"direction,omitempty"`
	DaysBack      int           `json:"daysBack,omitempty"`
	Gte           string        `json:"gte,omitempty"`
	Lte           string        `json:"lte,omitempty"`
	MaxSeries     int           `json:"maxSeries,omitempty"`
	Debug         bool          `json:"debug,omitempty"`
}

type ScoutResult struct {
	Status    int
	RequestID string
	Response  models.ScoutResponse
}

// ScoutService runs the whole pipeline for one request: resolve the team,
// discover and filter series (widening once if allowed), probe evidence,
// download match files and summarize them.
type ScoutService struct {
	up         Upstream
	cfg        ScoutConfig
	discoverer *Discoverer
	prober     *EvidenceProber
	summarizer Summarizer
	now        func() time.Time
	logger     *zap.Logger
}

func NewScoutService(up Upstream, cfg ScoutConfig, summarizer Summarizer, logger *zap.Logger) *ScoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.DefaultDaysBack <= 0 {
		cfg.DefaultDaysBack = 730
	}
	if summarizer == nil {
		summarizer = NewReportService(logger)
	}

	return &ScoutService{
		up:         up,
		cfg:        cfg,
		discoverer: NewDiscoverer(up, cfg.Discovery, logger),
		prober:     NewEvidenceProber(up, cfg.ProbeConcurrency, logger),
		summarizer: summarizer,
		now:        time.Now,
		logger:     logger,
	}
}

func NewScoutServiceFromConfig(cfg *config.Config, up Upstream, logger *zap.Logger) *ScoutService {
	return NewScoutService(up, ScoutConfig{
		HasAPIKey:        cfg.HasAPIKey(),
		Timeout:          cfg.ScoutTimeout,
		DefaultDaysBack:  cfg.DefaultDaysBack,
		ProbeConcurrency: cfg.ProbeConcurrency,
		Discovery: DiscoveryConfig{
			PageSize:    cfg.SeriesPageSize,
			MaxItems:    cfg.SeriesMaxItems,
			Whitelist:   cfg.TournamentIDs,
			TitleFanout: cfg.TitleFanout,
		},
	}, NewReportService(logger), logger)
}

// run carries the per-request state threaded through the pipeline stages.
type run struct {
	req    ScoutRequest
	teamID string
	trace  *models.DebugTrace
	logger *zap.Logger
}

type requestIDKey struct{}

// WithRequestID makes Scout reuse id instead of minting its own.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

func (s *ScoutService) Scout(ctx context.Context, req ScoutRequest) *ScoutResult {
	requestID := requestIDFrom(ctx)
	r := &run{
		req:    req,
		teamID: strings.TrimSpace(req.TeamID.String()),
		trace:  &models.DebugTrace{RequestID: requestID},
		logger: s.logger.With(zap.String("requestId", requestID)),
	}
	r.trace.TeamIDUsed = r.teamID

	if !s.cfg.HasAPIKey {
		return s.fail(r, grid.ErrMissingCredentials)
	}

	plan, err := s.plan(req)
	if err != nil {
		return s.fail(r, err)
	}
	r.trace.TimeWindow = plan.Window.Bounds()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	res := s.execute(ctx, r, plan)
	r.logger.Info("scout request finished",
		zap.String("teamId", r.teamID),
		zap.Int("status", res.Status),
		zap.String("code", res.Response.Code),
		zap.Duration("took", time.Since(start)))
	return res
}

// plan validates the request and picks the discovery window.
func (s *ScoutService) plan(req ScoutRequest) (WidenPlan, error) {
	if strings.TrimSpace(req.TeamID.String()) == "" {
		return WidenPlan{}, &ValidationError{Field: "teamId", Message: "teamId is required"}
	}
	if req.Hours < 0 || req.Hours > maxHours {
		return WidenPlan{}, &ValidationError{Field: "hours", Message: fmt.Sprintf("must be between 0 and %d", maxHours)}
	}
	if req.DaysBack < 0 || req.DaysBack > maxDaysBack {
		return WidenPlan{}, &ValidationError{Field: "daysBack", Message: fmt.Sprintf("must be between 0 and %d", maxDaysBack)}
	}
	if req.MaxSeries < 0 {
		return WidenPlan{}, &ValidationError{Field: "maxSeries", Message: "must be positive"}
	}
	dir, err := timewindow.ParseDirection(req.Direction)
	if err != nil {
		return WidenPlan{}, &ValidationError{Field: "direction", Message: err.Error()}
	}

	now := s.now()
	switch {
	case req.Gte != "" || req.Lte != "":
		if req.Gte == "" || req.Lte == "" {
			return WidenPlan{}, &ValidationError{Field: "gte", Message: "gte and lte must be supplied together"}
		}
		gte, err := isotime.Parse(req.Gte)
		if err != nil {
			return WidenPlan{}, err
		}
		lte, err := isotime.Parse(req.Lte)
		if err != nil {
			return WidenPlan{}, err
		}
		if gte.After(lte) {
			return WidenPlan{}, &ValidationError{Field: "gte", Message: "gte must not be after lte"}
		}
		return WidenPlan{Window: timewindow.Window{Gte: gte, Lte: lte}, Direction: dir}, nil

	case req.Hours > 0:
		return WidenPlan{
			Window:     timewindow.Compute(dir, req.Hours, now),
			Direction:  dir,
			AllowWiden: true,
			ExtraHours: timewindow.WidenHours,
		}, nil

	default:
		days := req.DaysBack
		if days == 0 {
			days = s.cfg.DefaultDaysBack
		}
		return WidenPlan{Window: timewindow.DaysBack(days, now), Direction: timewindow.Past}, nil
	}
}

func (s *ScoutService) execute(ctx context.Context, r *run, plan WidenPlan) *ScoutResult {
	team, err := ResolveTeam(ctx, s.up, r.teamID)
	if err != nil {
		return s.fail(r, abortCause(ctx, err))
	}

	narrowing := NarrowingFor(r.req.TournamentIDs, r.req.TitleID)
	r.trace.Narrowing = string(narrowing.Kind)

	passes := 0
	discover := func(ctx context.Context, w timewindow.Window) ([]models.SeriesCandidate, error) {
		if passes++; passes > 1 {
			fetched, kept := r.trace.SeriesFetchedBeforeTeamFilter, r.trace.SeriesAfterTeamFilter
			r.trace.SeriesFetchedBeforeWiden = &fetched
			r.trace.SeriesAfterTeamFilterBeforeWiden = &kept
		}
		found, err := s.discoverer.Discover(ctx, w, narrowing)
		r.trace.DiscoveryCalls += found.Calls
		if err != nil {
			return nil, err
		}
		r.trace.TournamentsSelected = found.TournamentsSelected
		r.trace.TournamentsQueried = found.TournamentsQueried
		r.trace.TournamentsTotalCount = found.TournamentsTotalCount
		r.trace.SeriesFetchedBeforeTeamFilter = len(found.Series)

		filtered := FilterByTeam(found.Series, r.teamID)
		r.trace.SeriesAfterTeamFilter = len(filtered)
		return filtered, nil
	}

	widened, err := NewWideningController(r.logger).Run(ctx, plan, discover)
	r.trace.WidenWindowAttempted = widened.Attempted
	if widened.Widened != nil {
		b := widened.Widened.Bounds()
		r.trace.TimeWindowAfterWiden = &b
	}
	if err != nil {
		return s.fail(r, abortCause(ctx, err))
	}
	r.trace.SampleSeriesIDs = sampleIDs(widened.Series)

	facts := Facts{TeamResolved: true, Candidates: len(widened.Series)}
	if facts.Candidates == 0 {
		return s.finish(r, Classify(facts), emptyReport(team, widened.Final, s.now()))
	}

	probe := s.prober.Probe(ctx, widened.Series, r.req.MaxSeries)
	if ctx.Err() != nil {
		return s.fail(r, ctx.Err())
	}
	r.trace.SeriesProbed = len(probe.Probed)
	r.trace.SeriesWithFilesCount = probe.SeriesWithFiles
	r.trace.SeriesWithStateCount = probe.SeriesWithState
	r.trace.Evidence = probe.Records

	facts.SeriesWithFiles = probe.SeriesWithFiles
	facts.SeriesWithState = probe.SeriesWithState
	if facts.SeriesWithFiles == 0 && facts.SeriesWithState == 0 {
		return s.finish(r, Classify(facts), emptyReport(team, widened.Final, s.now()))
	}

	files := s.download(ctx, r, probe)
	if ctx.Err() != nil {
		return s.fail(r, ctx.Err())
	}
	facts.FilesParsed = len(files)

	outcome := Classify(facts)
	if facts.FilesParsed == 0 {
		return s.finish(r, outcome, emptyReport(team, widened.Final, s.now()))
	}

	report := s.summarizer.Summarize(team, files, widened.Final)
	return s.finish(r, outcome, &report)
}

type downloadAttempt struct {
	file    models.MatchFile
	fetched bool
	failure string
}

// download fetches one match file per probed series that has files, keeping
// the newest-first order of the probe batch. Failures are recorded, not
// returned.
func (s *ScoutService) download(ctx context.Context, r *run, probe ProbeResult) []models.MatchFile {
	attempts := make([]downloadAttempt, len(probe.Records))

	workers := pool.New().WithMaxGoroutines(max(s.cfg.ProbeConcurrency, 1))
	for i, rec := range probe.Records {
		if !rec.HasFiles {
			continue
		}
		workers.Go(func() {
			attempts[i] = s.fetchMatchFile(ctx, rec.SeriesID, probe.Manifests[rec.SeriesID])
		})
	}
	workers.Wait()

	var files []models.MatchFile
	for i, a := range attempts {
		if a.fetched {
			r.trace.FilesDownloaded++
		}
		if a.failure != "" {
			seriesID := probe.Records[i].SeriesID
			r.trace.DownloadFailures = append(r.trace.DownloadFailures, models.DownloadFailure{SeriesID: seriesID, Reason: a.failure})
			r.logger.Warn("match file download failed", zap.String("seriesId", seriesID), zap.String("reason", a.failure))
			continue
		}
		if a.file.Data != nil {
			files = append(files, a.file)
		}
	}
	r.trace.FilesParsed = len(files)
	return files
}

func (s *ScoutService) fetchMatchFile(ctx context.Context, seriesID string, manifest []models.FileEntry) downloadAttempt {
	entry, ok := grid.PickMatchFile(manifest)
	if !ok {
		return downloadAttempt{failure: "NO_MATCH_FILE"}
	}
	if entry.FullURL == "" {
		return downloadAttempt{failure: "NO_DOWNLOAD_URL"}
	}

	data, err := s.up.DownloadFile(ctx, entry.FullURL)
	switch {
	case err == nil:
		return downloadAttempt{
			file:    models.MatchFile{SeriesID: seriesID, FileName: entry.FileName, Data: data},
			fetched: true,
		}
	case crerr.Is(err, grid.ErrInvalidJSON):
		return downloadAttempt{fetched: true, failure: "JSON_PARSE_FAILED"}
	default:
		return downloadAttempt{failure: err.Error()}
	}
}

func (s *ScoutService) finish(r *run, o Outcome, report *models.ScoutReport) *ScoutResult {
	resp := models.ScoutResponse{
		Success: o.Success,
		Code:    o.Code,
		Reason:  o.Reason,
		Source:  sourceGRID,
		Data:    report,
	}
	if o.Success {
		resp.Message = o.Message
	} else {
		resp.Error = o.Message
	}
	if r.req.Debug {
		resp.Debug = r.trace
	}
	return &ScoutResult{Status: o.Status, RequestID: r.trace.RequestID, Response: resp}
}

func (s *ScoutService) fail(r *run, err error) *ScoutResult {
	o := ClassifyError(err)

	switch o.Code {
	case CodeTeamIDRequired, CodeInvalidRequest, CodeInvalidTimestamp, CodeMissingAPIKey:
		r.logger.Info("scout request rejected", zap.String("code", o.Code), zap.Error(err))
		res := s.finish(r, o, nil)
		res.Response.Source = ""
		return res
	case CodeTeamNotFound:
		r.logger.Info("team not found", zap.String("teamId", r.teamID))
		return s.finish(r, o, nil)
	case CodeTimeout, CodeCancelled:
		if o.Code == CodeTimeout {
			r.logger.Error("scout pipeline timed out", zap.String("teamId", r.teamID), zap.Error(err))
		} else {
			r.logger.Warn("scout request cancelled by caller", zap.String("teamId", r.teamID))
		}
		res := s.finish(r, o, nil)
		res.Response.Debug = nil
		return res
	default:
		r.logger.Error("upstream call failed", zap.String("teamId", r.teamID), zap.String("code", o.Code), zap.Error(err))
		return s.finish(r, o, nil)
	}
}

// abortCause prefers the context's own error once the run has been cut
// short, so per-call failures do not mask a deadline or a cancellation.
func abortCause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func emptyReport(team models.Team, w timewindow.Window, now time.Time) *models.ScoutReport {
	return &models.ScoutReport{
		TeamName:     team.Name,
		Region:       "Unknown",
		LastUpdated:  isotime.Format(now),
		SampleSize:   0,
		DateRange:    w.DateRange(),
		Tendencies:   []models.Tendency{},
		Players:      []models.Player{},
		Compositions: []models.Composition{},
		Evidence:     []models.EvidenceItem{},
	}
}

func sampleIDs(series []models.SeriesCandidate) []string {
	n := min(len(series), sampleSeriesIDsCap)
	ids := make([]string, 0, n)
	for _, s := range series[:n] {
		ids = append(ids, s.ID)
	}
	return ids
}
