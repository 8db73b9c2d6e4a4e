package services

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/grid"
	"github.com/yourusername/esports-scout-api/internal/models"
)

// ProbeCap bounds how many series are probed per request.
const ProbeCap = 10

type ProbeResult struct {
	// Probed is the batch actually probed, most recent first.
	Probed  []models.SeriesCandidate
	Records []models.EvidenceRecord
	// Manifests holds each probed series' file list, keyed by series id.
	Manifests       map[string][]models.FileEntry
	SeriesWithFiles int
	SeriesWithState int
}

// EvidenceProber checks the file-download manifest and the series-state
// endpoint for each candidate. Probe failures never fail the batch.
type EvidenceProber struct {
	up          Upstream
	concurrency int
	logger      *zap.Logger
}

func NewEvidenceProber(up Upstream, concurrency int, logger *zap.Logger) *EvidenceProber {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceProber{up: up, concurrency: concurrency, logger: logger}
}

// Probe sorts candidates by scheduled start, newest first, keeps at most
// maxSeries (when positive) and then at most ProbeCap, and probes them.
func (p *EvidenceProber) Probe(ctx context.Context, candidates []models.SeriesCandidate, maxSeries int) ProbeResult {
	batch := MostRecent(candidates, maxSeries)

	records := make([]models.EvidenceRecord, len(batch))
	manifests := make([][]models.FileEntry, len(batch))

	workers := pool.New().WithMaxGoroutines(p.concurrency)
	for i, series := range batch {
		workers.Go(func() {
			records[i], manifests[i] = p.probeOne(ctx, series.ID)
		})
	}
	workers.Wait()

	res := ProbeResult{
		Probed:    batch,
		Records:   records,
		Manifests: make(map[string][]models.FileEntry, len(batch)),
	}
	for i, rec := range records {
		res.Manifests[rec.SeriesID] = manifests[i]
		if rec.HasFiles {
			res.SeriesWithFiles++
		}
		if rec.HasState {
			res.SeriesWithState++
		}
	}
	return res
}

func (p *EvidenceProber) probeOne(ctx context.Context, seriesID string) (models.EvidenceRecord, []models.FileEntry) {
	rec := models.EvidenceRecord{SeriesID: seriesID, FileTypesAvailable: []string{}}
	var files []models.FileEntry

	var wg conc.WaitGroup
	wg.Go(func() {
		list, err := p.up.ListFiles(ctx, seriesID)
		if err != nil {
			p.logger.Debug("file probe failed", zap.String("seriesId", seriesID), zap.Error(err))
			return
		}
		if len(list) > 0 {
			files = list
			rec.HasFiles = true
			rec.FileTypesAvailable = grid.FileTypes(list)
		}
	})
	wg.Go(func() {
		state, err := p.up.GetSeriesState(ctx, seriesID)
		if err != nil {
			p.logger.Debug("state probe failed", zap.String("seriesId", seriesID), zap.Error(err))
			return
		}
		rec.HasState = state != nil
	})
	wg.Wait()

	return rec, files
}

// MostRecent returns a copy of candidates ordered newest first, truncated to
// maxSeries (when positive) and then to ProbeCap.
func MostRecent(candidates []models.SeriesCandidate, maxSeries int) []models.SeriesCandidate {
	sorted := make([]models.SeriesCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScheduledStart().After(sorted[j].ScheduledStart())
	})

	if maxSeries > 0 && len(sorted) > maxSeries {
		sorted = sorted[:maxSeries]
	}
	if len(sorted) > ProbeCap {
		sorted = sorted[:ProbeCap]
	}
	return sorted
}
