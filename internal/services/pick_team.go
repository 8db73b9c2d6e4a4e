package services

import (
	"context"

	"github.com/yourusername/esports-scout-api/internal/models"
	"github.com/yourusername/esports-scout-api/internal/timewindow"
)

// Probe statuses used in PickResult.Distribution.
const (
	ProbeBoth      = "files+state"
	ProbeFilesOnly = "files"
	ProbeStateOnly = "state"
	ProbeNone      = "none"
)

type PickResult struct {
	Team     models.Team `json:"team"`
	SeriesID string      `json:"seriesId,omitempty"`
	Found    bool        `json:"found"`
	// Candidates is the number of discovered series, before the probe cap.
	Candidates   int            `json:"candidates"`
	Probed       int            `json:"probed"`
	Distribution map[string]int `json:"distribution"`
}

// PickTeam discovers series in w without a team filter, probes the most
// recent ones and returns the first team of the newest series that has any
// evidence. Useful for finding a team id that will produce a report.
func PickTeam(ctx context.Context, d *Discoverer, p *EvidenceProber, w timewindow.Window, n Narrowing, maxSeries int) (PickResult, error) {
	found, err := d.Discover(ctx, w, n)
	if err != nil {
		return PickResult{}, err
	}

	res := PickResult{
		Candidates:   len(found.Series),
		Distribution: map[string]int{},
	}
	if len(found.Series) == 0 {
		return res, nil
	}

	probe := p.Probe(ctx, found.Series, maxSeries)
	res.Probed = len(probe.Records)

	byID := make(map[string]models.SeriesCandidate, len(probe.Probed))
	for _, c := range probe.Probed {
		byID[c.ID] = c
	}

	for _, rec := range probe.Records {
		res.Distribution[probeStatus(rec)]++
		if res.Found || (!rec.HasFiles && !rec.HasState) {
			continue
		}
		for _, ref := range byID[rec.SeriesID].Teams {
			if id := ref.ExtractID(); id != "" {
				res.Team = models.Team{ID: id, Name: ref.DisplayName()}
				res.SeriesID = rec.SeriesID
				res.Found = true
				break
			}
		}
	}
	return res, nil
}

func probeStatus(rec models.EvidenceRecord) string {
	switch {
	case rec.HasFiles && rec.HasState:
		return ProbeBoth
	case rec.HasFiles:
		return ProbeFilesOnly
	case rec.HasState:
		return ProbeStateOnly
	default:
		return ProbeNone
	}
}
