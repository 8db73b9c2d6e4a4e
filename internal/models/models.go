package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// FlexID is an identifier GRID sometimes sends as a JSON number and sometimes
// as a string. It is always held and compared as a string.
type FlexID string

func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = FlexID(strconv.FormatInt(i, 10))
		return nil
	}
	// 123.0 and 1e3 are whole numbers too; keep them comparable with 123 and 1000.
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
		*id = FlexID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = FlexID(n.String())
	return nil
}

func (id FlexID) String() string { return string(id) }

type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TeamBase struct {
	ID   FlexID `json:"id"`
	Name string `json:"name"`
}

// TeamRef is a team entry inside a series. GRID nests the identity under
// baseInfo, but some payloads carry id/name at the top level.
type TeamRef struct {
	BaseInfo *TeamBase `json:"baseInfo,omitempty"`
	ID       FlexID    `json:"id,omitempty"`
	Name     string    `json:"name,omitempty"`
}

// ExtractID returns baseInfo.id, falling back to the flat id.
func (r TeamRef) ExtractID() string {
	if r.BaseInfo != nil && r.BaseInfo.ID != "" {
		return r.BaseInfo.ID.String()
	}
	return r.ID.String()
}

func (r TeamRef) DisplayName() string {
	if r.BaseInfo != nil && r.BaseInfo.Name != "" {
		return r.BaseInfo.Name
	}
	return r.Name
}

type Tournament struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Title struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SeriesCandidate struct {
	ID                 string     `json:"id"`
	StartTimeScheduled string     `json:"startTimeScheduled"`
	Tournament         Tournament `json:"tournament"`
	Teams              []TeamRef  `json:"teams"`
}

// ScheduledStart parses StartTimeScheduled. Unparseable values sort as the zero time.
func (s SeriesCandidate) ScheduledStart() time.Time {
	t, err := time.Parse(time.RFC3339Nano, s.StartTimeScheduled)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FileEntry is one row of the file-download manifest.
type FileEntry struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description"`
	FileName    string `json:"fileName"`
	FullURL     string `json:"fullURL"`
}

type EvidenceRecord struct {
	SeriesID           string   `json:"seriesId"`
	HasFiles           bool     `json:"hasFiles"`
	FileTypesAvailable []string `json:"fileTypesAvailable"`
	HasState           bool     `json:"hasState"`
}

// MatchFile is a downloaded and parsed match JSON blob for one series.
type MatchFile struct {
	SeriesID string         `json:"seriesId"`
	FileName string         `json:"fileName"`
	Data     map[string]any `json:"-"`
}

type WindowBounds struct {
	Gte string `json:"gte"`
	Lte string `json:"lte"`
}

// Per-team totals pulled out of a match file.
type SeriesStats struct {
	SeriesID    string  `json:"seriesId"`
	TeamID      string  `json:"teamId"`
	TeamName    string  `json:"teamName"`
	GamesPlayed int     `json:"gamesPlayed"`
	Wins        int     `json:"wins"`
	Won         bool    `json:"won"`
	Kills       int     `json:"kills"`
	Deaths      int     `json:"deaths"`
	Assists     int     `json:"assists"`
	KDRatio     float64 `json:"kdRatio"`
}

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

type Champion struct {
	Name      string  `json:"name"`
	WinRate   float64 `json:"winRate"`
	Frequency float64 `json:"frequency"`
}

type Player struct {
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Champions []Champion `json:"champions"`
}

type Tendency struct {
	Title      string          `json:"title"`
	Evidence   string          `json:"evidence"`
	Confidence ConfidenceLevel `json:"confidence"`
}

type Composition struct {
	Comp        string  `json:"comp"`
	Frequency   float64 `json:"frequency"`
	Description string  `json:"description"`
}

type EvidenceItem struct {
	Metric     string `json:"metric"`
	Value      string `json:"value"`
	SampleSize string `json:"sampleSize"`
}

type ScoutReport struct {
	TeamName     string         `json:"teamName"`
	Region       string         `json:"region"`
	LastUpdated  string         `json:"lastUpdated"`
	SampleSize   int            `json:"sampleSize"`
	DateRange    string         `json:"dateRange"`
	Tendencies   []Tendency     `json:"tendencies"`
	Players      []Player       `json:"players"`
	Compositions []Composition  `json:"compositions"`
	Evidence     []EvidenceItem `json:"evidence"`
}

type DownloadFailure struct {
	SeriesID string `json:"seriesId"`
	Reason   string `json:"reason"`
}

// DebugTrace is attached to a scout response only when the caller asks for it.
type DebugTrace struct {
	RequestID                     string        `json:"requestId"`
	TeamIDUsed                    string        `json:"teamIdUsed"`
	Narrowing                     string        `json:"narrowing,omitempty"`
	TournamentsSelected           []string      `json:"tournamentsSelected,omitempty"`
	TournamentsQueried            []string      `json:"tournamentsQueried,omitempty"`
	TournamentsTotalCount         int           `json:"tournamentsTotalCount,omitempty"`
	TimeWindow                    WindowBounds  `json:"timeWindow"`
	TimeWindowAfterWiden          *WindowBounds `json:"timeWindowAfterWiden,omitempty"`
	WidenWindowAttempted          bool          `json:"widenWindowAttempted"`
	DiscoveryCalls                int           `json:"discoveryCalls"`
	SeriesFetchedBeforeTeamFilter int           `json:"seriesFetchedBeforeTeamFilter"`
	SeriesAfterTeamFilter         int           `json:"seriesAfterTeamFilter"`
	// Stage counts of the first pass, set only when the window was widened.
	SeriesFetchedBeforeWiden         *int              `json:"seriesFetchedBeforeWiden,omitempty"`
	SeriesAfterTeamFilterBeforeWiden *int              `json:"seriesAfterTeamFilterBeforeWiden,omitempty"`
	SampleSeriesIDs                  []string          `json:"sampleSeriesIds,omitempty"`
	SeriesProbed                     int               `json:"seriesProbed"`
	SeriesWithFilesCount             int               `json:"seriesWithFilesCount"`
	SeriesWithStateCount             int               `json:"seriesWithStateCount"`
	Evidence                         []EvidenceRecord  `json:"evidence,omitempty"`
	FilesDownloaded                  int               `json:"filesDownloaded"`
	FilesParsed                      int               `json:"filesParsed"`
	DownloadFailures                 []DownloadFailure `json:"downloadFailures,omitempty"`
}

type ScoutResponse struct {
	Success bool         `json:"success"`
	Code    string       `json:"code,omitempty"`
	Reason  string       `json:"reason,omitempty"`
	Message string       `json:"message,omitempty"`
	Error   string       `json:"error,omitempty"`
	Source  string       `json:"source,omitempty"`
	Data    *ScoutReport `json:"data,omitempty"`
	Debug   *DebugTrace  `json:"debug,omitempty"`
}
