package grid

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	"github.com/yourusername/esports-scout-api/internal/config"
	"github.com/yourusername/esports-scout-api/pkg/cache"
)

const introspectionTTL = 10 * time.Minute

type ClientConfig struct {
	APIKey          string
	CentralURL      string
	SeriesStateURLs []string
	FileDownloadURL string
	HTTPClient      *http.Client
	Timeout         time.Duration
	Cache           cache.Store
	Logger          *zap.Logger
}

type stateEndpoint struct {
	url string
	gql *graphql.Client
}

// Client talks to the three GRID surfaces: central-data GraphQL,
// series-state GraphQL and the file-download REST API.
type Client struct {
	central         *graphql.Client
	states          []stateEndpoint
	httpClient      *http.Client
	apiKey          string
	fileDownloadURL string
	cache           cache.Store
	logger          *zap.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if hc.Timeout <= 0 {
		hc.Timeout = 10 * time.Second
	}
	hc = withStatusTransport(hc)

	centralURL := strings.TrimSpace(cfg.CentralURL)
	if centralURL == "" {
		centralURL = config.DefaultCentralURL
	}
	stateURLs := cfg.SeriesStateURLs
	if len(stateURLs) == 0 {
		stateURLs = []string{config.DefaultSeriesStateURL}
	}
	fileURL := strings.TrimRight(strings.TrimSpace(cfg.FileDownloadURL), "/")
	if fileURL == "" {
		fileURL = config.DefaultFileDownloadURL
	}

	store := cfg.Cache
	if store == nil {
		store = cache.NewMemoryStore()
	}

	states := make([]stateEndpoint, 0, len(stateURLs))
	for _, u := range stateURLs {
		states = append(states, stateEndpoint{url: u, gql: graphql.NewClient(u, graphql.WithHTTPClient(hc))})
	}

	return &Client{
		central:         graphql.NewClient(centralURL, graphql.WithHTTPClient(hc)),
		states:          states,
		httpClient:      hc,
		apiKey:          cfg.APIKey,
		fileDownloadURL: fileURL,
		cache:           store,
		logger:          logger,
	}
}

// NewClientFromConfig wires a client from the process configuration.
func NewClientFromConfig(cfg *config.Config, store cache.Store, logger *zap.Logger) *Client {
	return NewClient(ClientConfig{
		APIKey:          cfg.GridAPIKey,
		CentralURL:      cfg.GridCentralURL,
		SeriesStateURLs: cfg.SeriesStateURLs(),
		FileDownloadURL: cfg.GridFileDownloadURL,
		Timeout:         cfg.UpstreamTimeout,
		Cache:           store,
		Logger:          logger,
	})
}

func (c *Client) newRequest(query string) *graphql.Request {
	req := graphql.NewRequest(query)
	req.Header.Set("X-API-Key", c.apiKey)
	return req
}

func (c *Client) runCentral(ctx context.Context, op string, req *graphql.Request, resp interface{}) error {
	start := time.Now()
	err := c.central.Run(ctx, req, resp)
	if err != nil {
		err = classify(op, err)
		c.logger.Debug("central-data call failed",
			zap.String("op", op),
			zap.Duration("took", time.Since(start)),
			zap.Error(err))
		return err
	}
	c.logger.Debug("central-data call", zap.String("op", op), zap.Duration("took", time.Since(start)))
	return nil
}

// HealthCheck runs a tiny team search; it doubles as a credentials check.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.SearchTeams(ctx, "Cloud9", 5)
	if err != nil {
		c.logger.Warn("GRID health check failed", zap.Error(err))
	}
	return err
}
