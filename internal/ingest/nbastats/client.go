package nbastats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fortuna/janus/internal/cache"
	"github.com/fortuna/janus/internal/gamelog"
)

const (
	BaseURL   = "https://stats.nba.com"
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	leagueGameLogPath = "/stats/leaguegamelog"
	cacheKeyPrefix    = "janus:leaguegamelog"
)

// ResponseCache stores raw upstream bodies. cache.RedisCache satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Config controls the client's transport behaviour.
type Config struct {
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	MaxRetries        int
	RetryDelay        time.Duration
	CacheTTL          time.Duration
}

// DefaultConfig returns settings that stay well under the endpoint's throttling.
func DefaultConfig() Config {
	return Config{
		BaseURL:           BaseURL,
		RequestTimeout:    30 * time.Second,
		RequestsPerSecond: 0.5,
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
		CacheTTL:          6 * time.Hour,
	}
}

// Client fetches team game logs from stats.nba.com.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      ResponseCache
	logger     logrus.FieldLogger
}

// statusError marks responses that are worth retrying.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// NewClient creates a client. cache may be nil.
func NewClient(config Config, cache ResponseCache, logger logrus.FieldLogger) *Client {
	defaults := DefaultConfig()
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		cache:      cache,
		logger:     logger.WithField("component", "nbastats"),
	}
}

// FetchTeamGameLog returns every team-game row for a season and season type.
// Only bodies that parse are written to the cache.
func (c *Client) FetchTeamGameLog(ctx context.Context, season, seasonType string) (*gamelog.TeamGameLog, error) {
	c.logger.WithFields(logrus.Fields{
		"season":      season,
		"season_type": seasonType,
	}).Info("Fetching NBA game logs")

	key := CacheKey(season, seasonType)
	teamLog, ok := c.cachedGameLog(ctx, key)
	if !ok {
		body, err := c.fetchWithRetry(ctx, c.leagueGameLogURL(season, seasonType))
		if err != nil {
			return nil, fmt.Errorf("fetch league game log: %w", err)
		}

		teamLog, err = ParseLeagueGameLog(body)
		if err != nil {
			return nil, fmt.Errorf("parse league game log: %w", err)
		}
		c.store(ctx, key, body)
	}
	teamLog.Season = season
	teamLog.SeasonType = seasonType

	c.logger.WithField("rows", len(teamLog.Rows)).Infof("Retrieved %d team-game rows", len(teamLog.Rows))
	return teamLog, nil
}

// cachedGameLog returns the parsed cached body for key. A cached body that no
// longer parses is evicted and treated as a miss.
func (c *Client) cachedGameLog(ctx context.Context, key string) (*gamelog.TeamGameLog, bool) {
	if c.cache == nil {
		return nil, false
	}
	val, err := c.cache.Get(ctx, key)
	if err != nil {
		if !cache.IsMiss(err) {
			c.logger.WithError(err).WithField("key", key).Warn("Cache lookup failed")
		}
		return nil, false
	}

	teamLog, err := ParseLeagueGameLog([]byte(val))
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Evicting unparseable cached league game log")
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to evict cached league game log")
		}
		return nil, false
	}

	c.logger.WithField("key", key).Info("Using cached league game log")
	return teamLog, true
}

func (c *Client) store(ctx context.Context, key string, body []byte) {
	if c.cache == nil || c.config.CacheTTL <= 0 {
		return
	}
	if err := c.cache.Set(ctx, key, string(body), c.config.CacheTTL); err != nil {
		c.logger.WithError(err).Warn("Failed to cache league game log")
	}
}

func (c *Client) leagueGameLogURL(season, seasonType string) string {
	q := url.Values{}
	q.Set("Counter", "0")
	q.Set("DateFrom", "")
	q.Set("DateTo", "")
	q.Set("Direction", "ASC")
	q.Set("LeagueID", "00")
	q.Set("PlayerOrTeam", "T")
	q.Set("Season", season)
	q.Set("SeasonType", seasonType)
	q.Set("Sorter", "DATE")
	return strings.TrimRight(c.config.BaseURL, "/") + leagueGameLogPath + "?" + q.Encode()
}

// fetchWithRetry retries transport errors, 429 and 5xx responses.
func (c *Client) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		body, err := c.fetch(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.logger.WithError(err).Warnf("Request attempt %d/%d failed", attempt, c.config.MaxRetries)
		if attempt < c.config.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", c.config.MaxRetries, lastErr)
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, body: snippet(body)}
	}
	return body, nil
}

// CacheKey is the cache entry for a season's raw league game log.
func CacheKey(season, seasonType string) string {
	st := strings.ReplaceAll(strings.ToLower(seasonType), " ", "_")
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, season, st)
}
