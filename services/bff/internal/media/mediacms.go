package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured    = errors.New("mediacms: base url not configured")
	ErrNoToken          = errors.New("mediacms: no media token in url")
	ErrMediaNotFound    = errors.New("mediacms: media not found")
	ErrNoPlayableSource = errors.New("mediacms: no playable source")
)

// ClientConfig holds configurable settings for the MediaCMS client.
type ClientConfig struct {
	APIToken       string
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// MediaCMSResolver resolves MediaCMS page URLs through the MediaCMS REST API
// of one explicitly configured instance.
type MediaCMSResolver struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
	Config     ClientConfig
	CB         *gobreaker.CircuitBreaker
	Log        *zap.Logger
}

// Option configures the resolver.
type Option func(*MediaCMSResolver)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(r *MediaCMSResolver) { r.CB = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(r *MediaCMSResolver) { r.Log = log }
}

func WithHTTPClient(c *http.Client) Option {
	return func(r *MediaCMSResolver) { r.HTTPClient = c }
}

func NewMediaCMSResolver(baseURL string, cfg ClientConfig, opts ...Option) (*MediaCMSResolver, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("mediacms: invalid base url %q", baseURL)
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 250 * time.Millisecond
	}
	r := &MediaCMSResolver{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Config:     cfg,
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// NewBreaker builds the circuit breaker used for MediaCMS calls. Missing
// media does not count as a failure.
func NewBreaker(name string, maxRequests uint32, interval, timeout time.Duration, failureThreshold uint32, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    interval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrMediaNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
			}
		},
	})
}

// MediaInfo is the subset of /api/v1/media/<token> the resolver reads.
type MediaInfo struct {
	HLSInfo struct {
		MasterFile string `json:"master_file"`
	} `json:"hls_info"`
	EncodingsInfo map[string]json.RawMessage `json:"encodings_info"`
}

type encoding struct {
	URL string `json:"url"`
}

func (r *MediaCMSResolver) Resolve(ctx context.Context, userURL string) (Source, error) {
	token, ok := ExtractToken(userURL)
	if !ok {
		return Source{}, ErrNoToken
	}
	info, err := r.fetch(ctx, token)
	if err != nil {
		return Source{}, err
	}
	return r.pick(info)
}

// pick prefers the HLS master playlist, then the highest-resolution h264 file.
func (r *MediaCMSResolver) pick(info *MediaInfo) (Source, error) {
	if info.HLSInfo.MasterFile != "" {
		return Source{URL: r.absolute(info.HLSInfo.MasterFile), MimeType: MimeHLS, Origin: OriginMediaCMS}, nil
	}

	type rendition struct {
		height int
		raw    json.RawMessage
	}
	var rs []rendition
	for k, raw := range info.EncodingsInfo {
		h, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		rs = append(rs, rendition{height: h, raw: raw})
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].height > rs[j].height })

	for _, rd := range rs {
		var codecs map[string]encoding
		if err := json.Unmarshal(rd.raw, &codecs); err != nil {
			continue
		}
		if enc, ok := codecs["h264"]; ok && enc.URL != "" {
			return Source{URL: r.absolute(enc.URL), MimeType: MimeMP4, Origin: OriginMediaCMS}, nil
		}
	}
	return Source{}, ErrNoPlayableSource
}

func (r *MediaCMSResolver) absolute(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return r.BaseURL.String() + ref
	}
	return r.BaseURL.ResolveReference(u).String()
}

func (r *MediaCMSResolver) fetch(ctx context.Context, token string) (*MediaInfo, error) {
	endpoint := r.BaseURL.String() + "/api/v1/media/" + url.PathEscape(token)
	if r.CB == nil {
		return r.fetchWithRetry(ctx, endpoint)
	}
	result, err := r.CB.Execute(func() (interface{}, error) {
		return r.fetchWithRetry(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}
	return result.(*MediaInfo), nil
}

func (r *MediaCMSResolver) fetchWithRetry(ctx context.Context, u string) (*MediaInfo, error) {
	var lastErr error
	for attempt := 0; attempt <= r.Config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.Config.RetryBaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			r.Log.Debug("retrying request", zap.String("url", u), zap.Int("attempt", attempt), zap.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		info, err := r.fetchOnce(ctx, u)
		if err == nil {
			return info, nil
		}
		lastErr = err
		if errors.Is(err, ErrMediaNotFound) || ctx.Err() != nil {
			return nil, err
		}
		r.Log.Warn("request failed", zap.String("url", u), zap.Int("attempt", attempt), zap.Error(err))
	}
	return nil, lastErr
}

func (r *MediaCMSResolver) fetchOnce(ctx context.Context, u string) (*MediaInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if r.Config.APIToken != "" {
		req.Header.Set("Authorization", "Token "+r.Config.APIToken)
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrMediaNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("mediacms: status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}

	var info MediaInfo
	if err := json.Unmarshal(b, &info); err != nil {
		return nil, fmt.Errorf("mediacms: decode: %w", err)
	}
	return &info, nil
}
