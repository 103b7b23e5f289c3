package voices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultEndpoint is the voice listing endpoint of the provider.
const DefaultEndpoint = "https://texttospeech.googleapis.com/v1/voices"

// CacheTTL is how long a fetched voice list is considered fresh.
const CacheTTL = 24 * time.Hour

const fetchTimeout = 30 * time.Second

// ErrMissingAPIKey means the directory cannot refresh without a key.
var ErrMissingAPIKey = errors.New("API key missing, cannot refresh voices")

// Directory caches the provider's voice list. Refresh failures never clear
// the cache: the previous list stays valid and the failure is reported to
// the caller.
type Directory struct {
	mu       sync.Mutex
	client   *http.Client
	endpoint string
	apiKey   string

	cached   []Voice
	cachedAt time.Time
}

// NewDirectory creates a directory seeded with a cached list. An empty
// seed falls back to the built-in voices; a zero cachedAt marks the seed
// stale so the first Refresh goes remote.
func NewDirectory(apiKey string, seed []Voice, cachedAt time.Time) *Directory {
	return &Directory{
		client:   &http.Client{Timeout: fetchTimeout},
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		cached:   Normalize(seed),
		cachedAt: cachedAt,
	}
}

// SetEndpoint overrides the voice listing endpoint. Intended for tests.
func (d *Directory) SetEndpoint(endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.endpoint = endpoint
}

// Cached returns the current voice list without touching the network.
func (d *Directory) Cached() []Voice {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Voice, len(d.cached))
	copy(out, d.cached)
	return out
}

// CachedAt returns the timestamp of the last successful fetch; zero if the
// cache only holds the built-in defaults.
func (d *Directory) CachedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cachedAt
}

// Fresh reports whether the cache is within its TTL.
func (d *Directory) Fresh() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.cachedAt.IsZero() && time.Since(d.cachedAt) < CacheTTL
}

// Refresh fetches the voice list from the provider. On any failure the
// cached list is returned unchanged together with the error; the cache
// timestamp moves only on success.
func (d *Directory) Refresh(ctx context.Context) ([]Voice, error) {
	d.mu.Lock()
	apiKey := d.apiKey
	endpoint := d.endpoint
	d.mu.Unlock()

	if apiKey == "" {
		return d.Cached(), ErrMissingAPIKey
	}

	fetched, err := d.fetch(ctx, endpoint, apiKey)
	if err != nil {
		log.Warn("voice list refresh failed, keeping cache", "err", err)
		return d.Cached(), err
	}

	d.mu.Lock()
	d.cached = fetched
	d.cachedAt = time.Now()
	d.mu.Unlock()

	log.Debug("voice list refreshed", "voices", len(fetched))
	return d.Cached(), nil
}

// voiceListResponse mirrors the provider's voice listing payload.
type voiceListResponse struct {
	Voices []struct {
		Name          string   `json:"name"`
		Description   string   `json:"description"`
		LanguageCodes []string `json:"languageCodes"`
	} `json:"voices"`
}

func (d *Directory) fetch(ctx context.Context, endpoint, apiKey string) ([]Voice, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch voices: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch voices: HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read voices response: %w", err)
	}

	var payload voiceListResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode voices response: %w", err)
	}

	var out []Voice
	for _, v := range payload.Voices {
		if v.Name == "" {
			continue
		}
		out = append(out, Voice{
			ID:    v.Name,
			Label: TranslateLabel(v.Name, v.Description, v.LanguageCodes),
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("voice list response empty")
	}
	return out, nil
}
