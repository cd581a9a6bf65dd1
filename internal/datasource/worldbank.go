package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"trendcharts/internal/series"
)

const DefaultWorldBankURL = "https://api.worldbank.org/v2"

var ErrNoData = errors.New("no data")

// SeriesCache stores fetched series so repeated charts do not hit the network.
type SeriesCache interface {
	LoadSeries(ctx context.Context, source, key string, maxAge time.Duration) (series.Series, bool, error)
	SaveSeries(ctx context.Context, source, key string, s series.Series) error
}

// WorldBank fetches indicator series from the World Bank v2 API.
type WorldBank struct {
	baseURLs []string
	client   *http.Client
	backoffs []time.Duration
	cache    SeriesCache
	maxAge   time.Duration
}

type Option func(*WorldBank)

// WithFallbackURL adds another host tried after the primary one.
func WithFallbackURL(u string) Option {
	return func(w *WorldBank) { w.baseURLs = append(w.baseURLs, strings.TrimRight(u, "/")) }
}

func WithHTTPClient(c *http.Client) Option {
	return func(w *WorldBank) { w.client = c }
}

func WithBackoffs(b ...time.Duration) Option {
	return func(w *WorldBank) { w.backoffs = b }
}

// WithCache consults cache before the network; entries older than maxAge are refetched.
func WithCache(cache SeriesCache, maxAge time.Duration) Option {
	return func(w *WorldBank) {
		w.cache = cache
		w.maxAge = maxAge
	}
}

func NewWorldBank(baseURL string, opts ...Option) *WorldBank {
	if baseURL == "" {
		baseURL = DefaultWorldBankURL
	}
	w := &WorldBank{
		baseURLs: []string{strings.TrimRight(baseURL, "/")},
		client:   &http.Client{Timeout: 20 * time.Second},
		backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// wbMeta is the first element of every World Bank response array.
type wbMeta struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

// wbRow mirrors one observation (trimmed to needed fields).
type wbRow struct {
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

func cacheKey(country, indicator string, from, to int) string {
	return fmt.Sprintf("%s/%s/%d-%d", strings.ToUpper(country), indicator, from, to)
}

// FetchIndicator returns the yearly series for country and indicator between
// from and to inclusive. Null observations become missing points.
func (w *WorldBank) FetchIndicator(ctx context.Context, country, indicator string, from, to int) (series.Series, error) {
	key := cacheKey(country, indicator, from, to)
	if w.cache != nil {
		s, ok, err := w.cache.LoadSeries(ctx, "worldbank", key, w.maxAge)
		if err != nil {
			log.Printf("worldbank: cache read %s failed: %v", key, err)
		} else if ok {
			return s, nil
		}
	}

	var rows []wbRow
	for page := 1; ; page++ {
		meta, pageRows, err := w.fetchPage(ctx, country, indicator, from, to, page)
		if err != nil {
			return series.Series{}, err
		}
		rows = append(rows, pageRows...)
		if meta.Pages <= page {
			break
		}
	}
	if len(rows) == 0 {
		return series.Series{}, fmt.Errorf("%s %s: %w", country, indicator, ErrNoData)
	}

	name := rows[0].Country.Value
	if name == "" {
		name = strings.ToUpper(country)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	pts := make([]series.Point, 0, len(rows))
	for _, r := range rows {
		year, err := strconv.Atoi(r.Date)
		if err != nil {
			return series.Series{}, fmt.Errorf("worldbank: bad date %q: %w", r.Date, err)
		}
		if r.Value == nil {
			pts = append(pts, series.Missing(year))
			continue
		}
		pts = append(pts, series.At(year, *r.Value))
	}
	s, err := series.New(name, pts...)
	if err != nil {
		return series.Series{}, err
	}
	if w.cache != nil {
		if err := w.cache.SaveSeries(ctx, "worldbank", key, s); err != nil {
			log.Printf("worldbank: cache write %s failed: %v", key, err)
		}
	}
	return s, nil
}

// fetchPage tries every host with backoff between rounds, keeping the last error.
func (w *WorldBank) fetchPage(ctx context.Context, country, indicator string, from, to, page int) (wbMeta, []wbRow, error) {
	var lastErr error
	for attempt := 0; attempt < len(w.backoffs)+1; attempt++ {
		for _, host := range w.baseURLs {
			url := fmt.Sprintf("%s/country/%s/indicator/%s?format=json&date=%d:%d&per_page=200&page=%d",
				host, country, indicator, from, to, page)
			meta, rows, err := w.get(ctx, url)
			if err == nil {
				return meta, rows, nil
			}
			if ctx.Err() != nil {
				return wbMeta{}, nil, ctx.Err()
			}
			lastErr = err
		}
		if attempt < len(w.backoffs) {
			select {
			case <-time.After(w.backoffs[attempt]):
			case <-ctx.Done():
				return wbMeta{}, nil, ctx.Err()
			}
		}
	}
	return wbMeta{}, nil, lastErr
}

func (w *WorldBank) get(ctx context.Context, url string) (wbMeta, []wbRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return wbMeta{}, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "trendcharts/1.0")
	resp, err := w.client.Do(req)
	if err != nil {
		return wbMeta{}, nil, err
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return wbMeta{}, nil, fmt.Errorf("failed to read worldbank response: %w", readErr)
	}
	if resp.StatusCode != http.StatusOK {
		return wbMeta{}, nil, fmt.Errorf("worldbank returned %d: %s", resp.StatusCode, preview(body))
	}
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "<") {
		return wbMeta{}, nil, fmt.Errorf("worldbank returned non-json body: %s", preview(body))
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return wbMeta{}, nil, fmt.Errorf("failed to parse worldbank json: %v; body: %s", err, preview(body))
	}
	if len(parts) == 0 {
		return wbMeta{}, nil, ErrNoData
	}
	var meta wbMeta
	if err := json.Unmarshal(parts[0], &meta); err != nil {
		return wbMeta{}, nil, fmt.Errorf("failed to parse worldbank metadata: %w", err)
	}
	if len(meta.Message) > 0 {
		m := meta.Message[0]
		return wbMeta{}, nil, fmt.Errorf("worldbank error %s: %s %s", m.ID, m.Key, m.Value)
	}
	var rows []wbRow
	if len(parts) > 1 && string(parts[1]) != "null" {
		if err := json.Unmarshal(parts[1], &rows); err != nil {
			return wbMeta{}, nil, fmt.Errorf("failed to parse worldbank rows: %w", err)
		}
	}
	return meta, rows, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
