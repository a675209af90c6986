package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"unitcost/models"
	"unitcost/storage"
	"unitcost/utils"
)

var quoteRegexp = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// Config locates the quotes on the rates page.
type Config struct {
	URL              string
	ParallelSelector string
	// OfficialSelector may be empty, in which case OfficialFallback is used.
	OfficialSelector string
	OfficialFallback float64
	Timeout          time.Duration
}

// Fetcher scrapes official and parallel USD/BOB quotes from a rates page.
// It implements storage.RateSource.
type Fetcher struct {
	cfg    Config
	client *http.Client
	retry  *utils.RetryConfig
	logger *utils.Logger
	now    func() time.Time
}

// New creates a Fetcher.
func New(cfg Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		retry:  &utils.RetryConfig{MaxAttempts: 3, BaseDelay: time.Second, Logger: logger},
		logger: logger,
		now:    time.Now,
	}
}

var _ storage.RateSource = (*Fetcher)(nil)

// FetchExchangeRate downloads the rates page and extracts both quotes.
// PreviousParallel is left zero; callers fill it from history.
func (f *Fetcher) FetchExchangeRate(ctx context.Context) (models.ExchangeRate, error) {
	var body string
	err := f.retry.Do(ctx, "fetch-rates", func() error {
		var err error
		body, err = f.download(ctx)
		return err
	})
	if err != nil {
		return models.ExchangeRate{}, fmt.Errorf("rates: fetch: %w: %w", storage.ErrDataUnavailable, err)
	}

	rate, err := f.parse(body)
	if err != nil {
		return models.ExchangeRate{}, fmt.Errorf("rates: parse: %w: %w", storage.ErrDataUnavailable, err)
	}
	f.logger.Info("[rates] Official %.2f | Parallel %.2f", rate.Official, rate.Parallel)
	return rate, nil
}

func (f *Fetcher) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; unitcost/1.0)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (f *Fetcher) parse(html string) (models.ExchangeRate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.ExchangeRate{}, err
	}

	parallel, err := quote(doc, f.cfg.ParallelSelector)
	if err != nil {
		return models.ExchangeRate{}, fmt.Errorf("parallel quote: %w", err)
	}

	official := f.cfg.OfficialFallback
	if f.cfg.OfficialSelector != "" {
		if v, err := quote(doc, f.cfg.OfficialSelector); err == nil {
			official = v
		} else {
			f.logger.Warn("[rates] Official quote not found, using %.2f: %v", official, err)
		}
	}

	return models.ExchangeRate{
		Official:  official,
		Parallel:  parallel,
		Timestamp: f.now(),
	}, nil
}

// quote reads the first number inside the element matched by selector.
func quote(doc *goquery.Document, selector string) (float64, error) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("selector %q matched nothing", selector)
	}
	text := strings.TrimSpace(sel.Text())
	m := quoteRegexp.FindString(text)
	if m == "" {
		return 0, fmt.Errorf("no number in %q", text)
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("non-positive quote %v", v)
	}
	return v, nil
}
