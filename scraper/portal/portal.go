package portal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"unitcost/config"
	"unitcost/models"
	"unitcost/utils"
)

// Scraper collects apartment listings from a real-estate portal's search
// results and detail pages.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	pool    *utils.WorkerPool
	visited *utils.KeySet
	retry   *utils.RetryConfig

	mu    sync.Mutex
	units []*models.RawUnit
	// exhausted is set when pagination ran out rather than hitting the page
	// limit or an error.
	exhausted bool
}

// New creates a ready-to-use portal Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, time.Duration(cfg.RateLimitMs)*time.Millisecond),
		visited: utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// card is the shape returned by the in-page extraction scripts.
type card struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	Price     string `json:"price"`
	Area      string `json:"area"`
	Rooms     string `json:"rooms"`
	Location  string `json:"location"`
	Amenities string `json:"amenities"`
	Parking   string `json:"parking"`
	Storage   string `json:"storage"`
	HOA       string `json:"hoa"`
	URL       string `json:"url"`
}

// Scrape walks the configured number of result pages and enriches every
// card from its detail page.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.RawUnit, error) {
	s.logger.Info("[portal] Starting scrape: %d pages, %d units/page",
		s.cfg.PagesToScrape, s.cfg.ListingsPerPage)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findChromeBinary(s.cfg.ChromeBin); bin != "" {
		s.logger.Debug("[portal] Using browser binary: %s", bin)
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	pageURL := s.cfg.PortalURL
	for page := 1; page <= s.cfg.PagesToScrape && pageURL != ""; page++ {
		s.logger.Info("[portal] Page %d: %s", page, pageURL)

		cards, nextURL, err := s.scrapePage(browserCtx, pageURL, page)
		if err != nil {
			s.logger.Error("[portal] Page %d failed: %v", page, err)
			break
		}
		if len(cards) == 0 {
			s.logger.Warn("[portal] Page %d returned no units, stopping", page)
			break
		}

		s.enrich(browserCtx, cards)
		s.logger.Info("[portal] Page %d done, %d units so far", page, len(s.units))

		pageURL = nextURL
		if pageURL == "" {
			s.exhausted = true
		}
	}

	if ctx.Err() != nil {
		return s.units, fmt.Errorf("portal: scrape: %w", ctx.Err())
	}
	s.logger.Info("[portal] Scrape complete, %d raw units", len(s.units))
	return s.units, nil
}

// Exhausted reports whether the last Scrape walked every result page, so
// its units are the portal's full inventory.
func (s *Scraper) Exhausted() bool {
	return s.exhausted
}

func (s *Scraper) scrapePage(browserCtx context.Context, pageURL string, pageNum int) ([]card, string, error) {
	var fresh []card
	var nextURL string

	err := s.retry.Do(browserCtx, fmt.Sprintf("scrape-page-%d", pageNum), func() error {
		ctx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, 90*time.Second)
		defer cancelTimeout()

		var cards []card
		err := chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.Sleep(5*time.Second),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(2*time.Second),
			chromedp.Evaluate(fmt.Sprintf(listScript, s.cfg.ListingsPerPage), &cards),
			chromedp.Evaluate(nextPageScript, &nextURL),
		)
		if err != nil {
			return fmt.Errorf("chromedp page scrape: %w", err)
		}

		fresh = fresh[:0]
		for _, c := range cards {
			key := c.ID
			if key == "" {
				key = c.URL
			}
			if key == "" || s.visited.Contains(key) {
				continue
			}
			fresh = append(fresh, c)
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	for _, c := range fresh {
		key := c.ID
		if key == "" {
			key = c.URL
		}
		s.visited.Add(key)
	}
	s.logger.Debug("[portal] Page %d: %d new cards", pageNum, len(fresh))
	return fresh, nextURL, nil
}

// enrich fills cost fields from detail pages concurrently and appends the
// resulting raw units.
func (s *Scraper) enrich(browserCtx context.Context, cards []card) {
	for _, c := range cards {
		c := c
		s.pool.Submit(func() {
			if c.URL != "" {
				detail, err := s.scrapeDetail(browserCtx, c.URL)
				if err != nil {
					s.logger.Warn("[portal] Detail page failed for %s: %v", c.URL, err)
				} else {
					c = merge(c, detail)
				}
			}

			s.mu.Lock()
			s.units = append(s.units, toRaw(c, time.Now()))
			s.mu.Unlock()
		})
	}
	s.pool.Wait()
}

func (s *Scraper) scrapeDetail(browserCtx context.Context, url string) (card, error) {
	var detail card

	err := s.retry.Do(browserCtx, "detail-page", func() error {
		ctx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
		defer cancelTimeout()

		err := chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.Sleep(4*time.Second),
			chromedp.Evaluate(detailScript, &detail),
		)
		if err != nil {
			return fmt.Errorf("chromedp detail extract: %w", err)
		}
		return nil
	})
	return detail, err
}

// merge prefers detail-page values over the search card's.
func merge(base, detail card) card {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}
		return a
	}
	base.Project = pick(base.Project, detail.Project)
	base.Price = pick(base.Price, detail.Price)
	base.Area = pick(base.Area, detail.Area)
	base.Rooms = pick(base.Rooms, detail.Rooms)
	base.Location = pick(base.Location, detail.Location)
	base.Amenities = pick(base.Amenities, detail.Amenities)
	base.Parking = pick(base.Parking, detail.Parking)
	base.Storage = pick(base.Storage, detail.Storage)
	base.HOA = pick(base.HOA, detail.HOA)
	return base
}

func toRaw(c card, scrapedAt time.Time) *models.RawUnit {
	id := c.ID
	if id == "" && c.URL != "" {
		id = path.Base(c.URL)
	}
	return &models.RawUnit{
		ExternalID: id,
		Project:    c.Project,
		RawPrice:   c.Price,
		RawArea:    c.Area,
		RawRooms:   c.Rooms,
		Location:   c.Location,
		Amenities:  c.Amenities,
		RawParking: c.Parking,
		RawStorage: c.Storage,
		RawHOA:     c.HOA,
		URL:        c.URL,
		ScrapedAt:  scrapedAt,
	}
}

func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}
