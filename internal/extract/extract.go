// Package extract scrapes the public regulatory listing and turns each
// table row into a raw record for validation. It guarantees the minimal
// upstream shape the reconciler depends on: every record carries title,
// created_at and external_link keys, possibly null.
package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/normapipe/normapipe/internal/record"
)

// Columns is the field order of extracted records.
var Columns = []string{
	"created_at", "update_at", "is_active", "title", "gtype",
	"entity", "external_link", "rtype_id", "summary", "classification_id",
}

// Scraper fetches and parses listing pages.
type Scraper struct {
	client           *http.Client
	baseURL          string
	siteOrigin       string
	entity           string
	classificationID int64
	log              *slog.Logger
}

// Config carries the scraper settings. Entity names the source; every
// extracted record carries it as discriminator.
type Config struct {
	BaseURL          string
	SiteOrigin       string
	Entity           string
	ClassificationID int64
	Timeout          time.Duration
}

// New creates a scraper.
func New(cfg Config, log *slog.Logger) *Scraper {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Scraper{
		client:           &http.Client{Timeout: cfg.Timeout},
		baseURL:          cfg.BaseURL,
		siteOrigin:       cfg.SiteOrigin,
		entity:           cfg.Entity,
		classificationID: cfg.ClassificationID,
		log:              log,
	}
}

// Extract scrapes the first pages of the listing into one frame. A page
// that fails to fetch or parse contributes no rows but does not fail the
// run.
func (s *Scraper) Extract(ctx context.Context, pages int) (record.Frame, error) {
	frame := record.Frame{Columns: Columns}

	for page := 0; page < pages; page++ {
		rows, err := s.scrapePage(ctx, page)
		if err != nil {
			if ctx.Err() != nil {
				return frame, ctx.Err()
			}
			s.log.Warn("page scrape failed", "page", page, "error", err)
			continue
		}
		s.log.Debug("page scraped", "page", page, "rows", len(rows))
		frame.Rows = append(frame.Rows, rows...)
	}

	return frame, nil
}

func (s *Scraper) scrapePage(ctx context.Context, page int) ([]record.Row, error) {
	url := s.baseURL
	if page > 0 {
		url = fmt.Sprintf("%s&page=%d", s.baseURL, page)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch page %d: status %d", page, resp.StatusCode)
	}

	return s.parseListing(resp.Body)
}
