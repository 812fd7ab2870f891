package news

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dkwon/alphadesk/internal/contracts"
	"github.com/dkwon/alphadesk/pkg/config"
	"github.com/dkwon/alphadesk/pkg/httputil"
	"github.com/dkwon/alphadesk/pkg/logger"
)

const defaultLimit = 20

// Headline is one scraped news item
type Headline struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// Client scrapes recent headlines from the quote news page of the
// configured finance site.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a news client
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg config.MarketDataConfig) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.NewsBaseURL,
	}
}

// WithBaseURL overrides the site host, used against test servers
func (c *Client) WithBaseURL(base string) *Client {
	c.baseURL = base
	return c
}

// Headlines scrapes up to limit recent headlines for a ticker
func (c *Client) Headlines(ctx context.Context, ticker string, limit int) ([]Headline, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	fullURL := fmt.Sprintf("%s/quote/%s/news", c.baseURL, url.PathEscape(ticker))
	resp, err := c.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("%w: news fetch for %s: %v", contracts.ErrDataUnavailable, ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: news fetch for %s: status %d",
			contracts.ErrDataUnavailable, ticker, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse news page failed: %w", err)
	}

	headlines := parseHeadlines(doc, c.baseURL, limit)
	if len(headlines) == 0 {
		return nil, fmt.Errorf("%w: no headlines found for %s", contracts.ErrDataUnavailable, ticker)
	}

	c.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"count":  len(headlines),
	}).Debug("Fetched headlines")
	return headlines, nil
}

// parseHeadlines pulls anchor-wrapped h3 titles out of the news stream.
// Duplicate titles (the same story re-listed) are collapsed.
func parseHeadlines(doc *goquery.Document, base string, limit int) []Headline {
	var headlines []Headline
	seen := make(map[string]bool)

	doc.Find("h3").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		title := strings.TrimSpace(h.Text())
		if title == "" || seen[title] {
			return true
		}

		link := ""
		anchor := h.Find("a").First()
		if anchor.Length() == 0 {
			anchor = h.Closest("a")
		}
		if href, ok := anchor.Attr("href"); ok {
			link = absoluteLink(base, href)
		}

		seen[title] = true
		headlines = append(headlines, Headline{Title: title, Link: link})
		return len(headlines) < limit
	})
	return headlines
}

func absoluteLink(base, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(href, "/")
}

// Titles extracts just the headline text, the shape the sentiment
// analyzer consumes.
func Titles(headlines []Headline) []string {
	out := make([]string, len(headlines))
	for i, h := range headlines {
		out[i] = h.Title
	}
	return out
}
