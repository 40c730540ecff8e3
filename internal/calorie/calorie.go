package calorie

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// Lookup returns approximate calorie text for a label. ok is false when nothing could be
// found; callers treat the result as optional enrichment.
type Lookup interface {
	Lookup(ctx context.Context, name string) (text string, ok bool)
}

const (
	DefaultBaseURL     = "https://www.google.com"
	DefaultResultClass = "BNeawe iBp4i AP7Wnd"
	DefaultUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	maxPageBytes = 2 << 20
)

// ScraperConfig configures SearchScraper. Zero values fall back to defaults.
type ScraperConfig struct {
	BaseURL     string
	ResultClass string
	UserAgent   string
	Timeout     time.Duration
}

// SearchScraper reads the calorie snippet off a search results page.
type SearchScraper struct {
	httpClient  *http.Client
	baseURL     string
	resultClass string
	userAgent   string
}

func NewSearchScraper(cfg ScraperConfig) *SearchScraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ResultClass == "" {
		cfg.ResultClass = DefaultResultClass
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SearchScraper{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		resultClass: cfg.ResultClass,
		userAgent:   cfg.UserAgent,
	}
}

func (s *SearchScraper) Lookup(ctx context.Context, name string) (string, bool) {
	text, err := s.fetch(ctx, name)
	if err != nil {
		slog.Warn("calorie lookup failed", slog.String("label", name), slog.String("error", err.Error()))
		return "", false
	}
	return text, true
}

func (s *SearchScraper) fetch(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("q", "calories in "+name)
	reqURL := s.baseURL + "/search?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("build search request failed: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("search response status %d", resp.StatusCode)
	}

	text, err := Extract(io.LimitReader(resp.Body, maxPageBytes), s.resultClass)
	if err != nil {
		return "", err
	}
	return text, nil
}

// Extract parses an HTML page and returns the text of the first div whose class attribute
// equals class exactly.
func Extract(r io.Reader, class string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse search page failed: %w", err)
	}
	node := findDiv(doc, class)
	if node == nil {
		return "", fmt.Errorf("element div.%q not found", class)
	}
	text := strings.Join(strings.Fields(textOf(node)), " ")
	if text == "" {
		return "", fmt.Errorf("element div.%q is empty", class)
	}
	return text, nil
}

func findDiv(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && n.Data == "div" {
		for _, a := range n.Attr {
			if a.Key == "class" && strings.TrimSpace(a.Val) == class {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findDiv(c, class); found != nil {
			return found
		}
	}
	return nil
}

// textOf concatenates descendant text as-is, so "100<span>g</span>" reads "100g".
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
