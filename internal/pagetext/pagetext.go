// Package pagetext fetches a web page and extracts its visible body text for
// full-text indexing. The fetcher is deliberately forgiving: any failure
// (timeout, bad status, unparsable markup) yields empty text, never an error.
package pagetext

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	resty "github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// DefaultMaxChars caps stored page text to respect index document-size
// limits.
const DefaultMaxChars = 13000

// Page holds the extraction result.
type Page struct {
	Body string `json:"body"`
}

// Fetcher retrieves best-effort plain text for a URL.
type Fetcher interface {
	FetchPageText(ctx context.Context, url string) Page
}

type fetcher struct {
	client   *resty.Client
	maxChars int
	log      zerolog.Logger
}

// NewFetcher builds a Fetcher with a hard request timeout and a size cap.
// Zero values select a 2s timeout and DefaultMaxChars.
func NewFetcher(timeout time.Duration, maxChars int, log zerolog.Logger) Fetcher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	return &fetcher{client: client, maxChars: maxChars, log: log}
}

var whitespace = regexp.MustCompile(`\s+`)

// FetchPageText GETs the URL and returns collapsed body text, capped at
// maxChars. Empty text on any failure.
func (f *fetcher) FetchPageText(ctx context.Context, url string) Page {
	if url == "" {
		return Page{}
	}

	resp, err := f.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		f.log.Debug().Err(err).Str("url", url).Msg("page fetch failed")
		return Page{}
	}
	body := resp.RawBody()
	defer func() { _ = body.Close() }()

	if resp.StatusCode() >= 400 {
		f.log.Debug().Int("status", resp.StatusCode()).Str("url", url).Msg("page fetch rejected")
		return Page{}
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		f.log.Debug().Err(err).Str("url", url).Msg("page parse failed")
		return Page{}
	}

	sel := doc.Find("body")
	sel.Find("script, style, noscript").Remove()
	text := strings.TrimSpace(whitespace.ReplaceAllString(sel.Text(), " "))
	return Page{Body: truncate(text, f.maxChars)}
}

// truncate cuts at a rune boundary so a capped page never ends mid-character.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
