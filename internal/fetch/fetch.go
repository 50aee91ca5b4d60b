// Package fetch retrieves one page of upstream search results at a time and
// returns the raw table rows. Pacing lives here: a single rate limiter gates
// every outbound request so the pagination loop upstream stays dumb.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"
)

// DefaultUserAgent mirrors the browser identity the upstream site expects.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// resultTableID is the element id the upstream contract hangs on. If it
// disappears the page shape has changed.
const resultTableID = "search-result"

// Cell is one <td> of a result row: its cleaned-up inner text plus the href
// of the first anchor inside it, if any.
type Cell struct {
	Text string
	Href string
}

// Row is the ordered cells of one data row.
type Row []Cell

// Options configures a Client.
type Options struct {
	BaseURL     string
	UserAgent   string
	CountRecord int           // per-page record count sent upstream
	Delay       time.Duration // minimum spacing between requests
	Timeout     time.Duration
}

// Client fetches result pages over HTTP.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
}

// NewClient creates a page fetcher. Zero option fields get defaults.
func NewClient(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.CountRecord <= 0 {
		opts.CountRecord = 2000
	}
	if opts.Delay <= 0 {
		opts.Delay = time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Every(opts.Delay), 1),
		opts:    opts,
	}
}

// FetchPage retrieves one page of results and returns its data rows in
// document order (the header row is dropped). A missing result table is a
// *SchemaError; anything transport-side is a *TransportError.
func (c *Client) FetchPage(ctx context.Context, page int) ([]Row, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetch: pacing wait")
	}

	pageURL := c.pageURL(page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)

	zap.L().Debug("fetching page", zap.Int("page", page), zap.String("url", pageURL))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{URL: pageURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: pageURL, StatusCode: resp.StatusCode}
	}

	// Buffer the body first: a read that dies mid-transfer is a transport
	// failure, not a layout change.
	raw, err := io.ReadAll(decodeBody(resp.Body, resp.Header.Get("Content-Type")))
	if err != nil {
		return nil, &TransportError{URL: pageURL, Err: err}
	}
	rows, err := ParseResultTable(bytes.NewReader(raw))
	if err != nil {
		return nil, &SchemaError{URL: pageURL, Reason: err.Error()}
	}
	return rows, nil
}

func (c *Client) pageURL(page int) string {
	q := url.Values{}
	q.Set("count_record", fmt.Sprint(c.opts.CountRecord))
	q.Set("page", fmt.Sprint(page))
	return c.opts.BaseURL + "?" + q.Encode()
}

// decodeBody converts the response to UTF-8 based on the Content-Type charset.
// Unknown or absent charsets pass the body through untouched.
func decodeBody(r io.Reader, contentType string) io.Reader {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r
	}
	charset := strings.ToLower(params["charset"])
	if charset == "" || charset == "utf-8" {
		return r
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		zap.L().Warn("unknown response charset, reading raw", zap.String("charset", charset))
		return r
	}
	return enc.NewDecoder().Reader(r)
}
