package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"github.com/Roudranil/function-calling-with-openai-and-oss-llm/internal/utils"
)

const (
	// DefaultTimeout bounds a whole fetch.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent when none is configured.
	DefaultUserAgent = "fncall-scraper/1.0"

	// MaxBodySize is the maximum accepted page size (10MB).
	MaxBodySize = 10 * 1024 * 1024
)

// ErrBodyTooLarge is returned for pages larger than MaxBodySize.
var ErrBodyTooLarge = errors.New("scrape: response body exceeds maximum size")

// unwrapTags are replaced by their children when a row is cleaned.
var unwrapTags = map[string]bool{
	"span":  true,
	"a":     true,
	"div":   true,
	"link":  true,
	"style": true,
	"i":     true,
	"b":     true,
	"sup":   true,
}

// Scraper fetches pages over HTTP.
type Scraper struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(s *Scraper) {
		if userAgent != "" {
			s.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each fetch. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scraper) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scraper.
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client:    http.DefaultClient,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table fetches url and returns the cleaned rows of its first table.
// A non-200 response or a page without a table yields no rows and no error;
// transport failures are returned.
func (s *Scraper) Table(ctx context.Context, url string) ([]*html.Node, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Set("User-Agent", s.userAgent)

	response, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer utils.CloseWithLog(response.Body)

	if response.StatusCode != http.StatusOK {
		s.logger.WarnContext(ctx, "table page not available",
			slog.String("url", url),
			slog.Int("status_code", response.StatusCode),
		)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, MaxBodySize)
	}

	rows, err := ParseTable(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "table fetched", slog.String("url", url), slog.Int("rows", len(rows)))
	return rows, nil
}

// ParseTable parses an HTML document and returns the cleaned rows of its
// first table, or no rows when the document has none.
func ParseTable(r io.Reader) ([]*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := findFirst(doc, "table")
	if table == nil {
		return nil, nil
	}

	var rows []*html.Node
	collect(table, "tr", &rows)
	for _, row := range rows {
		CleanRow(row)
	}
	return rows, nil
}

// CleanRow unwraps presentational elements inside row and drops the
// attributes of the row element itself.
func CleanRow(row *html.Node) {
	unwrap(row)
	row.Attr = nil
}

func unwrap(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		unwrap(c)
		if c.Type == html.ElementNode && unwrapTags[c.Data] {
			for gc := c.FirstChild; gc != nil; gc = c.FirstChild {
				c.RemoveChild(gc)
				n.InsertBefore(gc, c)
			}
			n.RemoveChild(c)
		}
		c = next
	}
}

func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// collect appends every descendant element named tag, in document order.
func collect(n *html.Node, tag string, out *[]*html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			*out = append(*out, c)
		}
		collect(c, tag, out)
	}
}
