// Package content fetches blog posts and distills the metadata used to
// compose social posts: title, description, preview image, keywords,
// author, reading time, and a markdown snippet of the article body.
//
// Extraction degrades gracefully. Every field is best-effort with
// fallback chains (Open Graph, then Twitter cards, then plain HTML), and
// a page missing all of them still yields a usable Analysis.
package content

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/plexura/syndic/errors"
	"github.com/plexura/syndic/internal/httpclient"
)

const (
	// DefaultTimeout bounds a single blog fetch.
	DefaultTimeout = 10 * time.Second

	userAgent   = "Mozilla/5.0 (compatible; Syndic/1.0; Social Media Bot)"
	maxBodySize = 2 << 20
)

// Analysis is the distilled metadata of one blog post. Zero-valued
// fields mean the page did not expose that information.
type Analysis struct {
	URL          string      `json:"url"`
	Title        string      `json:"title,omitempty"`
	Description  string      `json:"description,omitempty"`
	PreviewImage string      `json:"preview_image,omitempty"`
	Keywords     []string    `json:"keywords,omitempty"`
	Author       string      `json:"author,omitempty"`
	PublishedAt  string      `json:"published_date,omitempty"`
	ReadingTime  int         `json:"reading_time,omitempty"`
	WordCount    int         `json:"word_count,omitempty"`
	Snippet      string      `json:"content_snippet,omitempty"`
	Social       *SocialTags `json:"social_tags,omitempty"`

	// Error is populated by Degraded when extraction failed but the
	// surrounding operation carries on without the metadata.
	Error string `json:"error,omitempty"`
}

// SocialTags are the card-level meta tags a page declares for itself.
type SocialTags struct {
	TwitterCard string `json:"twitter_card,omitempty"`
	TwitterSite string `json:"twitter_site,omitempty"`
	OGType      string `json:"og_type,omitempty"`
	OGSiteName  string `json:"og_site_name,omitempty"`
}

// Degraded wraps a failed extraction into an Analysis that records the
// failure alongside the URL, so schedulers can proceed without metadata.
func Degraded(pageURL string, err error) *Analysis {
	return &Analysis{URL: pageURL, Error: err.Error()}
}

// Options bounds an Extractor. Zero fields take the defaults.
type Options struct {
	// Timeout bounds a single page fetch. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxKeywords caps the extracted keyword list. Defaults to 10.
	MaxKeywords int
}

// Extractor fetches pages and runs the metadata chains against them.
type Extractor struct {
	httpClient  *httpclient.SaferClient
	maxKeywords int
	logger      *zap.SugaredLogger
}

// NewExtractor returns an Extractor with SSRF screening enabled.
func NewExtractor(opts Options, logger *zap.SugaredLogger) *Extractor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxKeywords <= 0 {
		opts.MaxKeywords = defaultMaxKeywords
	}
	return &Extractor{
		httpClient:  httpclient.NewSaferClient(opts.Timeout),
		maxKeywords: opts.MaxKeywords,
		logger:      logger,
	}
}

// SetHTTPClient replaces the underlying HTTP client. This bypasses SSRF
// protection and exists for testing against local mock servers only.
func (e *Extractor) SetHTTPClient(client *http.Client) {
	e.httpClient = httpclient.WrapClient(client)
}

// Analyze fetches pageURL and extracts its metadata. The returned
// Analysis carries the final URL after redirects.
func (e *Extractor) Analyze(ctx context.Context, pageURL string) (*Analysis, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, errors.NewValidationError("invalid blog URL: %q", pageURL)
	}

	doc, finalURL, err := e.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	analysis := &Analysis{
		URL:          finalURL.String(),
		Title:        extractTitle(doc),
		Description:  extractDescription(doc),
		PreviewImage: extractPreviewImage(doc, finalURL),
		Keywords:     extractKeywords(doc, e.maxKeywords),
		Author:       extractAuthor(doc),
		PublishedAt:  extractPublishedAt(doc),
		Social:       extractSocialTags(doc),
	}
	analysis.WordCount = countWords(doc)
	if analysis.WordCount > 0 {
		analysis.ReadingTime = readingMinutes(analysis.WordCount)
	}
	analysis.Snippet = extractSnippet(doc)

	if analysis.Title == "" {
		analysis.Title = "Content from " + finalURL.Host
	}

	e.logger.Debugw("blog analyzed",
		"url", analysis.URL,
		"title", analysis.Title,
		"keywords", len(analysis.Keywords),
		"words", analysis.WordCount,
	)
	return analysis, nil
}

func (e *Extractor) fetch(ctx context.Context, pageURL string) (*goquery.Document, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "building blog request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "fetching %s", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, errors.NewUpstreamError("fetching %s: HTTP %d", pageURL, resp.StatusCode)
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "html") {
		return nil, nil, errors.NewUpstreamError("fetching %s: non-HTML content type %q", pageURL, contentType)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "parsing %s", pageURL)
	}

	finalURL := resp.Request.URL
	return doc, finalURL, nil
}

func readingMinutes(words int) int {
	// 200 words per minute, floor of one minute.
	minutes := (words + 100) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
