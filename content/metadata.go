package content

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const (
	defaultMaxKeywords = 10
	maxDescription     = 200
	maxSnippet         = 300
)

// Content-area selectors, most specific first. The first match wins.
var contentSelectors = []string{
	"article", "main", `[role="main"]`,
	".post-content", ".entry-content", ".content",
	".post-body", ".article-content",
}

var (
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	bylinePattern  = regexp.MustCompile(`(?i)author|byline|writer`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func extractTitle(doc *goquery.Document) string {
	if v := metaContent(doc, `meta[property="og:title"]`); v != "" {
		return v
	}
	if v := metaContent(doc, `meta[name="twitter:title"]`); v != "" {
		return v
	}
	if v := strings.TrimSpace(doc.Find("title").First().Text()); v != "" {
		return v
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if v := metaContent(doc, `meta[property="og:description"]`); v != "" {
		return v
	}
	if v := metaContent(doc, `meta[name="twitter:description"]`); v != "" {
		return v
	}
	if v := metaContent(doc, `meta[name="description"]`); v != "" {
		return v
	}
	text := strings.TrimSpace(doc.Find("p").First().Text())
	return truncateRunes(text, maxDescription, "")
}

func extractPreviewImage(doc *goquery.Document, base *url.URL) string {
	if v := metaContent(doc, `meta[property="og:image"]`); v != "" {
		return resolveURL(v, base)
	}
	if v := metaContent(doc, `meta[name="twitter:image"]`); v != "" {
		return resolveURL(v, base)
	}
	if area := findContentArea(doc); area != nil {
		if src, ok := area.Find("img").First().Attr("src"); ok && src != "" {
			return resolveURL(src, base)
		}
	}
	// Any page image that is not an icon or a logo.
	if src, ok := doc.Find("img").First().Attr("src"); ok && src != "" {
		lower := strings.ToLower(src)
		if !strings.HasSuffix(lower, ".svg") && !strings.HasSuffix(lower, ".gif") && !strings.Contains(lower, "logo") {
			return resolveURL(src, base)
		}
	}
	return ""
}

// extractKeywords merges meta keywords, short headings, and in-text
// hashtags into a lowercase deduplicated list capped at max entries.
func extractKeywords(doc *goquery.Document, max int) []string {
	var raw []string
	if v := metaContent(doc, `meta[name="keywords"]`); v != "" {
		for _, kw := range strings.Split(v, ",") {
			raw = append(raw, strings.TrimSpace(kw))
		}
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 5 {
			return false
		}
		text := strings.TrimSpace(s.Text())
		if text != "" && len(strings.Fields(text)) <= 4 {
			raw = append(raw, text)
		}
		return true
	})

	matches := hashtagPattern.FindAllStringSubmatch(doc.Text(), 5)
	for _, m := range matches {
		raw = append(raw, m[1])
	}

	seen := make(map[string]bool, len(raw))
	var keywords []string
	for _, kw := range raw {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if len(kw) <= 2 || seen[kw] {
			continue
		}
		seen[kw] = true
		keywords = append(keywords, kw)
		if len(keywords) == max {
			break
		}
	}
	return keywords
}

func extractAuthor(doc *goquery.Document) string {
	if author := structuredDataField(doc, "author"); author != "" {
		return author
	}
	if v := metaContent(doc, `meta[name="author"]`); v != "" {
		return v
	}
	var byline string
	doc.Find("span, div, p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if bylinePattern.MatchString(class) {
			byline = strings.TrimSpace(s.Text())
			return byline == ""
		}
		return true
	})
	return byline
}

func extractPublishedAt(doc *goquery.Document) string {
	if date := structuredDataField(doc, "datePublished"); date != "" {
		return date
	}
	if v := metaContent(doc, `meta[property="article:published_time"]`); v != "" {
		return v
	}
	timeTag := doc.Find("time").First()
	if dt, ok := timeTag.Attr("datetime"); ok && dt != "" {
		return dt
	}
	return strings.TrimSpace(timeTag.Text())
}

// structuredDataField reads a top-level field from the page's first
// JSON-LD block. Author objects yield their name.
func structuredDataField(doc *goquery.Document, field string) string {
	script := doc.Find(`script[type="application/ld+json"]`).First().Text()
	if script == "" {
		return ""
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(script), &data); err != nil {
		return ""
	}
	switch v := data[field].(type) {
	case string:
		return v
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return name
		}
	}
	return ""
}

func extractSocialTags(doc *goquery.Document) *SocialTags {
	tags := &SocialTags{
		TwitterCard: metaContent(doc, `meta[name="twitter:card"]`),
		TwitterSite: metaContent(doc, `meta[name="twitter:site"]`),
		OGType:      metaContent(doc, `meta[property="og:type"]`),
		OGSiteName:  metaContent(doc, `meta[property="og:site_name"]`),
	}
	if *tags == (SocialTags{}) {
		return nil
	}
	return tags
}

func resolveURL(ref string, base *url.URL) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

func findContentArea(doc *goquery.Document) *goquery.Selection {
	for _, selector := range contentSelectors {
		if area := doc.Find(selector).First(); area.Length() > 0 {
			return area
		}
	}
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body
	}
	return nil
}

func countWords(doc *goquery.Document) int {
	area := findContentArea(doc)
	if area == nil {
		return 0
	}
	area = area.Clone()
	area.Find("script, style, nav, header, footer").Remove()
	return len(strings.Fields(area.Text()))
}

// extractSnippet converts the article body to markdown and truncates it
// to a teaser, so downstream consumers see link and emphasis structure
// instead of flattened text.
func extractSnippet(doc *goquery.Document) string {
	area := findContentArea(doc)
	if area == nil {
		return ""
	}
	area = area.Clone()
	area.Find("script, style, nav, header, footer, aside").Remove()

	html, err := goquery.OuterHtml(area)
	if err != nil {
		return ""
	}

	converter := md.NewConverter("", true, &md.Options{
		HeadingStyle:    "atx",
		CodeBlockStyle:  "fenced",
		EmDelimiter:     "*",
		StrongDelimiter: "**",
	})
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}
	markdown = strings.TrimSpace(spacePattern.ReplaceAllString(markdown, " "))
	return truncateRunes(markdown, maxSnippet, "...")
}

func truncateRunes(s string, limit int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + suffix
}
