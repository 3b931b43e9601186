package plan

import (
	_ "embed"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/plexura/syndic/errors"
)

//go:embed platforms.toml
var platformsTOML string

// PlatformProfile describes what a platform accepts and how content is
// assembled for it.
type PlatformProfile struct {
	Capabilities []string `toml:"capabilities"`
	MaxChars     int      `toml:"max_chars"`
	LinkReserve  int      `toml:"link_reserve"`
	LinkStyle    string   `toml:"link_style"`
	MaxHashtags  int      `toml:"max_hashtags"`
	HashtagStyle string   `toml:"hashtag_style"`
	QuoteTitle   bool     `toml:"quote_title"`
}

type platformsFile struct {
	Platforms map[string]PlatformProfile `toml:"platforms"`
}

// Registry resolves platform profiles and shapes content against them.
type Registry struct {
	profiles map[string]PlatformProfile
}

// NewRegistry parses the embedded platform profiles.
func NewRegistry() (*Registry, error) {
	var file platformsFile
	if err := toml.Unmarshal([]byte(platformsTOML), &file); err != nil {
		return nil, errors.Wrap(err, "parsing platform profiles")
	}
	if _, ok := file.Platforms["default"]; !ok {
		return nil, errors.New("platform profiles missing the default entry")
	}
	return &Registry{profiles: file.Platforms}, nil
}

var defaultRegistry = func() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}()

// DefaultRegistry returns the registry built from the embedded
// profiles.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Profile returns the platform's profile, falling back to the default
// entry for unknown platforms.
func (r *Registry) Profile(platform string) PlatformProfile {
	if p, ok := r.profiles[normalizePlatform(platform)]; ok {
		return p
	}
	return r.profiles["default"]
}

// Known reports whether the platform has a profile of its own.
func (r *Registry) Known(platform string) bool {
	_, ok := r.profiles[normalizePlatform(platform)]
	return ok
}

// Capabilities returns the post formats the platform accepts.
func (r *Registry) Capabilities(platform string) []string {
	return r.Profile(platform).Capabilities
}

// Platforms lists the profiled platform names in sorted order, the
// default entry excluded.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		if name == "default" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportsMedia reports whether the platform accepts any visual media.
func (r *Registry) SupportsMedia(platform string) bool {
	for _, c := range r.Profile(platform).Capabilities {
		switch c {
		case "image", "video", "carousel", "story", "shorts":
			return true
		}
	}
	return false
}

// FilterMedia drops media for platforms that cannot carry it.
func (r *Registry) FilterMedia(platform string, urls []string) []string {
	if len(urls) == 0 || !r.SupportsMedia(platform) {
		return nil
	}
	return urls
}

// ShapeInput carries the raw pieces of a post before platform shaping.
type ShapeInput struct {
	Message  string
	Link     string
	Title    string
	Keywords []string
}

// ShapeContent renders the message for one platform. It prefixes the
// quoted title where the profile asks for it, places the link in the
// profile's style, enforces the character cap, and appends keyword
// hashtags while they still fit under the cap.
//
// Content over the cap is rejected rather than truncated. An inline
// link counts against the cap at LinkReserve runes regardless of its
// actual length.
func (r *Registry) ShapeContent(platform string, in ShapeInput) (string, error) {
	name := normalizePlatform(platform)
	profile := r.Profile(name)
	body := strings.TrimSpace(in.Message)

	if profile.QuoteTitle && in.Title != "" && !containsFold(body, in.Title) {
		body = "\"" + in.Title + "\"\n\n" + body
	}

	length := utf8.RuneCountInString(body)
	var link string
	if in.Link != "" {
		switch profile.LinkStyle {
		case "inline":
			link = " " + in.Link
			length += profile.LinkReserve
		case "read_more":
			link = "\n\nRead more: " + in.Link
			length += utf8.RuneCountInString(link)
		case "paragraph":
			link = "\n\n" + in.Link
			length += utf8.RuneCountInString(link)
		}
	}

	if profile.MaxChars > 0 && length > profile.MaxChars {
		return "", errors.WithHint(
			errors.NewValidationError("content is %d characters after shaping for %s, over the %d character limit",
				length, name, profile.MaxChars),
			"Shorten the message or drop the link")
	}

	var tagPart string
	for i, tag := range keywordHashtags(profile, in.Keywords) {
		piece := " " + tag
		if profile.HashtagStyle == "trailing" && i == 0 {
			piece = "\n\n" + tag
		}
		cost := utf8.RuneCountInString(piece)
		if profile.MaxChars > 0 && length+cost > profile.MaxChars {
			break
		}
		tagPart += piece
		length += cost
	}

	return body + link + tagPart, nil
}

// keywordHashtags turns keywords into at most MaxHashtags tags.
// Trailing-style platforms get lowercased tags.
func keywordHashtags(profile PlatformProfile, keywords []string) []string {
	if profile.MaxHashtags == 0 || profile.HashtagStyle == "" {
		return nil
	}
	var tags []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || utf8.RuneCountInString(kw) >= 20 {
			continue
		}
		tag := strings.ReplaceAll(kw, " ", "")
		if profile.HashtagStyle == "trailing" {
			tag = strings.ToLower(tag)
		}
		tags = append(tags, "#"+tag)
		if len(tags) == profile.MaxHashtags {
			break
		}
	}
	return tags
}

func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
