package plan

import (
	"strings"
	"testing"

	"github.com/plexura/syndic/errors"
)

func TestRegistryProfiles(t *testing.T) {
	r := DefaultRegistry()

	twitter := r.Capabilities("twitter")
	if len(twitter) != 4 || twitter[3] != "thread" {
		t.Errorf("unexpected twitter capabilities: %v", twitter)
	}

	if !r.Known("Twitter ") {
		t.Error("expected normalized lookup to find twitter")
	}
	if r.Known("mastodon") {
		t.Error("mastodon should not have its own profile")
	}

	fallback := r.Capabilities("mastodon")
	if len(fallback) != 2 || fallback[0] != "text" || fallback[1] != "image" {
		t.Errorf("unexpected default capabilities: %v", fallback)
	}

	names := r.Platforms()
	if len(names) != 7 {
		t.Fatalf("expected 7 profiled platforms, got %v", names)
	}
	if names[0] != "facebook" || names[len(names)-1] != "youtube" {
		t.Errorf("expected sorted names, got %v", names)
	}
	for _, name := range names {
		if name == "default" {
			t.Error("default entry should not be listed")
		}
	}
}

func TestShapeTwitterLinkBudget(t *testing.T) {
	r := DefaultRegistry()
	link := "https://blog.example/posts/scaling-postgres-for-fun-and-profit"

	body := strings.Repeat("a", 257)
	got, err := r.ShapeContent("twitter", ShapeInput{Message: body, Link: link})
	if err != nil {
		t.Fatalf("ShapeContent failed at the budget boundary: %v", err)
	}
	if got != body+" "+link {
		t.Errorf("unexpected shaped content: %q", got)
	}

	_, err = r.ShapeContent("twitter", ShapeInput{Message: strings.Repeat("a", 258), Link: link})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error over the link budget, got %v", err)
	}
	if !strings.Contains(err.Error(), "280") {
		t.Errorf("error should name the limit: %v", err)
	}
}

func TestShapeTwitterHashtags(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.ShapeContent("twitter", ShapeInput{
		Message:  "Ship day.",
		Link:     "https://blog.example/ship",
		Keywords: []string{"golang", "devops", "extra"},
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	want := "Ship day. https://blog.example/ship #golang #devops"
	if got != want {
		t.Errorf("shaped content = %q, want %q", got, want)
	}
}

func TestShapeTwitterHashtagsStopAtCap(t *testing.T) {
	r := DefaultRegistry()

	body := strings.Repeat("a", 270)
	got, err := r.ShapeContent("twitter", ShapeInput{
		Message:  body,
		Keywords: []string{"golang", "devops"},
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	if got != body+" #golang" {
		t.Errorf("expected only the first hashtag to fit, got %q", got)
	}
}

func TestShapeTwitterSkipsLongKeywords(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.ShapeContent("twitter", ShapeInput{
		Message:  "Morning read.",
		Keywords: []string{"averyveryverylongkeyword", "cloud native"},
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	if got != "Morning read. #cloudnative" {
		t.Errorf("shaped content = %q", got)
	}
}

func TestShapeLinkedIn(t *testing.T) {
	r := DefaultRegistry()
	link := "https://blog.example/scaling"

	got, err := r.ShapeContent("linkedin", ShapeInput{
		Message: "Lessons from a year of query tuning.",
		Link:    link,
		Title:   "Scaling Postgres",
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	want := "\"Scaling Postgres\"\n\nLessons from a year of query tuning.\n\nRead more: " + link
	if got != want {
		t.Errorf("shaped content = %q, want %q", got, want)
	}

	// The title is not re-quoted when the message already mentions it.
	got, err = r.ShapeContent("linkedin", ShapeInput{
		Message: "Notes on scaling postgres in production.",
		Link:    link,
		Title:   "Scaling Postgres",
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	if strings.HasPrefix(got, "\"") {
		t.Errorf("title should not be quoted twice: %q", got)
	}
}

func TestShapeFacebookLinkParagraph(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.ShapeContent("facebook", ShapeInput{
		Message: "New post is live.",
		Link:    "https://blog.example/live",
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	if got != "New post is live.\n\nhttps://blog.example/live" {
		t.Errorf("shaped content = %q", got)
	}
}

func TestShapeInstagramHashtags(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.ShapeContent("instagram", ShapeInput{
		Message:  "Sunset drop",
		Link:     "https://blog.example/ignored",
		Keywords: []string{"Go", "Cloud Native", "api", "ml", "data", "six"},
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	want := "Sunset drop\n\n#go #cloudnative #api #ml #data"
	if got != want {
		t.Errorf("shaped content = %q, want %q", got, want)
	}
	if strings.Contains(got, "blog.example") {
		t.Errorf("instagram content should not carry the link: %q", got)
	}
}

func TestShapeCapRejectsInsteadOfTruncating(t *testing.T) {
	r := DefaultRegistry()

	_, err := r.ShapeContent("linkedin", ShapeInput{Message: strings.Repeat("a", 3001)})
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "3000") {
		t.Errorf("error should name the limit: %v", err)
	}
}

func TestShapeUnknownPlatformUsesDefault(t *testing.T) {
	r := DefaultRegistry()

	got, err := r.ShapeContent("mastodon", ShapeInput{
		Message: "Hello fediverse.",
		Link:    "https://blog.example/hello",
	})
	if err != nil {
		t.Fatalf("ShapeContent failed: %v", err)
	}
	if got != "Hello fediverse.\n\nhttps://blog.example/hello" {
		t.Errorf("shaped content = %q", got)
	}
}

func TestFilterMedia(t *testing.T) {
	r := DefaultRegistry()
	urls := []string{"https://cdn.example/a.jpg"}

	if got := r.FilterMedia("twitter", urls); len(got) != 1 {
		t.Errorf("twitter should keep media, got %v", got)
	}
	if got := r.FilterMedia("twitter", nil); got != nil {
		t.Errorf("empty input should stay empty, got %v", got)
	}

	textOnly := &Registry{profiles: map[string]PlatformProfile{
		"default": {Capabilities: []string{"text"}},
	}}
	if got := textOnly.FilterMedia("anything", urls); got != nil {
		t.Errorf("text-only platform should drop media, got %v", got)
	}
}
