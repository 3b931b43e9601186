// Package geotime resolves user-supplied timezone hints into canonical
// IANA names. Scheduling tools accept anything from "America/New_York"
// to "pst" to "berlin"; everything downstream works with validated IANA
// zones only.
package geotime

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/plexura/syndic/errors"
)

var locationKeywordTimezones = map[string]string{
	"new york":       "America/New_York",
	"boston":         "America/New_York",
	"washington":     "America/New_York",
	"usa":            "America/New_York",
	"united states":  "America/New_York",
	"chicago":        "America/Chicago",
	"austin":         "America/Chicago",
	"denver":         "America/Denver",
	"san francisco":  "America/Los_Angeles",
	"los angeles":    "America/Los_Angeles",
	"seattle":        "America/Los_Angeles",
	"california":     "America/Los_Angeles",
	"bay area":       "America/Los_Angeles",
	"toronto":        "America/Toronto",
	"canada":         "America/Toronto",
	"vancouver":      "America/Vancouver",
	"mexico city":    "America/Mexico_City",
	"mexico":         "America/Mexico_City",
	"sao paulo":      "America/Sao_Paulo",
	"brazil":         "America/Sao_Paulo",
	"buenos aires":   "America/Argentina/Buenos_Aires",
	"london":         "Europe/London",
	"united kingdom": "Europe/London",
	"england":        "Europe/London",
	"manchester":     "Europe/London",
	"dublin":         "Europe/Dublin",
	"ireland":        "Europe/Dublin",
	"paris":          "Europe/Paris",
	"france":         "Europe/Paris",
	"berlin":         "Europe/Berlin",
	"germany":        "Europe/Berlin",
	"munich":         "Europe/Berlin",
	"amsterdam":      "Europe/Amsterdam",
	"netherlands":    "Europe/Amsterdam",
	"madrid":         "Europe/Madrid",
	"spain":          "Europe/Madrid",
	"rome":           "Europe/Rome",
	"italy":          "Europe/Rome",
	"stockholm":      "Europe/Stockholm",
	"sweden":         "Europe/Stockholm",
	"sydney":         "Australia/Sydney",
	"melbourne":      "Australia/Sydney",
	"australia":      "Australia/Sydney",
	"singapore":      "Asia/Singapore",
	"hong kong":      "Asia/Hong_Kong",
	"tokyo":          "Asia/Tokyo",
	"japan":          "Asia/Tokyo",
	"india":          "Asia/Kolkata",
	"mumbai":         "Asia/Kolkata",
	"bangalore":      "Asia/Kolkata",
	"dubai":          "Asia/Dubai",
	"uae":            "Asia/Dubai",
}

var countryCodeTimezones = map[string]string{
	"us": "America/New_York",
	"ca": "America/Toronto",
	"mx": "America/Mexico_City",
	"br": "America/Sao_Paulo",
	"ar": "America/Argentina/Buenos_Aires",
	"gb": "Europe/London",
	"uk": "Europe/London",
	"ie": "Europe/Dublin",
	"fr": "Europe/Paris",
	"de": "Europe/Berlin",
	"nl": "Europe/Amsterdam",
	"be": "Europe/Brussels",
	"es": "Europe/Madrid",
	"it": "Europe/Rome",
	"se": "Europe/Stockholm",
	"no": "Europe/Oslo",
	"dk": "Europe/Copenhagen",
	"fi": "Europe/Helsinki",
	"au": "Australia/Sydney",
	"nz": "Pacific/Auckland",
	"sg": "Asia/Singapore",
	"hk": "Asia/Hong_Kong",
	"jp": "Asia/Tokyo",
	"kr": "Asia/Seoul",
	"in": "Asia/Kolkata",
	"il": "Asia/Jerusalem",
	"ae": "Asia/Dubai",
}

var timezoneByAbbreviation = map[string]string{
	"pst":  "America/Los_Angeles",
	"pdt":  "America/Los_Angeles",
	"mst":  "America/Denver",
	"mdt":  "America/Denver",
	"cst":  "America/Chicago",
	"cdt":  "America/Chicago",
	"est":  "America/New_York",
	"edt":  "America/New_York",
	"bst":  "Europe/London",
	"cet":  "Europe/Berlin",
	"cest": "Europe/Berlin",
	"ist":  "Asia/Kolkata",
	"sgt":  "Asia/Singapore",
	"hkt":  "Asia/Hong_Kong",
	"jst":  "Asia/Tokyo",
	"aest": "Australia/Sydney",
	"utc":  "UTC",
	"gmt":  "UTC",
}

// NormalizeTimezone resolves user input into a valid IANA timezone.
func NormalizeTimezone(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", errors.NewValidationError("timezone cannot be empty")
	}

	// Already valid: canonicalize casing like "america/New_york" without
	// mangling proper names like "America/Port_of_Spain"
	if isValidTimezone(trimmed) {
		if canonical := canonicalizeValidTimezone(trimmed); canonical != "" {
			return canonical, nil
		}
		return trimmed, nil
	}

	candidate := sanitizeTimezone(trimmed)
	if isValidTimezone(candidate) {
		return candidate, nil
	}

	lower := strings.ToLower(trimmed)
	if tz, ok := timezoneByAbbreviation[lower]; ok {
		return tz, nil
	}

	if tz := GuessTimezoneFromLocation(lower); tz != "" {
		return tz, nil
	}

	if tz, ok := countryCodeTimezones[lower]; ok {
		return tz, nil
	}

	return "", errors.WithHint(
		errors.NewValidationError("unknown timezone: %s", input),
		"Use an IANA name like America/New_York, an abbreviation like pst, or a city name")
}

// GuessTimezoneFromLocation uses keyword heuristics to derive a timezone
// from free-form audience or location text.
func GuessTimezoneFromLocation(location string) string {
	lower := strings.ToLower(strings.TrimSpace(location))
	for keyword, timezone := range locationKeywordTimezones {
		if strings.Contains(lower, keyword) {
			return timezone
		}
	}
	return ""
}

// GuessTimezoneFromCountryCode maps ISO-like country codes to timezones.
func GuessTimezoneFromCountryCode(code string) string {
	lower := strings.ToLower(strings.TrimSpace(code))
	if tz, ok := countryCodeTimezones[lower]; ok {
		return tz
	}
	return ""
}

// DetectLocalTimezone attempts to determine the host operating system timezone.
func DetectLocalTimezone() (string, error) {
	if tz := os.Getenv("TZ"); tz != "" {
		if isValidTimezone(tz) {
			return tz, nil
		}
	}

	if name := time.Now().Location().String(); name != "" && name != "Local" {
		if isValidTimezone(name) {
			return name, nil
		}
	}

	if data, err := os.ReadFile("/etc/timezone"); err == nil {
		tz := sanitizeTimezone(string(data))
		if isValidTimezone(tz) {
			return tz, nil
		}
	}

	if tz, err := readZoneinfoSymlink("/etc/localtime"); err == nil && tz != "" {
		return tz, nil
	}
	if tz, err := readZoneinfoSymlink("/var/db/timezone/zoneinfo/localtime"); err == nil && tz != "" {
		return tz, nil
	}

	return "", errors.New("could not detect local timezone: tried TZ env var, time.Now().Location(), /etc/timezone, /etc/localtime, /var/db/timezone/zoneinfo/localtime")
}

func readZoneinfoSymlink(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", err
	}
	idx := strings.Index(resolved, "zoneinfo")
	if idx == -1 {
		return "", errors.New("zoneinfo segment not found")
	}
	candidate := strings.TrimPrefix(resolved[idx+len("zoneinfo"):], string(filepath.Separator))
	candidate = strings.ReplaceAll(candidate, string(os.PathSeparator), "/")
	candidate = sanitizeTimezone(candidate)
	if isValidTimezone(candidate) {
		return candidate, nil
	}
	return "", errors.Newf("invalid timezone: %q (from %s)", candidate, path)
}

func sanitizeTimezone(tz string) string {
	trimmed := strings.TrimSpace(tz)
	trimmed = strings.Trim(trimmed, "\"'")
	trimmed = strings.ReplaceAll(trimmed, " ", "_")
	if strings.Contains(trimmed, "/") {
		parts := strings.Split(trimmed, "/")
		for i, part := range parts {
			parts[i] = title(part)
		}
		return strings.Join(parts, "/")
	}
	return title(trimmed)
}

func title(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func isValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// canonicalizeValidTimezone fixes casing for zones like "america/New_york"
// but returns empty for already-proper names so they pass through untouched.
func canonicalizeValidTimezone(tz string) string {
	if strings.ToLower(tz) == tz || hasIncorrectCapitalization(tz) {
		candidate := sanitizeTimezone(tz)
		if isValidTimezone(candidate) && candidate != tz {
			return candidate
		}
	}
	return ""
}

func hasIncorrectCapitalization(tz string) bool {
	if strings.ToLower(tz) == tz {
		return true
	}

	if strings.Contains(tz, "/") {
		parts := strings.Split(tz, "/")
		for _, part := range parts {
			if len(part) > 0 && part[0] >= 'a' && part[0] <= 'z' {
				return true
			}
		}
	}

	return false
}

// ValidateTimezone ensures the timezone string maps to a valid IANA entry.
func ValidateTimezone(tz string) error {
	if !isValidTimezone(tz) {
		return errors.Newf("invalid timezone: %s", tz)
	}
	return nil
}
