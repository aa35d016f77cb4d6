package middleware

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/bryanwahyu/repo-analyzer/internal/domain/analysis"
)

// Input validation and sanitization utilities

const maxRepositoryURLLength = 2048

// DefaultAllowedHosts are the code hosts accepted when none are configured.
var DefaultAllowedHosts = []string{"github.com"}

// ValidateRepositoryURL checks that raw names a repository on one of the
// allowed hosts and returns it normalized. A missing scheme means https.
func ValidateRepositoryURL(raw string, allowedHosts []string) (string, error) {
	raw = SanitizeString(raw)
	if raw == "" {
		return "", invalidURL("URL cannot be empty")
	}
	if len(raw) > maxRepositoryURLLength {
		return "", invalidURL(fmt.Sprintf("URL longer than %d characters", maxRepositoryURLLength))
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	// Parse URL
	u, err := url.Parse(raw)
	if err != nil {
		return "", invalidURL("invalid URL format")
	}

	// Check scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", invalidURL(fmt.Sprintf("invalid URL scheme: %s (allowed: http, https)", u.Scheme))
	}
	if u.User != nil {
		return "", invalidURL("credentials in URL are not allowed")
	}

	host := strings.ToLower(u.Hostname())
	if !hostAllowed(host, allowedHosts) {
		return "", invalidURL(fmt.Sprintf("host %q is not an accepted code host", host))
	}

	segments := make([]string, 0, 2)
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return "", invalidURL("URL must name an owner and a repository")
	}
	for _, s := range segments[:2] {
		if s == "." || s == ".." {
			return "", invalidURL("path traversal detected")
		}
	}

	u.Host = strings.ToLower(u.Host)
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/"), nil
}

func hostAllowed(host string, allowed []string) bool {
	if len(allowed) == 0 {
		allowed = DefaultAllowedHosts
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func invalidURL(reason string) error {
	return &analysis.InputValidationError{Field: "repositoryUrl", Reason: reason}
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates the page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}
