package tracker

import (
	"net/url"
	"strings"

	"github.com/tabwatch/tabwatch/internal/models"
)

// Schemes the browser uses for internal pages. Time spent on these is
// never tracked.
var untrackableSchemes = []string{
	"chrome://",
	"chrome-extension://",
	"edge://",
	"about:",
	"moz-extension://",
	"brave://",
	"devtools://",
	"view-source:",
}

// IsTrackableURL reports whether rawURL points at a trackable web page:
// it must carry a scheme separator and not be an internal browser,
// extension or about page.
func IsTrackableURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	for _, scheme := range untrackableSchemes {
		if strings.HasPrefix(rawURL, scheme) {
			return false
		}
	}
	return strings.Contains(rawURL, "://")
}

// ExtractDomain returns the host component of rawURL, or the "unknown"
// sentinel when the URL cannot be parsed into a host.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return models.UnknownDomain
	}
	return u.Hostname()
}
