// Package youtube extracts video identifiers from the URL shapes YouTube uses
// and fetches caption transcripts plus basic video metadata.
package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/onnwee/recipe-scribe/recipe"
)

// VideoID is a normalized YouTube video identifier.
type VideoID string

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// hosts that serve watch pages. Subdomains like m. and music. are matched by
// suffix below.
var knownHosts = []string{"youtube.com", "youtube-nocookie.com", "youtu.be"}

func knownHost(host string) bool {
	host = strings.ToLower(host)
	for _, h := range knownHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// pathPrefixes whose next segment is the video id.
var pathPrefixes = []string{"/shorts/", "/embed/", "/live/", "/v/"}

// ExtractVideoID parses a video link and returns its normalized identifier.
// Equivalent forms of the same video (watch link, shortened link, shorts,
// embed) yield the same VideoID. Unrecognized input fails with an error
// wrapping recipe.ErrInvalidLink. No side effects.
func ExtractVideoID(raw string) (VideoID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty input", recipe.ErrInvalidLink)
	}
	// Chat messages often omit the scheme; url.Parse would treat the host as
	// a path in that case.
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", recipe.ErrInvalidLink, err)
	}
	if !knownHost(u.Hostname()) {
		return "", fmt.Errorf("%w: unknown host %q", recipe.ErrInvalidLink, u.Hostname())
	}

	var id string
	switch {
	case strings.EqualFold(u.Hostname(), "youtu.be"):
		id = strings.Split(strings.TrimPrefix(u.Path, "/"), "/")[0]
	case u.Path == "/watch":
		id = u.Query().Get("v")
	default:
		for _, p := range pathPrefixes {
			if strings.HasPrefix(u.Path, p) {
				id = strings.Split(strings.TrimPrefix(u.Path, p), "/")[0]
				break
			}
		}
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: no video id in %q", recipe.ErrInvalidLink, raw)
	}
	return VideoID(id), nil
}
