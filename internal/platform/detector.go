package platform

import (
	"net/url"
	"strings"
)

// Platform identifies the source site a video URL originates from.
type Platform string

const (
	TikTok    Platform = "tiktok"
	Instagram Platform = "instagram"
	YouTube   Platform = "youtube"
	Unknown   Platform = "unknown"
)

// Detection is the result of classifying a source URL.
type Detection struct {
	Platform  Platform
	Supported bool
	Reason    string
}

// Detect classifies a URL by source platform. It performs no I/O and always
// returns a result, even for garbage input.
func Detect(raw string) Detection {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Detection{Platform: Unknown, Reason: "empty url"}
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return Detection{Platform: Unknown, Reason: "malformed url"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Detection{Platform: Unknown, Reason: "unsupported scheme " + parsed.Scheme}
	}

	host := strings.ToLower(strings.TrimPrefix(parsed.Hostname(), "www."))
	path := parsed.Path

	switch {
	case host == "tiktok.com" || strings.HasSuffix(host, ".tiktok.com"):
		return Detection{Platform: TikTok, Supported: true}
	case host == "instagram.com" || host == "instagr.am":
		if !hasInstagramMediaPath(path) {
			return Detection{Platform: Instagram, Reason: "instagram url is not a reel or post"}
		}
		return Detection{Platform: Instagram, Supported: true}
	case host == "youtube.com" || host == "m.youtube.com":
		if !hasYouTubeMediaPath(path, parsed.Query()) {
			return Detection{Platform: YouTube, Reason: "youtube url has no video id"}
		}
		return Detection{Platform: YouTube, Supported: true}
	case host == "youtu.be":
		if strings.Trim(path, "/") == "" {
			return Detection{Platform: YouTube, Reason: "youtube url has no video id"}
		}
		return Detection{Platform: YouTube, Supported: true}
	default:
		return Detection{Platform: Unknown, Reason: "platform not supported: " + host}
	}
}

func hasInstagramMediaPath(path string) bool {
	for _, prefix := range []string{"/reel/", "/reels/", "/p/", "/tv/"} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return true
		}
	}
	return false
}

func hasYouTubeMediaPath(path string, query url.Values) bool {
	if strings.HasPrefix(path, "/watch") {
		return query.Get("v") != ""
	}
	for _, prefix := range []string{"/shorts/", "/embed/", "/live/"} {
		if strings.HasPrefix(path, prefix) && len(path) > len(prefix) {
			return true
		}
	}
	return false
}
