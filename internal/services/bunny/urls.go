package bunny

import (
	"fmt"
	"strings"
)

// PlaybackURL returns the embeddable player URL for a published video.
func (c *Client) PlaybackURL(guid string) string {
	return fmt.Sprintf("https://iframe.mediadelivery.net/embed/%s/%s", c.cfg.LibraryID, guid)
}

// DirectURL returns the direct MP4 rendition served from the pull zone.
func (c *Client) DirectURL(guid string) string {
	return fmt.Sprintf("https://%s/%s/play_720p.mp4", c.cfg.CDNHostname, guid)
}

// ThumbnailURL returns the thumbnail location on the pull zone. The path is
// stable whether or not a custom thumbnail was uploaded.
func (c *Client) ThumbnailURL(guid string) string {
	return fmt.Sprintf("https://%s/%s/thumbnail.jpg", c.cfg.CDNHostname, guid)
}

// normalizeCDNHostname strips any scheme and applies the stream pull-zone
// "vz-" prefix when the configured hostname omits it.
func normalizeCDNHostname(hostname string) string {
	host := strings.TrimSpace(hostname)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimSuffix(host, "/")
	if host == "" {
		return host
	}
	if !strings.HasPrefix(host, "vz-") {
		host = "vz-" + host
	}
	return host
}
