package bunny_test

import (
	"testing"

	"reelingest/internal/services/bunny"
)

func TestCDNHostnamePrefixing(t *testing.T) {
	cases := []struct {
		name     string
		hostname string
		want     string
	}{
		{"bare zone gets prefix", "demo.b-cdn.net", "https://vz-demo.b-cdn.net/g/play_720p.mp4"},
		{"prefixed zone unchanged", "vz-demo.b-cdn.net", "https://vz-demo.b-cdn.net/g/play_720p.mp4"},
		{"scheme stripped", "https://demo.b-cdn.net/", "https://vz-demo.b-cdn.net/g/play_720p.mp4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := bunny.NewClient(bunny.Config{
				APIKey:      "k",
				LibraryID:   "7",
				CDNHostname: tc.hostname,
			})
			if got := client.DirectURL("g"); got != tc.want {
				t.Fatalf("DirectURL = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestURLDerivationsAreDeterministic(t *testing.T) {
	client := bunny.NewClient(bunny.Config{APIKey: "k", LibraryID: "7", CDNHostname: "vz-x.b-cdn.net"})
	if client.PlaybackURL("abc") != client.PlaybackURL("abc") {
		t.Fatal("playback url not stable")
	}
	if got := client.PlaybackURL("abc"); got != "https://iframe.mediadelivery.net/embed/7/abc" {
		t.Fatalf("unexpected playback url %q", got)
	}
	if got := client.ThumbnailURL("abc"); got != "https://vz-x.b-cdn.net/abc/thumbnail.jpg" {
		t.Fatalf("unexpected thumbnail url %q", got)
	}
}
