// Package media turns the media URL configured on an activity into a
// playable source for the player.
package media

import (
	"context"
	"mime"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	MimeHLS = "application/x-mpegURL"
	MimeMP4 = "video/mp4"
)

// Origin tells where a Source came from.
type Origin string

const (
	OriginMediaCMS Origin = "mediacms"
	OriginDirect   Origin = "direct"
)

type Source struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Origin   Origin `json:"origin"`
}

// Resolver maps the URL an author entered to a playable source.
type Resolver interface {
	Resolve(ctx context.Context, userURL string) (Source, error)
}

var pathToken = regexp.MustCompile(`/(?:w|v|media)/([a-zA-Z0-9\-_]+)`)

// ExtractToken finds the media token in a MediaCMS page URL: ?v= or ?m=
// first, then /w/<token>, /v/<token> or /media/<token>.
func ExtractToken(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	q := u.Query()
	if v := q.Get("v"); v != "" {
		return v, true
	}
	if m := q.Get("m"); m != "" {
		return m, true
	}
	if m := pathToken.FindStringSubmatch(u.Path); m != nil {
		return m[1], true
	}
	return "", false
}

var videoTypes = map[string]string{
	".m3u8": MimeHLS,
	".mpd":  "application/dash+xml",
	".mp4":  MimeMP4,
	".m4v":  MimeMP4,
	".webm": "video/webm",
	".ogv":  "video/ogg",
	".mov":  "video/quicktime",
}

// GuessMimeType guesses a content type from the URL path. Anything that
// mentions .m3u8 is HLS; unknown types default to video/mp4.
func GuessMimeType(raw string) string {
	if strings.Contains(strings.ToLower(raw), ".m3u8") {
		return MimeHLS
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if t, ok := videoTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); strings.HasPrefix(t, "video/") || strings.HasPrefix(t, "audio/") {
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = t[:i]
		}
		return t
	}
	return MimeMP4
}

// Direct plays the user URL as is.
func Direct(userURL string) Source {
	userURL = strings.TrimSpace(userURL)
	return Source{URL: userURL, MimeType: GuessMimeType(userURL), Origin: OriginDirect}
}
