package auth

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

// AvatarURL derives an avatar location from an email address
type AvatarURL func(email string) string

// GravatarOptions are the query parameters sent to gravatar
type GravatarOptions struct {
	Size    string
	Rating  string
	Default string
}

// DefaultGravatarOptions are 200px, pg rated, mystery man fallback
var DefaultGravatarOptions = GravatarOptions{
	Size:    "200",
	Rating:  "pg",
	Default: "mm",
}

// GravatarURL returns a protocol relative gravatar URL for email
func GravatarURL(email string, opts GravatarOptions) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))

	q := url.Values{}
	if opts.Size != "" {
		q.Set("s", opts.Size)
	}
	if opts.Rating != "" {
		q.Set("r", opts.Rating)
	}
	if opts.Default != "" {
		q.Set("d", opts.Default)
	}

	u := "//www.gravatar.com/avatar/" + hex.EncodeToString(sum[:])
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func defaultAvatarURL(email string) string {
	return GravatarURL(email, DefaultGravatarOptions)
}
