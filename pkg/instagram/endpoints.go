package instagram

import (
	"fmt"
	"net/url"
	"strings"

	"igproxy/pkg/errors"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// TimelineQueryHash selects the first page of a user's timeline media
	TimelineQueryHash = "42323d64886122307be10013ad2dcc44"

	// DefaultMediaLimit is the number of timeline posts fetched for a profile
	DefaultMediaLimit = 12

	// MaxMediaLimit is the largest page Instagram serves
	MaxMediaLimit = 50
)

// PostURL returns the JSON endpoint of a post
func PostURL(base, shortcode string) string {
	return fmt.Sprintf("%s/p/%s/?__a=1", base, url.PathEscape(shortcode))
}

// ReelURL returns the JSON endpoint of a reel
func ReelURL(base, shortcode string) string {
	return fmt.Sprintf("%s/reel/%s/?__a=1", base, url.PathEscape(shortcode))
}

// ProfileURL returns the JSON endpoint of a user profile
func ProfileURL(base, username string) string {
	return fmt.Sprintf("%s/%s/?__a=1", base, url.PathEscape(username))
}

// StoriesURL returns the JSON endpoint of a user's stories
func StoriesURL(base, username string) string {
	return fmt.Sprintf("%s/stories/%s/?__a=1", base, url.PathEscape(username))
}

// TimelineURL returns the GraphQL query for the first limit posts of a user
func TimelineURL(base, userID string, limit int) string {
	if limit <= 0 {
		limit = DefaultMediaLimit
	} else if limit > MaxMediaLimit {
		limit = MaxMediaLimit
	}

	params := url.Values{}
	params.Set("query_hash", TimelineQueryHash)
	params.Set("variables", fmt.Sprintf(`{"id":"%s","first":%d}`, userID, limit))
	return fmt.Sprintf("%s/graphql/query/?%s", base, params.Encode())
}

// Path segments that precede a shortcode
var (
	PostKinds = []string{"p", "reel", "reels", "tv"}
	ReelKinds = []string{"reel", "reels"}
)

// ParseShortcode extracts the shortcode from an Instagram URL whose path
// contains one of kinds followed by the code, e.g. https://instagram.com/p/ABC/
func ParseShortcode(rawURL string, kinds ...string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		for _, kind := range kinds {
			if segments[i] == kind && isValidShortcode(segments[i+1]) {
				return segments[i+1], true
			}
		}
	}
	return "", false
}

func isValidShortcode(code string) bool {
	if code == "" || len(code) > 64 {
		return false
	}
	for _, r := range code {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-') {
			return false
		}
	}
	return true
}

// PostShortcode parses a post URL, reporting a client error when it has no shortcode
func PostShortcode(rawURL string) (string, error) {
	code, ok := ParseShortcode(rawURL, PostKinds...)
	if !ok {
		return "", errors.Validation("Invalid Instagram post URL")
	}
	return code, nil
}

// ReelShortcode parses a reel URL, reporting a client error when it has no shortcode
func ReelShortcode(rawURL string) (string, error) {
	code, ok := ParseShortcode(rawURL, ReelKinds...)
	if !ok {
		return "", errors.Validation("Invalid Instagram reel URL")
	}
	return code, nil
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// letters, numbers, periods and underscores only
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}
	return true
}

// SanitizeUsername strips a leading @, surrounding spaces and trailing slashes
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	return strings.TrimRight(username, "/ ")
}

// NormalizeUsername sanitizes and validates a username, returning the
// lowercase form used for upstream requests and cache keys
func NormalizeUsername(username string) (string, error) {
	username = SanitizeUsername(username)
	if !IsValidUsername(username) {
		return "", errors.Validation("Invalid Instagram username")
	}
	return strings.ToLower(username), nil
}
