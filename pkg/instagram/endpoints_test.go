package instagram

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igproxy/pkg/errors"
)

func TestEndpointURLs(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/p/CxYz123/?__a=1", PostURL(BaseURL, "CxYz123"))
	assert.Equal(t, "https://www.instagram.com/reel/Cr-1_a/?__a=1", ReelURL(BaseURL, "Cr-1_a"))
	assert.Equal(t, "https://www.instagram.com/nat.geo/?__a=1", ProfileURL(BaseURL, "nat.geo"))
	assert.Equal(t, "https://www.instagram.com/stories/nat_geo/?__a=1", StoriesURL(BaseURL, "nat_geo"))
}

func TestTimelineURL(t *testing.T) {
	tests := []struct {
		name          string
		limit         int
		wantVariables string
	}{
		{"default", 0, `{"id":"123","first":12}`},
		{"custom", 24, `{"id":"123","first":24}`},
		{"capped", 500, `{"id":"123","first":50}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(TimelineURL(BaseURL, "123", tt.limit))
			require.NoError(t, err)
			assert.Equal(t, "/graphql/query/", u.Path)
			assert.Equal(t, TimelineQueryHash, u.Query().Get("query_hash"))
			assert.Equal(t, tt.wantVariables, u.Query().Get("variables"))
		})
	}
}

func TestParseShortcode(t *testing.T) {
	tests := []struct {
		name  string
		url   string
		kinds []string
		want  string
		ok    bool
	}{
		{"post", "https://www.instagram.com/p/CxYz123/", PostKinds, "CxYz123", true},
		{"post with query", "https://instagram.com/p/CxYz123/?utm_source=ig_web_copy_link", PostKinds, "CxYz123", true},
		{"post without scheme", "instagram.com/p/Abc_-9", PostKinds, "Abc_-9", true},
		{"post with username prefix", "https://www.instagram.com/natgeo/p/Q1/", PostKinds, "Q1", true},
		{"reel via post endpoint", "https://www.instagram.com/reel/R1/", PostKinds, "R1", true},
		{"tv", "https://www.instagram.com/tv/T1/", PostKinds, "T1", true},
		{"reel", "https://www.instagram.com/reel/R1/", ReelKinds, "R1", true},
		{"reels", "https://www.instagram.com/reels/R2/", ReelKinds, "R2", true},
		{"post is not a reel", "https://www.instagram.com/p/P1/", ReelKinds, "", false},
		{"profile url", "https://www.instagram.com/natgeo/", PostKinds, "", false},
		{"no code", "https://www.instagram.com/p/", PostKinds, "", false},
		{"bad characters", "https://www.instagram.com/p/a%20b/", PostKinds, "", false},
		{"empty", "  ", PostKinds, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseShortcode(tt.url, tt.kinds...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShortcodeValidationErrors(t *testing.T) {
	_, err := PostShortcode("https://example.com/nothing")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "Invalid Instagram post URL", errors.PublicMessage(err))

	_, err = ReelShortcode("https://www.instagram.com/p/P1/")
	assert.Equal(t, "Invalid Instagram reel URL", errors.PublicMessage(err))
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"natgeo", true},
		{"nat.geo_2", true},
		{"UPPER", true},
		{"", false},
		{"has space", false},
		{"emoji😀", false},
		{"toolongusername_toolongusername", false},
		{"dash-name", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "natgeo", SanitizeUsername("@natgeo"))
	assert.Equal(t, "natgeo", SanitizeUsername(" natgeo/ "))
	assert.Equal(t, "", SanitizeUsername(""))
}

func TestNormalizeUsername(t *testing.T) {
	got, err := NormalizeUsername("@NatGeo/")
	require.NoError(t, err)
	assert.Equal(t, "natgeo", got)

	_, err = NormalizeUsername("not valid!")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
