package models

// MediaType identifies what a MediaItem points at
type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeProfile MediaType = "profile"
)

// MediaItem is a single entry of the normalized media list returned to clients.
// Image and video items carry URL, profile items carry Profile.
type MediaItem struct {
	Type    MediaType    `json:"type"`
	URL     string       `json:"url,omitempty"`
	Profile *ProfileInfo `json:"profile,omitempty"`
}

// ProfileInfo is the summary of a user shown above a profile's media grid
type ProfileInfo struct {
	Username   string `json:"username"`
	FullName   string `json:"full_name"`
	Avatar     string `json:"avatar"`
	PostsCount int    `json:"posts_count"`
	Followers  int    `json:"followers"`
	Following  int    `json:"following"`
	Bio        string `json:"bio"`
	IsPrivate  bool   `json:"is_private"`
}

// MediaResponse is the success payload of every media endpoint
type MediaResponse struct {
	Success bool        `json:"success"`
	Media   []MediaItem `json:"media"`
}

// ErrorResponse is the payload of every failed request
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// Image builds an image item
func Image(url string) MediaItem {
	return MediaItem{Type: MediaTypeImage, URL: url}
}

// Video builds a video item
func Video(url string) MediaItem {
	return MediaItem{Type: MediaTypeVideo, URL: url}
}

// Profile builds a profile item
func Profile(info ProfileInfo) MediaItem {
	return MediaItem{Type: MediaTypeProfile, Profile: &info}
}
