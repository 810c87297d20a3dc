package instagram

// Typenames found in Instagram's graph payloads
const (
	TypeImage      = "GraphImage"
	TypeVideo      = "GraphVideo"
	TypeSidecar    = "GraphSidecar"
	TypeStoryImage = "GraphStoryImage"
	TypeStoryVideo = "GraphStoryVideo"
)

// MediaNode is a post, reel or sidecar child
type MediaNode struct {
	Typename              string     `json:"__typename"`
	ID                    string     `json:"id"`
	Shortcode             string     `json:"shortcode"`
	DisplayURL            string     `json:"display_url"`
	VideoURL              string     `json:"video_url"`
	IsVideo               bool       `json:"is_video"`
	EdgeSidecarToChildren *MediaEdges `json:"edge_sidecar_to_children"`
}

// MediaEdges is a list of media nodes with an optional total
type MediaEdges struct {
	Count int `json:"count"`
	Edges []struct {
		Node MediaNode `json:"node"`
	} `json:"edges"`
}

// Counter is an edge that only carries a count
type Counter struct {
	Count int `json:"count"`
}

// PostResponse is the payload of /p/{code}/?__a=1 and /reel/{code}/?__a=1
type PostResponse struct {
	Graphql *struct {
		ShortcodeMedia *MediaNode `json:"shortcode_media"`
	} `json:"graphql"`
}

// User is the profile object in /{username}/?__a=1
type User struct {
	ID                       string  `json:"id"`
	Username                 string  `json:"username"`
	FullName                 string  `json:"full_name"`
	Biography                string  `json:"biography"`
	ProfilePicURLHD          string  `json:"profile_pic_url_hd"`
	IsPrivate                bool    `json:"is_private"`
	EdgeOwnerToTimelineMedia Counter `json:"edge_owner_to_timeline_media"`
	EdgeFollowedBy           Counter `json:"edge_followed_by"`
	EdgeFollow               Counter `json:"edge_follow"`
}

// ProfileResponse is the payload of /{username}/?__a=1
type ProfileResponse struct {
	Graphql *struct {
		User *User `json:"user"`
	} `json:"graphql"`
}

// TimelineResponse is the payload of the timeline GraphQL query
type TimelineResponse struct {
	Data *struct {
		User *struct {
			EdgeOwnerToTimelineMedia *MediaEdges `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

// StoryItem is one image or video inside a highlight reel
type StoryItem struct {
	Typename       string `json:"__typename"`
	ID             string `json:"id"`
	DisplayURL     string `json:"display_url"`
	VideoResources []struct {
		Src     string `json:"src"`
		Profile string `json:"profile"`
	} `json:"video_resources"`
}

// StoriesResponse is the payload of /stories/{username}/?__a=1
type StoriesResponse struct {
	Graphql *struct {
		User *struct {
			EdgeHighlightReels *struct {
				Edges []struct {
					Node struct {
						ID    string      `json:"id"`
						Items []StoryItem `json:"items"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"edge_highlight_reels"`
		} `json:"user"`
	} `json:"graphql"`
}
