package instagram

import (
	"fmt"

	"igproxy/pkg/errors"
	"igproxy/pkg/models"
)

func missing(path string) error {
	return errors.New(errors.ErrorTypeParsing, 0, fmt.Sprintf("Unexpected response from Instagram: missing %s", path))
}

// ExtractMedia flattens a post node into media items.
// Sidecar children keep their order; unknown typenames yield nothing.
func ExtractMedia(node *MediaNode) []models.MediaItem {
	if node == nil {
		return nil
	}

	switch node.Typename {
	case TypeImage:
		return []models.MediaItem{models.Image(node.DisplayURL)}
	case TypeVideo:
		return []models.MediaItem{models.Video(node.VideoURL)}
	case TypeSidecar:
		if node.EdgeSidecarToChildren == nil {
			return nil
		}
		items := make([]models.MediaItem, 0, len(node.EdgeSidecarToChildren.Edges))
		for _, edge := range node.EdgeSidecarToChildren.Edges {
			switch edge.Node.Typename {
			case TypeImage:
				items = append(items, models.Image(edge.Node.DisplayURL))
			case TypeVideo:
				items = append(items, models.Video(edge.Node.VideoURL))
			}
		}
		return items
	default:
		return nil
	}
}

// ExtractPost returns the media of a post payload
func ExtractPost(resp *PostResponse) ([]models.MediaItem, error) {
	if resp.Graphql == nil || resp.Graphql.ShortcodeMedia == nil {
		return nil, missing("graphql.shortcode_media")
	}
	return nonNil(ExtractMedia(resp.Graphql.ShortcodeMedia)), nil
}

// ExtractReel returns the video of a reel payload; anything but a video yields no items
func ExtractReel(resp *PostResponse) ([]models.MediaItem, error) {
	if resp.Graphql == nil || resp.Graphql.ShortcodeMedia == nil {
		return nil, missing("graphql.shortcode_media")
	}
	node := resp.Graphql.ShortcodeMedia
	if node.Typename != TypeVideo {
		return []models.MediaItem{}, nil
	}
	return []models.MediaItem{models.Video(node.VideoURL)}, nil
}

// ProfileInfo converts an upstream user into the profile summary
func ProfileInfo(u *User) models.ProfileInfo {
	return models.ProfileInfo{
		Username:   u.Username,
		FullName:   u.FullName,
		Avatar:     u.ProfilePicURLHD,
		PostsCount: u.EdgeOwnerToTimelineMedia.Count,
		Followers:  u.EdgeFollowedBy.Count,
		Following:  u.EdgeFollow.Count,
		Bio:        u.Biography,
		IsPrivate:  u.IsPrivate,
	}
}

// ExtractTimeline flattens the timeline query into media items
func ExtractTimeline(resp *TimelineResponse) ([]models.MediaItem, error) {
	if resp.Data == nil || resp.Data.User == nil || resp.Data.User.EdgeOwnerToTimelineMedia == nil {
		return nil, missing("data.user.edge_owner_to_timeline_media")
	}

	items := []models.MediaItem{}
	for _, edge := range resp.Data.User.EdgeOwnerToTimelineMedia.Edges {
		items = append(items, ExtractMedia(&edge.Node)...)
	}
	return items, nil
}

// ExtractStories flattens every highlight reel into media items
func ExtractStories(resp *StoriesResponse) ([]models.MediaItem, error) {
	if resp.Graphql == nil || resp.Graphql.User == nil || resp.Graphql.User.EdgeHighlightReels == nil {
		return nil, missing("graphql.user.edge_highlight_reels")
	}

	items := []models.MediaItem{}
	for _, edge := range resp.Graphql.User.EdgeHighlightReels.Edges {
		for _, item := range edge.Node.Items {
			switch item.Typename {
			case TypeStoryImage:
				items = append(items, models.Image(item.DisplayURL))
			case TypeStoryVideo:
				if len(item.VideoResources) == 0 {
					return nil, missing("video_resources of story " + item.ID)
				}
				items = append(items, models.Video(item.VideoResources[0].Src))
			}
		}
	}
	return items, nil
}

func nonNil(items []models.MediaItem) []models.MediaItem {
	if items == nil {
		return []models.MediaItem{}
	}
	return items
}
