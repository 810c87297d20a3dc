package instagram

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igproxy/pkg/models"
)

func TestExtractMediaSkipsUnknownTypes(t *testing.T) {
	var node MediaNode
	require.NoError(t, json.Unmarshal([]byte(`{"__typename":"GraphSidecar","edge_sidecar_to_children":{"edges":[
		{"node":{"__typename":"GraphImage","display_url":"a.jpg"}},
		{"node":{"__typename":"GraphAd","display_url":"ad.jpg"}},
		{"node":{"__typename":"GraphVideo","video_url":"b.mp4"}}
	]}}`), &node))

	assert.Equal(t, []models.MediaItem{models.Image("a.jpg"), models.Video("b.mp4")}, ExtractMedia(&node))
	assert.Nil(t, ExtractMedia(&MediaNode{Typename: "GraphUnknown"}))
	assert.Nil(t, ExtractMedia(nil))
}

func TestExtractPostUnknownTypeIsEmpty(t *testing.T) {
	var resp PostResponse
	require.NoError(t, json.Unmarshal([]byte(`{"graphql":{"shortcode_media":{"__typename":"GraphAd"}}}`), &resp))

	items, err := ExtractPost(&resp)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestExtractTimelineMissingPath(t *testing.T) {
	_, err := ExtractTimeline(&TimelineResponse{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.user.edge_owner_to_timeline_media")
}

func TestExtractStoriesVideoWithoutResources(t *testing.T) {
	var resp StoriesResponse
	require.NoError(t, json.Unmarshal([]byte(`{"graphql":{"user":{"edge_highlight_reels":{"edges":[
		{"node":{"items":[{"__typename":"GraphStoryVideo","id":"s9","video_resources":[]}]}}
	]}}}}`), &resp))

	_, err := ExtractStories(&resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "video_resources of story s9")
}

func TestExtractStoriesEmpty(t *testing.T) {
	var resp StoriesResponse
	require.NoError(t, json.Unmarshal([]byte(`{"graphql":{"user":{"edge_highlight_reels":{"edges":[]}}}}`), &resp))

	items, err := ExtractStories(&resp)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestProfileInfo(t *testing.T) {
	u := &User{
		Username:        "someone",
		FullName:        "Some One",
		ProfilePicURLHD: "pic.jpg",
		IsPrivate:       true,
	}
	u.EdgeOwnerToTimelineMedia.Count = 3
	u.EdgeFollowedBy.Count = 4
	u.EdgeFollow.Count = 5

	info := ProfileInfo(u)
	assert.Equal(t, "pic.jpg", info.Avatar)
	assert.Equal(t, 3, info.PostsCount)
	assert.Equal(t, 4, info.Followers)
	assert.Equal(t, 5, info.Following)
	assert.True(t, info.IsPrivate)
}
