package instagram

import (
	"context"
	"fmt"

	"igproxy/pkg/errors"
	"igproxy/pkg/models"
)

// FetchPost returns the media of the post with the given shortcode
func (c *Client) FetchPost(ctx context.Context, shortcode string) ([]models.MediaItem, error) {
	var resp PostResponse
	if err := c.GetJSON(ctx, PostURL(c.baseURL, shortcode), msgPost, &resp); err != nil {
		return nil, err
	}

	items, err := ExtractPost(&resp)
	if err != nil {
		return nil, err
	}
	c.logger.DebugWithFields("post extracted", map[string]interface{}{
		"shortcode": shortcode,
		"items":     len(items),
	})
	return items, nil
}

// FetchReel returns the video of the reel with the given shortcode
func (c *Client) FetchReel(ctx context.Context, shortcode string) ([]models.MediaItem, error) {
	var resp PostResponse
	if err := c.GetJSON(ctx, ReelURL(c.baseURL, shortcode), msgReel, &resp); err != nil {
		return nil, err
	}
	return ExtractReel(&resp)
}

// FetchProfile returns a profile item followed by the media of the user's
// first page of timeline posts
func (c *Client) FetchProfile(ctx context.Context, username string) ([]models.MediaItem, error) {
	var profile ProfileResponse
	if err := c.GetJSON(ctx, ProfileURL(c.baseURL, username), msgProfile, &profile); err != nil {
		return nil, err
	}
	if profile.Graphql == nil || profile.Graphql.User == nil {
		return nil, missing("graphql.user")
	}
	user := profile.Graphql.User
	if user.ID == "" {
		return nil, errors.New(errors.ErrorTypeParsing, 0, fmt.Sprintf("Unexpected response from Instagram: user %s has no id", username))
	}

	var timeline TimelineResponse
	if err := c.GetJSON(ctx, TimelineURL(c.baseURL, user.ID, c.profilePostCount), msgPosts, &timeline); err != nil {
		return nil, err
	}
	posts, err := ExtractTimeline(&timeline)
	if err != nil {
		return nil, err
	}

	items := make([]models.MediaItem, 0, len(posts)+1)
	items = append(items, models.Profile(ProfileInfo(user)))
	items = append(items, posts...)

	c.logger.DebugWithFields("profile extracted", map[string]interface{}{
		"username": username,
		"items":    len(posts),
		"private":  user.IsPrivate,
	})
	return items, nil
}

// FetchStories returns every story item of the user's highlight reels
func (c *Client) FetchStories(ctx context.Context, username string) ([]models.MediaItem, error) {
	var resp StoriesResponse
	if err := c.GetJSON(ctx, StoriesURL(c.baseURL, username), msgStories, &resp); err != nil {
		return nil, err
	}
	return ExtractStories(&resp)
}
