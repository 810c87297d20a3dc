// Package instagram fetches Instagram's public JSON endpoints and flattens
// their graph payloads into media items.
//
// Each Fetch method issues one request (two for profiles) with a desktop
// browser user agent, decodes the graph JSON and returns []models.MediaItem.
// Failures are *errors.Error values whose Message is the text API clients
// see, e.g. "Failed to fetch Instagram post".
//
//	client := instagram.NewClient(30*time.Second, log)
//	code, err := instagram.PostShortcode("https://www.instagram.com/p/CxYz123/")
//	items, err := client.FetchPost(ctx, code)
//
// The endpoints are undocumented and change without notice.
package instagram
