package external

import (
	"context"
	"fmt"
	"net/url"

	"skylog/internal/types"
)

// defaultYouTubeBaseURL is the YouTube Data API v3 search endpoint base.
const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// Video is one YouTube search result projected for API consumers.
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Thumbnail    string `json:"thumbnail"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
	URL          string `json:"url"`
}

// YouTubeClient wraps the YouTube Data API v3 search endpoint to find travel
// videos for a location.
type YouTubeClient struct {
	base    *BaseClient
	apiKey  string
	baseURL string
}

// NewYouTubeClient creates a YouTube client. baseURL may be empty to use the
// public endpoint.
func NewYouTubeClient(base *BaseClient, apiKey, baseURL string) *YouTubeClient {
	if baseURL == "" {
		baseURL = defaultYouTubeBaseURL
	}
	return &YouTubeClient{base: base, apiKey: apiKey, baseURL: baseURL}
}

// searchResponse is the wire shape of the YouTube search endpoint.
type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

// SearchTravelVideos returns up to five medium-length English travel videos
// for the given location. The search query appends "travel guide tour" to
// bias results toward destination guides.
func (c *YouTubeClient) SearchTravelVideos(ctx context.Context, location string) ([]Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("q", location+" travel guide tour")
	q.Set("type", "video")
	q.Set("maxResults", "5")
	q.Set("videoDuration", "medium")
	q.Set("relevanceLanguage", "en")
	q.Set("key", c.apiKey)

	u := fmt.Sprintf("%s/search?%s", c.baseURL, q.Encode())

	var resp searchResponse
	if err := c.base.GetJSON(ctx, u, types.ErrCodeUpstreamEnrichment, &resp); err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, Video{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    item.Snippet.Thumbnails.Medium.URL,
			ChannelTitle: item.Snippet.ChannelTitle,
			PublishedAt:  item.Snippet.PublishedAt,
			URL:          "https://www.youtube.com/watch?v=" + item.ID.VideoID,
		})
	}
	return videos, nil
}
