package youtube

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// VideoMeta is the subset of Data API metadata the bot uses for logging and
// chat replies.
type VideoMeta struct {
	ID           VideoID
	Title        string
	ChannelTitle string
}

// VideoMeta looks a video up via the YouTube Data API. It requires APIKey to
// be set; callers treat a missing key or a lookup failure as "no metadata",
// never as a pipeline failure.
func (c *Client) VideoMeta(ctx context.Context, id VideoID) (*VideoMeta, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("no youtube api key configured")
	}
	// WithHTTPClient supersedes credential options, so it is only set when a
	// test injects a client.
	var opts []option.ClientOption
	if c.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(c.HTTPClient))
	} else {
		opts = append(opts, option.WithAPIKey(c.APIKey))
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(c.BaseURL))
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	res, err := svc.Videos.List([]string{"snippet"}).Id(string(id)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list: %w", err)
	}
	if len(res.Items) == 0 {
		return nil, fmt.Errorf("video %s not found", id)
	}
	sn := res.Items[0].Snippet
	return &VideoMeta{ID: id, Title: sn.Title, ChannelTitle: sn.ChannelTitle}, nil
}
