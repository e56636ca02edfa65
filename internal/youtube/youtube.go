// Package youtube resolves a shared link into video metadata via the
// YouTube Data API.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrNotYouTube    = errors.New("not a youtube url")
	ErrNoVideoID     = errors.New("cannot extract video id")
	ErrVideoNotFound = errors.New("video not found")
)

// ParseVideoID accepts watch URLs (youtube.com/watch?v=ID) and short
// links (youtu.be/ID).
func ParseVideoID(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrNotYouTube
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		id := u.Query().Get("v")
		if id == "" {
			return "", ErrNoVideoID
		}
		return id, nil
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id == "" || strings.Contains(id, "/") {
			return "", ErrNoVideoID
		}
		return id, nil
	}
	return "", ErrNotYouTube
}

type Video struct {
	Title       string
	Description string
	Thumbnail   string
}

type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://www.googleapis.com/youtube/v3",
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Lookup fetches the snippet of a video.
func (c *Client) Lookup(ctx context.Context, videoID string) (*Video, error) {
	q := url.Values{}
	q.Set("id", videoID)
	q.Set("key", c.APIKey)
	q.Set("part", "snippet")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/videos?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("youtube api status=%d", resp.StatusCode)
	}

	var body struct {
		Items []struct {
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Thumbnails  struct {
					High struct {
						URL string `json:"url"`
					} `json:"high"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Items) == 0 {
		return nil, ErrVideoNotFound
	}
	sn := body.Items[0].Snippet
	return &Video{Title: sn.Title, Description: sn.Description, Thumbnail: sn.Thumbnails.High.URL}, nil
}
