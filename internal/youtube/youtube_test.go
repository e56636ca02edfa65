package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseVideoID(t *testing.T) {
	cases := []struct {
		url string
		id  string
		err error
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", nil},
		{"https://youtube.com/watch?v=abc", "abc", nil},
		{"https://m.youtube.com/watch?v=abc&t=10s", "abc", nil},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", nil},
		{"https://www.youtube.com/watch", "", ErrNoVideoID},
		{"https://youtu.be/", "", ErrNoVideoID},
		{"https://vimeo.com/12345", "", ErrNotYouTube},
		{"not a url at all ://", "", ErrNotYouTube},
	}
	for _, c := range cases {
		id, err := ParseVideoID(c.url)
		if c.err != nil {
			if !errors.Is(err, c.err) {
				t.Fatalf("%s: got err %v, want %v", c.url, err, c.err)
			}
			continue
		}
		if err != nil || id != c.id {
			t.Fatalf("%s: got (%q, %v), want %q", c.url, id, err, c.id)
		}
	}
}

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "vid1" {
			t.Errorf("id = %q", got)
		}
		if got := r.URL.Query().Get("part"); got != "snippet" {
			t.Errorf("part = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [{"snippet": {
				"title": "A Funny Movie",
				"description": "desc",
				"thumbnails": {"high": {"url": "http://img/hq.jpg"}}
			}}]
		}`))
	}))
	defer srv.Close()

	c := NewClient("key", time.Second)
	c.BaseURL = srv.URL

	v, err := c.Lookup(context.Background(), "vid1")
	if err != nil {
		t.Fatal(err)
	}
	if v.Title != "A Funny Movie" || v.Description != "desc" || v.Thumbnail != "http://img/hq.jpg" {
		t.Fatalf("unexpected video: %+v", v)
	}
}

func TestLookupNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer srv.Close()

	c := NewClient("key", time.Second)
	c.BaseURL = srv.URL

	if _, err := c.Lookup(context.Background(), "missing"); !errors.Is(err, ErrVideoNotFound) {
		t.Fatalf("got %v, want ErrVideoNotFound", err)
	}
}

func TestLookupUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient("key", time.Second)
	c.BaseURL = srv.URL

	if _, err := c.Lookup(context.Background(), "vid"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
