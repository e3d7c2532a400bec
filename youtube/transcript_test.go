package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/onnwee/recipe-scribe/recipe"
)

type playerResponse struct {
	PlayabilityStatus map[string]string `json:"playabilityStatus"`
	Captions          map[string]any    `json:"captions"`
}

func captionsBody(tracks ...map[string]string) map[string]any {
	return map[string]any{
		"playerCaptionsTracklistRenderer": map[string]any{
			"captionTracks": tracks,
		},
	}
}

func trackJSON(texts ...string) map[string]any {
	events := make([]map[string]any, 0, len(texts))
	for i, txt := range texts {
		events = append(events, map[string]any{
			"tStartMs":    int64(i * 2000),
			"dDurationMs": int64(2000),
			"segs":        []map[string]string{{"utf8": txt}},
		})
	}
	return map[string]any{"events": events}
}

func TestFetchTranscript(t *testing.T) {
	var trackCalls atomic.Int64
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			VideoID string `json:"videoId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		var resp playerResponse
		switch req.VideoID {
		case "goodvideo01":
			resp = playerResponse{
				PlayabilityStatus: map[string]string{"status": "OK"},
				Captions: captionsBody(
					map[string]string{"baseUrl": srv.URL + "/api/timedtext?lang=fr", "languageCode": "fr"},
					map[string]string{"baseUrl": srv.URL + "/api/timedtext?lang=en-auto", "languageCode": "en", "kind": "asr"},
					map[string]string{"baseUrl": srv.URL + "/api/timedtext?lang=en", "languageCode": "en"},
				),
			}
		case "nocaptions0":
			resp = playerResponse{PlayabilityStatus: map[string]string{"status": "OK"}}
		case "missing0000":
			resp = playerResponse{PlayabilityStatus: map[string]string{"status": "ERROR", "reason": "Video unavailable"}}
		case "emptytrack0":
			resp = playerResponse{
				PlayabilityStatus: map[string]string{"status": "OK"},
				Captions: captionsBody(
					map[string]string{"baseUrl": srv.URL + "/api/timedtext?lang=empty", "languageCode": "en"},
				),
			}
		case "barebaseur0":
			// track url without any query string
			resp = playerResponse{
				PlayabilityStatus: map[string]string{"status": "OK"},
				Captions: captionsBody(
					map[string]string{"baseUrl": srv.URL + "/api/timedtext", "languageCode": "en"},
				),
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		trackCalls.Add(1)
		if r.URL.Query().Get("fmt") != "json3" {
			t.Errorf("track fetch missing fmt=json3, got query %q", r.URL.RawQuery)
		}
		var body map[string]any
		switch r.URL.Query().Get("lang") {
		case "en":
			body = trackJSON("Preheat oven", "Mix flour and eggs", "Bake 20 minutes")
		case "empty":
			body = trackJSON()
		case "":
			body = trackJSON("Whisk the batter", "Rest ten minutes")
		default:
			t.Errorf("unexpected track requested: %q", r.URL.RawQuery)
			body = trackJSON()
		}
		_ = json.NewEncoder(w).Encode(body)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}

	t.Run("success prefers manual english track", func(t *testing.T) {
		tr, err := c.FetchTranscript(context.Background(), "goodvideo01")
		if err != nil {
			t.Fatalf("FetchTranscript() error: %v", err)
		}
		if got, want := tr.Text(), "Preheat oven Mix flour and eggs Bake 20 minutes"; got != want {
			t.Errorf("Text() = %q, want %q", got, want)
		}
		if tr.Language != "en" {
			t.Errorf("Language = %q, want en", tr.Language)
		}
		if len(tr.Segments) != 3 {
			t.Errorf("segments = %d, want 3", len(tr.Segments))
		}
		if tr.Segments[1].Start != 2 {
			t.Errorf("segment 1 start = %v, want 2", tr.Segments[1].Start)
		}
	})

	t.Run("captions disabled", func(t *testing.T) {
		before := trackCalls.Load()
		_, err := c.FetchTranscript(context.Background(), "nocaptions0")
		if !errors.Is(err, recipe.ErrTranscriptUnavailable) {
			t.Fatalf("error = %v, want ErrTranscriptUnavailable", err)
		}
		if trackCalls.Load() != before {
			t.Errorf("track endpoint called despite missing captions")
		}
	})

	t.Run("video does not exist", func(t *testing.T) {
		_, err := c.FetchTranscript(context.Background(), "missing0000")
		if !errors.Is(err, recipe.ErrTranscriptUnavailable) {
			t.Fatalf("error = %v, want ErrTranscriptUnavailable", err)
		}
	})

	t.Run("empty caption track", func(t *testing.T) {
		_, err := c.FetchTranscript(context.Background(), "emptytrack0")
		if !errors.Is(err, recipe.ErrTranscriptUnavailable) {
			t.Fatalf("error = %v, want ErrTranscriptUnavailable", err)
		}
	})

	t.Run("track url without query string", func(t *testing.T) {
		tr, err := c.FetchTranscript(context.Background(), "barebaseur0")
		if err != nil {
			t.Fatalf("FetchTranscript() error: %v", err)
		}
		if got, want := tr.Text(), "Whisk the batter Rest ten minutes"; got != want {
			t.Errorf("Text() = %q, want %q", got, want)
		}
	})
}

func TestFetchTranscriptServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // transport fault, not an HTTP error

	c := &Client{BaseURL: srv.URL}
	_, err := c.FetchTranscript(context.Background(), "goodvideo01")
	if !errors.Is(err, recipe.ErrTranscriptUnavailable) {
		t.Fatalf("error = %v, want ErrTranscriptUnavailable", err)
	}
}

func TestPickTrack(t *testing.T) {
	tests := []struct {
		name   string
		tracks []captionTrack
		want   string
	}{
		{
			name: "manual english over asr",
			tracks: []captionTrack{
				{BaseURL: "a", LanguageCode: "en", Kind: "asr"},
				{BaseURL: "b", LanguageCode: "en"},
			},
			want: "b",
		},
		{
			name: "asr english over other languages",
			tracks: []captionTrack{
				{BaseURL: "a", LanguageCode: "de"},
				{BaseURL: "b", LanguageCode: "en", Kind: "asr"},
			},
			want: "b",
		},
		{
			name: "regional english counts",
			tracks: []captionTrack{
				{BaseURL: "a", LanguageCode: "fr"},
				{BaseURL: "b", LanguageCode: "en-GB"},
			},
			want: "b",
		},
		{
			name: "fallback to first",
			tracks: []captionTrack{
				{BaseURL: "a", LanguageCode: "ja"},
				{BaseURL: "b", LanguageCode: "ko"},
			},
			want: "a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickTrack(tt.tracks); got.BaseURL != tt.want {
				t.Errorf("pickTrack() = %q, want %q", got.BaseURL, tt.want)
			}
		})
	}
}
