package webserver

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/mpdart/mpdart/src/cache"
)

// StatusHandler is a http.Handler which reports the currently cached track
// metadata as JSON.
type StatusHandler struct {
	store *cache.Store
}

// statusResponse is the wire format of /status.json.
type statusResponse struct {
	Artist    string  `json:"artist"`
	Album     string  `json:"album"`
	Title     string  `json:"title"`
	Source    string  `json:"source"`
	LastFetch *string `json:"last_fetch"`
	LastError string  `json:"last_error"`
}

// ServeHTTP is required by the http.Handler's interface
func (h *StatusHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	entry := h.store.Read()

	resp := statusResponse{
		Artist:    entry.Track.Artist,
		Album:     entry.Track.Album,
		Title:     entry.Track.Title,
		Source:    entry.Source.String(),
		LastError: entry.LastError,
	}
	if !entry.LastFetch.IsZero() {
		lastFetch := entry.LastFetch.UTC().Format(time.RFC3339)
		resp.LastFetch = &lastFetch
	}

	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(writer).Encode(resp); err != nil {
		log.Printf("error encoding status response: %s", err)
	}
}

// NewStatusHandler returns a new StatusHandler which reads from store.
func NewStatusHandler(store *cache.Store) *StatusHandler {
	return &StatusHandler{store: store}
}
