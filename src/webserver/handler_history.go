package webserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
)

// historyDefaultLimit is how many events are returned when the request
// does not say otherwise.
const historyDefaultLimit = 50

// historyMaxLimit caps the requested number of events.
const historyMaxLimit = 500

// HistoryHandler is a http.Handler which lists the most recent sync events
// from the journal. It is protected by the configured secret token.
type HistoryHandler struct {
	token   string
	journal Historian
}

// ServeHTTP is required by the http.Handler's interface
func (h *HistoryHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	if !tokenValid(req, h.token) {
		http.Error(writer, "Invalid token.", http.StatusForbidden)
		return
	}

	limit := historyDefaultLimit
	if arg := req.URL.Query().Get("limit"); arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed < 1 {
			http.Error(writer, "Bad limit argument.", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	events, err := h.journal.Recent(limit)
	if err != nil {
		errMsg := fmt.Sprintf("Error reading sync history: %s.", err)
		http.Error(writer, errMsg, http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(writer).Encode(events); err != nil {
		log.Printf("error encoding history response: %s", err)
	}
}

// NewHistoryHandler returns a new HistoryHandler reading from journal.
func NewHistoryHandler(token string, journal Historian) *HistoryHandler {
	return &HistoryHandler{
		token:   token,
		journal: journal,
	}
}
