package webserver

import (
	"log"
	"net/http"
)

// FetchHandler is a http.Handler which triggers an out-of-band resync. It
// is protected by the configured secret token. A request with a missing or
// wrong token is rejected without any side effect.
type FetchHandler struct {
	token string
	loop  Resyncer
}

// ServeHTTP is required by the http.Handler's interface
func (h *FetchHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	if !tokenValid(req, h.token) {
		writer.WriteHeader(http.StatusForbidden)
		if _, err := writer.Write([]byte("Invalid token.\n")); err != nil {
			log.Printf("error writing body in FetchHandler: %s", err)
		}
		return
	}

	h.loop.Resync()

	writer.WriteHeader(http.StatusAccepted)
	if _, err := writer.Write([]byte("fetching\n")); err != nil {
		log.Printf("error writing body in FetchHandler: %s", err)
	}
}

// NewFetchHandler returns a new FetchHandler which signals loop when a
// request with the correct token arrives.
func NewFetchHandler(token string, loop Resyncer) *FetchHandler {
	return &FetchHandler{
		token: token,
		loop:  loop,
	}
}
