package webserver

import (
	"log"
	"net/http"
	"strconv"

	"github.com/mpdart/mpdart/src/cache"
)

// CurrentImageHandler is a http.Handler which serves the most recently
// committed artwork bytes.
type CurrentImageHandler struct {
	store *cache.Store
}

// ServeHTTP is required by the http.Handler's interface
func (h *CurrentImageHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	entry := h.store.Read()
	if !entry.HasImage() {
		writer.WriteHeader(http.StatusNotFound)
		if _, err := writer.Write([]byte("No image cached yet.\n")); err != nil {
			log.Printf("error writing body in CurrentImageHandler: %s", err)
		}
		return
	}

	writer.Header().Set("Content-Type", "image/jpeg")
	writer.Header().Set("Content-Length", strconv.Itoa(len(entry.Image)))
	writer.Header().Set("Cache-Control", "no-cache")

	if _, err := writer.Write(entry.Image); err != nil {
		log.Printf("error sending current image: %s", err)
	}
}

// NewCurrentImageHandler returns a new CurrentImageHandler which reads from
// store.
func NewCurrentImageHandler(store *cache.Store) *CurrentImageHandler {
	return &CurrentImageHandler{store: store}
}
