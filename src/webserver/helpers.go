package webserver

import (
	"crypto/subtle"
	"net/http"
)

// tokenValid compares the "token" query parameter of req against the
// configured secret. An empty configured secret rejects everything so that
// a missing configuration cannot accidentally open the protected routes.
func tokenValid(req *http.Request, token string) bool {
	if token == "" {
		return false
	}

	presented := req.URL.Query().Get("token")
	return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1
}
