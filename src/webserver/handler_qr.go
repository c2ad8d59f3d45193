package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

// NewQRHandler returns a http.Handler which serves a QR bar code as a png
// image. The bar code contains the server address from the query value
// "address" together with the access token, so that a phone pointed at the
// display can open the artwork view without typing anything. Since the
// token is included, the route itself requires the token as well.
func NewQRHandler(token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !tokenValid(r, token) {
			http.Error(w, "Invalid token.", http.StatusForbidden)
			return
		}

		qrConts := struct {
			Software string `json:"software"`
			Token    string `json:"token"`
			Address  string `json:"address"`
		}{
			Software: "mpdart",
			Token:    token,
			Address:  r.URL.Query().Get("address"),
		}

		qrBytes, err := json.Marshal(&qrConts)
		if err != nil {
			errMsg := fmt.Sprintf("Error JSON encoding token: %s.", err)
			http.Error(w, errMsg, http.StatusInternalServerError)
			return
		}

		qr, err := qrcode.New(string(qrBytes), qrcode.Medium)
		if err != nil {
			errMsg := fmt.Sprintf("Error creating QR token: %s.", err)
			http.Error(w, errMsg, http.StatusInternalServerError)
			return
		}

		if err := qr.Write(500, w); err != nil {
			errMsg := fmt.Sprintf("Error writing out qr token: %s.", err)
			http.Error(w, errMsg, http.StatusInternalServerError)
			return
		}
	})
}
