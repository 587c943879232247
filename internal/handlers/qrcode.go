package handlers

import (
	"net/http"

	"github.com/skip2/go-qrcode"
)

// GetVerificationQRCode: GET /api/v1/verifications/{id}/qrcode?token=...
// Returns a PNG QR code of the share link.
func (a *API) GetVerificationQRCode(w http.ResponseWriter, r *http.Request) {
	id, _, ok := a.authorizeShare(w, r)
	if !ok {
		return
	}
	png, err := qrcode.Encode(a.shareURL(id, r.URL.Query().Get("token")), qrcode.Medium, 256)
	if err != nil {
		serverError(w, "Failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
