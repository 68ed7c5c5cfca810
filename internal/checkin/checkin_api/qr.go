package checkin_api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

// TicketQR renders the QR image a gate scanner reads: a PNG encoding of
// the ticket number. Decoding scanned images is the gate device's job,
// not ours.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		http.Error(w, "ticket number is required", http.StatusBadRequest)
		return
	}

	if _, err := h.Admission.Store.GetTicketByNumber(r.Context(), number); err != nil {
		http.Error(w, "Ticket not found: "+err.Error(), http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(number, qrcode.Medium, 256)
	if err != nil {
		h.logError("QR", err)
		http.Error(w, "Failed to generate QR: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
