package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/harborpt/booking-platform/internal/availability"
	"github.com/harborpt/booking-platform/internal/wizard"
)

// Slots computes the availability grid for a date without a session.
// GET /api/slots?date=2006-01-02
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "date query parameter required")
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	therapists, err := h.api.GetTherapists(r.Context())
	if err != nil {
		h.logger.Error("failed to fetch therapists", "error", err)
		writeError(w, http.StatusBadGateway, "Failed to load therapists. Please try again later.")
		return
	}

	h.metrics.ObserveSlotComputation()
	slots := availability.ComputeSlots(date, therapists)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":  date.Format("2006-01-02"),
		"slots": slotViews(slots),
	})
}

// LookupPatient resolves a phone number to a patient id without a session.
// POST /api/patients/lookup
func (h *BookingHandler) LookupPatient(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if !decode(w, r, &req) {
		return
	}
	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, wizard.MsgEnterPhoneNumber)
		return
	}

	id, found, err := h.api.LookupPatientByPhone(r.Context(), req.PhoneNumber)
	if err != nil {
		h.metrics.ObserveLookup("error")
		h.logger.Error("patient lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, wizard.MsgLookupFailed)
		return
	}
	if !found {
		h.metrics.ObserveLookup("not_found")
		writeError(w, http.StatusNotFound, wizard.MsgNoPatientFound)
		return
	}

	h.metrics.ObserveLookup("found")
	if h.hints != nil {
		if c, cerr := r.Cookie(deviceCookie); cerr == nil && c.Value != "" {
			if herr := h.hints.SavePatientID(r.Context(), c.Value, id); herr != nil {
				h.logger.Warn("failed to save patient id hint", "error", herr)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]int64{"patient_id": id})
}

// Appointments returns a patient's booking history. The patient id comes
// from the query string, or falls back to the device's stored hint.
// GET /api/appointments?patient_id=123
func (h *BookingHandler) Appointments(w http.ResponseWriter, r *http.Request) {
	var patientID int64
	if raw := r.URL.Query().Get("patient_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "patient_id must be a positive integer")
			return
		}
		patientID = id
	} else if h.hints != nil {
		if c, err := r.Cookie(deviceCookie); err == nil && c.Value != "" {
			if id, ok, herr := h.hints.PatientID(r.Context(), c.Value); herr == nil && ok {
				patientID = id
			}
		}
	}
	if patientID == 0 {
		writeError(w, http.StatusNotFound, "no patient identity for this device")
		return
	}

	history, err := h.history.FetchForPatient(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to fetch appointment history", "patient_id", patientID, "error", err)
		writeError(w, http.StatusBadGateway, "Failed to load appointments. Please try again later.")
		return
	}
	writeJSON(w, http.StatusOK, history)
}
