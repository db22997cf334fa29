package handlers

import (
	"github.com/harborpt/booking-platform/internal/availability"
	"github.com/harborpt/booking-platform/internal/clinicapi"
	"github.com/harborpt/booking-platform/internal/wizard"
)

// sessionView is the wizard snapshot returned by every session endpoint.
// The front end re-renders from it after each action.
type sessionView struct {
	SessionID string       `json:"session_id"`
	State     wizard.State `json:"state"`

	Existing bool   `json:"existing_patient"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`

	Date          string          `json:"date,omitempty"`
	BookableDays  []string        `json:"bookable_days,omitempty"`
	Slots         []slotView      `json:"slots,omitempty"`
	SelectedSlot  string          `json:"selected_slot,omitempty"`
	DialogOpen    bool            `json:"therapist_dialog_open"`
	Therapists    []therapistView `json:"available_therapists,omitempty"`
	TherapistName string          `json:"selected_therapist,omitempty"`

	CanSubmit    bool                 `json:"can_submit"`
	Error        string               `json:"error,omitempty"`
	Confirmation *wizard.Confirmation `json:"confirmation,omitempty"`
	PatientID    int64                `json:"patient_id,omitempty"`
}

type slotView struct {
	Time      string `json:"time"`
	Display   string `json:"display"`
	Period    string `json:"period"`
	Available bool   `json:"available"`
	FreeCount int    `json:"free_count"`
}

type therapistView struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// snapshot builds the session view. Caller holds the session lock.
func (h *BookingHandler) snapshot(s *wizard.Session) sessionView {
	wz := s.Wizard
	view := sessionView{
		SessionID:    s.ID,
		State:        wz.State(),
		Existing:     wz.Existing(),
		Name:         wz.Name(),
		Phone:        wz.Phone(),
		DialogOpen:   wz.TherapistDialogOpen(),
		CanSubmit:    wz.CanSubmit(),
		Error:        wz.Err(),
		Confirmation: wz.Confirmation(),
		PatientID:    wz.PatientID(),
	}

	if wz.State() == wizard.StateSelectingDate {
		for _, d := range wz.BookableDays() {
			view.BookableDays = append(view.BookableDays, d.Format("2006-01-02"))
		}
	}
	if d := wz.Date(); !d.IsZero() {
		view.Date = d.Format("2006-01-02")
	}
	view.Slots = slotViews(wz.Slots())
	if slot := wz.SelectedSlot(); slot != nil {
		view.SelectedSlot = slot.Time.Format("15:04")
	}
	for _, th := range wz.AvailableTherapists() {
		view.Therapists = append(view.Therapists, therapistView{ID: th.ID, Name: th.Name})
	}
	if th := wz.SelectedTherapist(); th != nil {
		view.TherapistName = th.Name
	}
	return view
}

func slotViews(slots []availability.Slot) []slotView {
	if len(slots) == 0 {
		return nil
	}
	views := make([]slotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, slotView{
			Time:      s.Time.Format("15:04"),
			Display:   s.Time.Format(clinicapi.DisplayTimeLayout),
			Period:    string(s.Period),
			Available: s.Available,
			FreeCount: len(s.FreeTherapists),
		})
	}
	return views
}
