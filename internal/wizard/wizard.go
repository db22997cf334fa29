// Package wizard implements the booking flow state machine: a linear
// date → time+therapist → details → submit wizard with guarded transitions,
// plus the phone-lookup branch for returning patients. One Wizard exists
// per visitor session and is driven by a single goroutine at a time.
package wizard

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/harborpt/booking-platform/internal/availability"
	"github.com/harborpt/booking-platform/internal/clinicapi"
	"github.com/harborpt/booking-platform/pkg/logging"
)

// State enumerates the wizard's positions. Transitions happen only through
// the guarded methods below.
type State string

const (
	StateSelectingPatientType State = "selecting_patient_type"
	StateSelectingDate        State = "selecting_date"
	StateSelectingTime        State = "selecting_time"
	StateEnteringDetails      State = "entering_details"
	StateSubmitting           State = "submitting"
	StateSuccess              State = "success"
	StateFailed               State = "failed"
	StateViewingLookup        State = "viewing_lookup"
	StateViewingAppointments  State = "viewing_appointments"
)

// User-facing messages, kept word-for-word from the original client.
const (
	MsgSelectTimeAndTherapist = "Please select a time and therapist"
	MsgEnterPhoneNumber       = "Please enter your phone number"
	MsgGenericBookingError    = "Error booking appointment. Please try again later."
	MsgNoPatientFound         = "No patient found with this phone number"
	MsgLookupFailed           = "Failed to fetch patient ID. Please try again later."
)

// Guard and sequencing errors. These indicate a caller drove the machine
// out of order, not user input problems.
//
// ErrBusy guards direct concurrent use of a Wizard; the HTTP layer holds
// the session lock for the whole request, so over HTTP a duplicate call
// serializes and lands on the state guard instead.
var (
	ErrInvalidTransition = errors.New("wizard: transition not allowed in current state")
	ErrBusy              = errors.New("wizard: request already in flight")
)

// ValidationError carries a user-displayable message for a blocked action.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "wizard: " + e.Message }

// BookingAPI is the slice of the clinic API the wizard needs.
type BookingAPI interface {
	RequestAppointment(ctx context.Context, req clinicapi.BookingRequest) error
	LookupPatientByPhone(ctx context.Context, phone string) (int64, bool, error)
}

// HintStore persists returning-patient hints between sessions.
type HintStore interface {
	SavePhoneHint(ctx context.Context, token, phone string) error
	PhoneHint(ctx context.Context, token string) (string, bool, error)
	SavePatientID(ctx context.Context, token string, id int64) error
}

// Confirmation is the display payload carried into the success state.
type Confirmation struct {
	Date          string `json:"date"`
	Time          string `json:"time"`
	TherapistName string `json:"therapist_name"`
	PatientName   string `json:"patient_name"`
}

// Config wires a Wizard's collaborators and booking rules.
type Config struct {
	API         BookingAPI
	Hints       HintStore
	Logger      *logging.Logger
	DeviceToken string

	WindowDays    int
	ClosedWeekday time.Weekday
	Now           func() time.Time
}

// Wizard is the per-session booking flow controller.
type Wizard struct {
	api    BookingAPI
	hints  HintStore
	logger *logging.Logger
	token  string

	windowDays int
	closedDay  time.Weekday
	now        func() time.Time

	state      State
	therapists []clinicapi.Therapist
	slots      []availability.Slot

	date       time.Time
	slot       *availability.Slot
	therapist  *clinicapi.Therapist
	dialogOpen bool

	name     string
	phone    string
	existing bool

	busy         bool
	lastError    string
	confirmation *Confirmation
	patientID    int64
}

// New creates a wizard in the patient-type selection state.
func New(cfg Config) *Wizard {
	if cfg.API == nil {
		panic("wizard: booking API required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Wizard{
		api:        cfg.API,
		hints:      cfg.Hints,
		logger:     logger,
		token:      cfg.DeviceToken,
		windowDays: windowDays,
		closedDay:  cfg.ClosedWeekday,
		now:        now,
		state:      StateSelectingPatientType,
	}
}

// State returns the current machine state.
func (w *Wizard) State() State { return w.state }

// Err returns the current inline error message, empty when none.
func (w *Wizard) Err() string { return w.lastError }

// ClearErr dismisses the inline error message.
func (w *Wizard) ClearErr() { w.lastError = "" }

// Confirmation returns the success payload, nil before success.
func (w *Wizard) Confirmation() *Confirmation { return w.confirmation }

// PatientID returns the id resolved by the lookup branch, 0 before then.
func (w *Wizard) PatientID() int64 { return w.patientID }

// Slots returns the computed slots for the selected date.
func (w *Wizard) Slots() []availability.Slot { return w.slots }

// Date returns the selected date, zero when none.
func (w *Wizard) Date() time.Time { return w.date }

// SelectedSlot returns the selected slot, nil when none.
func (w *Wizard) SelectedSlot() *availability.Slot { return w.slot }

// SelectedTherapist returns the chosen therapist, nil when none.
func (w *Wizard) SelectedTherapist() *clinicapi.Therapist { return w.therapist }

// TherapistDialogOpen reports whether the wizard is blocked on the
// therapist sub-dialog.
func (w *Wizard) TherapistDialogOpen() bool { return w.dialogOpen }

// Existing reports whether the visitor marked themselves a returning
// patient.
func (w *Wizard) Existing() bool { return w.existing }

// Name returns the entered patient name.
func (w *Wizard) Name() string { return w.name }

// Phone returns the entered phone number.
func (w *Wizard) Phone() string { return w.phone }

// BookableDays lists the selectable days in the booking window for the
// date picker. Each listed day passes the SelectDate guard.
func (w *Wizard) BookableDays() []time.Time {
	return availability.BookableDays(w.now(), w.windowDays, w.closedDay)
}

// SetTherapists installs the therapist snapshot fetched at session start
// and recomputes slots if a date is already selected.
func (w *Wizard) SetTherapists(therapists []clinicapi.Therapist) {
	w.therapists = therapists
	if !w.date.IsZero() {
		w.recompute()
	}
}

func (w *Wizard) recompute() {
	w.slots = availability.ComputeSlots(w.date, w.therapists)
	w.slot = nil
	w.therapist = nil
	w.dialogOpen = false
}

// ChoosePatientType resolves the opening dialog. Returning patients get
// their remembered phone number prefilled; new patients start blank.
func (w *Wizard) ChoosePatientType(ctx context.Context, existing bool) error {
	if w.state != StateSelectingPatientType {
		return ErrInvalidTransition
	}
	w.existing = existing
	w.phone = ""
	if existing && w.hints != nil && w.token != "" {
		if phone, ok, err := w.hints.PhoneHint(ctx, w.token); err == nil && ok {
			w.phone = phone
		}
	}
	w.state = StateSelectingDate
	return nil
}

// OpenLookup branches to the view-my-appointments phone lookup.
func (w *Wizard) OpenLookup() error {
	if w.state != StateSelectingPatientType {
		return ErrInvalidTransition
	}
	w.lastError = ""
	w.state = StateViewingLookup
	return nil
}

// CancelLookup returns from the lookup branch to the opening dialog.
func (w *Wizard) CancelLookup() error {
	if w.state != StateViewingLookup {
		return ErrInvalidTransition
	}
	w.lastError = ""
	w.state = StateSelectingPatientType
	return nil
}

// Lookup resolves a phone number to a patient id. On success the id is
// persisted as a returning-patient hint and the wizard exits to the
// appointments view. An unknown number reports MsgNoPatientFound and
// leaves the wizard where it is.
func (w *Wizard) Lookup(ctx context.Context, phone string) error {
	if w.state != StateViewingLookup {
		return ErrInvalidTransition
	}
	if w.busy {
		return ErrBusy
	}
	if strings.TrimSpace(phone) == "" {
		w.lastError = MsgEnterPhoneNumber
		return &ValidationError{Message: MsgEnterPhoneNumber}
	}

	w.busy = true
	defer func() { w.busy = false }()

	id, found, err := w.api.LookupPatientByPhone(ctx, phone)
	if err != nil {
		w.logger.Error("patient lookup failed", "error", err)
		w.lastError = MsgLookupFailed
		return err
	}
	if !found {
		w.lastError = MsgNoPatientFound
		return &ValidationError{Message: MsgNoPatientFound}
	}

	w.patientID = id
	if w.hints != nil && w.token != "" {
		if err := w.hints.SavePatientID(ctx, w.token, id); err != nil {
			// Hint persistence is best effort; the lookup still succeeded.
			w.logger.Warn("failed to save patient id hint", "error", err)
		}
	}
	w.lastError = ""
	w.state = StateViewingAppointments
	return nil
}

// SelectDate picks the appointment date and recomputes slots. Any earlier
// slot/therapist choice is discarded.
func (w *Wizard) SelectDate(date time.Time) error {
	if w.state != StateSelectingDate && w.state != StateSelectingTime {
		return ErrInvalidTransition
	}
	if !availability.DateBookable(date, w.now(), w.windowDays, w.closedDay) {
		return &ValidationError{Message: "Selected date is not bookable"}
	}
	w.date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	w.recompute()
	w.state = StateSelectingDate
	return nil
}

// ContinueToTime advances to slot selection; requires a selected date.
func (w *Wizard) ContinueToTime() error {
	if w.state != StateSelectingDate || w.date.IsZero() {
		return ErrInvalidTransition
	}
	w.state = StateSelectingTime
	return nil
}

// SelectSlot picks a time slot and opens the therapist sub-dialog. Picking
// an unavailable (or unknown) slot is a silent no-op and returns false.
func (w *Wizard) SelectSlot(at time.Time) bool {
	if w.state != StateSelectingTime {
		return false
	}
	s := availability.FindSlot(w.slots, at)
	if s == nil || !s.Available {
		return false
	}
	w.slot = s
	w.therapist = nil
	w.dialogOpen = true
	return true
}

// AvailableTherapists lists the free therapists for the slot under
// selection.
func (w *Wizard) AvailableTherapists() []clinicapi.Therapist {
	if w.slot == nil {
		return nil
	}
	return w.slot.FreeTherapists
}

// ChooseTherapist resolves the sub-dialog and advances to details entry.
func (w *Wizard) ChooseTherapist(id int64) error {
	if w.state != StateSelectingTime || !w.dialogOpen || w.slot == nil {
		return ErrInvalidTransition
	}
	for i := range w.slot.FreeTherapists {
		if w.slot.FreeTherapists[i].ID == id {
			w.therapist = &w.slot.FreeTherapists[i]
			w.dialogOpen = false
			w.state = StateEnteringDetails
			return nil
		}
	}
	return &ValidationError{Message: "Therapist is not available for this slot"}
}

// CancelTherapistSelection closes the sub-dialog without a choice. The
// slot stays selected but the wizard cannot advance without a therapist.
func (w *Wizard) CancelTherapistSelection() {
	w.dialogOpen = false
}

// ContinueToDetails advances from slot selection once both a slot and a
// therapist are held, e.g. after stepping back and forward again.
func (w *Wizard) ContinueToDetails() error {
	if w.state != StateSelectingTime || w.slot == nil || w.therapist == nil {
		return ErrInvalidTransition
	}
	w.state = StateEnteringDetails
	return nil
}

// SetDetails records the contact details. Allowed while entering details
// and after a failed submission (the state stays editable).
func (w *Wizard) SetDetails(name, phone string) error {
	if w.state != StateEnteringDetails && w.state != StateFailed {
		return ErrInvalidTransition
	}
	w.name = name
	w.phone = phone
	return nil
}

// CanSubmit reports whether the submit guard passes: slot, therapist and
// phone are set, and a name is present unless the patient is returning.
func (w *Wizard) CanSubmit() bool {
	if w.slot == nil || w.therapist == nil {
		return false
	}
	if strings.TrimSpace(w.phone) == "" {
		return false
	}
	if !w.existing && strings.TrimSpace(w.name) == "" {
		return false
	}
	return true
}

// Submit sends the booking request. Allowed from details entry and, for
// manual retry, from the failed state. While a request is in flight the
// wizard is busy and duplicate submissions are rejected.
func (w *Wizard) Submit(ctx context.Context) error {
	if w.state != StateEnteringDetails && w.state != StateFailed {
		return ErrInvalidTransition
	}
	if w.busy {
		return ErrBusy
	}
	if w.slot == nil || w.therapist == nil {
		w.lastError = MsgSelectTimeAndTherapist
		return &ValidationError{Message: MsgSelectTimeAndTherapist}
	}
	if !w.CanSubmit() {
		w.lastError = MsgEnterPhoneNumber
		return &ValidationError{Message: MsgEnterPhoneNumber}
	}

	when := time.Date(
		w.date.Year(), w.date.Month(), w.date.Day(),
		w.slot.Time.Hour(), w.slot.Time.Minute(), 0, 0, w.date.Location(),
	)

	patientName := w.name
	if w.existing {
		patientName = ""
	}
	req := clinicapi.BookingRequest{
		DateTime:    clinicapi.FormatWire(when),
		PatientName: patientName,
		TherapistID: w.therapist.ID,
		PhoneNumber: w.phone,
		IsExisting:  w.existing,
	}

	w.busy = true
	w.lastError = ""
	w.state = StateSubmitting
	defer func() { w.busy = false }()

	if err := w.api.RequestAppointment(ctx, req); err != nil {
		w.state = StateFailed
		var rej *clinicapi.RejectionError
		if errors.As(err, &rej) && rej.ServerMessage != "" {
			w.lastError = rej.ServerMessage
		} else {
			w.lastError = MsgGenericBookingError
		}
		w.logger.Warn("booking submission failed",
			"therapist_id", req.TherapistID,
			"date_time", req.DateTime,
			"error", err,
		)
		return err
	}

	displayName := w.name
	if w.existing {
		displayName = w.phone
	}
	w.confirmation = &Confirmation{
		Date:          when.Format(clinicapi.DisplayDateLayout),
		Time:          when.Format(clinicapi.DisplayTimeLayout),
		TherapistName: w.therapist.Name,
		PatientName:   displayName,
	}
	w.state = StateSuccess

	// Remember the phone for future visits. Returning patients already
	// have a stored hint; only new patients write one, as the original
	// client did.
	if !w.existing && w.hints != nil && w.token != "" {
		if err := w.hints.SavePhoneHint(ctx, w.token, w.phone); err != nil {
			w.logger.Warn("failed to save phone hint", "error", err)
		}
	}

	w.logger.Info("booking requested",
		"therapist_id", req.TherapistID,
		"date_time", req.DateTime,
		"existing_patient", w.existing,
	)
	return nil
}

// Back steps to the previous wizard position without clearing entered
// data, except that leaving date selection discards the date, slot and
// therapist (slot selection restarts).
func (w *Wizard) Back() error {
	switch w.state {
	case StateEnteringDetails, StateFailed:
		w.lastError = ""
		w.state = StateSelectingTime
	case StateSelectingTime:
		w.dialogOpen = false
		w.state = StateSelectingDate
	case StateSelectingDate:
		w.date = time.Time{}
		w.slots = nil
		w.slot = nil
		w.therapist = nil
		w.dialogOpen = false
		w.state = StateSelectingPatientType
	case StateViewingLookup:
		w.lastError = ""
		w.state = StateSelectingPatientType
	default:
		return ErrInvalidTransition
	}
	return nil
}
