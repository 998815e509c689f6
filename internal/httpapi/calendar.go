package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/antoniostano/claria/internal/ics"
)

type calendarRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Duration    float64 `json:"duration"`
	Timezone    string  `json:"timezone"`
}

// handleCalendarICS renders an invite and returns it as a download.
func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	var req calendarRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "a JSON body with title, date and time is required")
		return
	}
	content, err := s.generator.Generate(ics.Event{
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		Date:          req.Date,
		Time:          req.Time,
		DurationHours: req.Duration,
		Timezone:      strings.TrimSpace(req.Timezone),
	})
	if err != nil {
		if errors.Is(err, ics.ErrValidation) {
			respondError(w, http.StatusBadRequest, "invalid_event", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "ics_failed", "could not build the invite")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="evento.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}
