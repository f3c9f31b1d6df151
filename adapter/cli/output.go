package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const timeLayout = "2006-01-02 15:04 MST"

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintRequest writes one request as a detail block.
func PrintRequest(w io.Writer, r *queries.RequestDTO, loc *time.Location) {
	fmt.Fprintf(w, "Request %s\n", r.ID)
	fmt.Fprintf(w, "  owner:      %s\n", r.OwnerID)
	if r.DeviceRef != "" {
		fmt.Fprintf(w, "  device:     %s\n", r.DeviceRef)
	}
	fmt.Fprintf(w, "  service:    %s\n", r.ServiceType)
	fmt.Fprintf(w, "  status:     %s\n", r.Status)
	fmt.Fprintf(w, "  requested:  %s\n", formatTime(r.UserRequestedAt, loc))
	if r.FactoryProposedAt != nil {
		fmt.Fprintf(w, "  proposed:   %s\n", formatTime(*r.FactoryProposedAt, loc))
	}
	fmt.Fprintf(w, "  approved:   user=%t factory=%t\n", r.IsUserApproved, r.IsFactoryApproved)
	fmt.Fprintf(w, "  changes:    %d\n", r.ChangeCount)
}

// PrintRequests writes one line per request.
func PrintRequests(w io.Writer, rs []queries.RequestDTO, loc *time.Location) {
	if len(rs) == 0 {
		fmt.Fprintln(w, "No maintenance requests found.")
		return
	}
	fmt.Fprintf(w, "Maintenance requests (%d):\n", len(rs))
	for _, r := range rs {
		slot := formatTime(r.UserRequestedAt, loc)
		if r.FactoryProposedAt != nil {
			slot += " -> " + formatTime(*r.FactoryProposedAt, loc)
		}
		device := r.DeviceRef
		if device == "" {
			device = "-"
		}
		fmt.Fprintf(w, "  %s  %-22s  %-8s  %-12s  %s\n", r.ID, r.Status, r.ServiceType, device, slot)
	}
}

// PrintChangeLog writes the schedule history oldest first.
func PrintChangeLog(w io.Writer, records []queries.ChangeRecordDTO, loc *time.Location) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No schedule changes.")
		return
	}
	for i, c := range records {
		fmt.Fprintf(w, "%d. %s by %s\n", i+1, formatTime(c.ChangedAt, loc), c.ActorID)
		if !c.PreviousUserRequestedAt.Equal(c.NewUserRequestedAt) {
			fmt.Fprintf(w, "   requested: %s -> %s\n", formatTime(c.PreviousUserRequestedAt, loc), formatTime(c.NewUserRequestedAt, loc))
		}
		if prev, next := formatOptional(c.PreviousFactoryProposedAt, loc), formatOptional(c.NewFactoryProposedAt, loc); prev != next {
			fmt.Fprintf(w, "   proposed:  %s -> %s\n", prev, next)
		}
	}
}

// PrintAvailability writes the occupied slots per date.
func PrintAvailability(w io.Writer, a *queries.AvailabilityDTO) {
	fmt.Fprintf(w, "Bookable times: %s\n", strings.Join(a.AvailableTimeSlots, " "))
	if len(a.DisabledTimeSlots) == 0 {
		fmt.Fprintln(w, "Every slot is free.")
		return
	}
	full := make(map[string]bool, len(a.DisabledDates))
	for _, d := range a.DisabledDates {
		full[d] = true
	}
	for _, ds := range a.DisabledTimeSlots {
		marker := ""
		if full[ds.Date] {
			marker = " (fully booked)"
		}
		fmt.Fprintf(w, "  %s  %s%s\n", ds.Date, strings.Join(ds.Times, " "), marker)
	}
}

func formatTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout)
}

func formatOptional(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "none"
	}
	return formatTime(*t, loc)
}
