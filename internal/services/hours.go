package services

import (
	"fmt"
	"time"

	"github.com/detailnco/booking-backend/internal/config"
)

// businessHours is the open/close window for one date, in minutes from
// midnight operator-local time.
type businessHours struct {
	OpenMin  int
	CloseMin int
}

// hoursForDate picks the weekday or weekend ruleset for a YYYY-MM-DD date.
func hoursForDate(cfg config.BookingConfig, date string) (businessHours, error) {
	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return businessHours{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return businessHours{OpenMin: cfg.WeekendOpenMin, CloseMin: cfg.WeekendCloseMin}, nil
	}
	return businessHours{OpenMin: cfg.WeekdayOpenMin, CloseMin: cfg.WeekdayCloseMin}, nil
}

// hoursNote renders the human-readable hours line shown alongside slots.
func hoursNote(h businessHours) string {
	return fmt.Sprintf("Booking Hours: %s – %s", minutesToClock12(h.OpenMin), minutesToClock12(h.CloseMin))
}

// minutesToClock12 formats minutes-from-midnight as e.g. "4:30pm".
func minutesToClock12(m int) string {
	hour := m / 60
	minute := m % 60

	suffix := "am"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		suffix = "pm"
	case hour > 12:
		display = hour - 12
		suffix = "pm"
	}

	return fmt.Sprintf("%d:%02d%s", display, minute, suffix)
}

// minutesToHHMM formats minutes-from-midnight as zero-padded "HH:MM".
func minutesToHHMM(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// hhmmToMinutes parses "HH:MM" into minutes from midnight.
func hhmmToMinutes(hhmm string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", hhmm)
	}
	return h*60 + m, nil
}
