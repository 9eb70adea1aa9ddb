package services

import (
	"time"

	"github.com/detailnco/booking-backend/internal/config"
	"github.com/detailnco/booking-backend/internal/models"
)

// OccupancyReader is the read-only slice of the booking store the
// availability calculator needs. Availability never mutates.
type OccupancyReader interface {
	ListOccupying(date string, nowMs int64) ([]models.Booking, error)
}

// AvailabilityResult is the response of a slot computation.
type AvailabilityResult struct {
	Date        string        `json:"date"`
	DurationMin int           `json:"durationMin"`
	Slots       []models.Slot `json:"slots"`
	Note        string        `json:"note"`
}

// AvailabilityService computes free start-time slots within business hours.
type AvailabilityService struct {
	store OccupancyReader
	cfg   config.BookingConfig
	now   func() time.Time
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(store OccupancyReader, cfg config.BookingConfig) *AvailabilityService {
	return &AvailabilityService{
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// ComputeSlots enumerates candidate starts on the slot grid between opening
// and the latest start that still fits the duration, dropping any candidate
// that overlaps an occupying booking. An empty slot list is a valid result.
func (s *AvailabilityService) ComputeSlots(date string, durationMin int) (*AvailabilityResult, error) {
	if durationMin < s.cfg.MinDurationMin || durationMin > s.cfg.MaxDurationMin {
		return nil, validationErr("duration", "must be between %d and %d minutes", s.cfg.MinDurationMin, s.cfg.MaxDurationMin)
	}

	hours, err := hoursForDate(s.cfg, date)
	if err != nil {
		return nil, validationErr("date", "must be a valid YYYY-MM-DD date")
	}

	nowMs := s.now().UnixMilli()
	occupying, err := s.store.ListOccupying(date, nowMs)
	if err != nil {
		return nil, err
	}

	// Occupied windows in minutes from midnight.
	type window struct{ start, end int }
	blocks := make([]window, 0, len(occupying))
	for _, b := range occupying {
		startMin, err := hhmmToMinutes(b.StartTime)
		if err != nil {
			continue // malformed historical row, never blocks the grid
		}
		blocks = append(blocks, window{start: startMin, end: startMin + b.DurationMin})
	}

	latestStart := hours.CloseMin - durationMin

	slots := []models.Slot{}
	for m := hours.OpenMin; m <= latestStart; m += s.cfg.SlotStepMin {
		start, end := m, m+durationMin

		free := true
		for _, blk := range blocks {
			// Half-open interval overlap test.
			if !(end <= blk.start || start >= blk.end) {
				free = false
				break
			}
		}
		if !free {
			continue
		}

		slots = append(slots, models.Slot{Start: minutesToHHMM(start), End: minutesToHHMM(end)})
	}

	note := hoursNote(hours)
	if len(slots) == 0 {
		note = "No slots free for that duration within working hours."
	}

	return &AvailabilityResult{
		Date:        date,
		DurationMin: durationMin,
		Slots:       slots,
		Note:        note,
	}, nil
}
