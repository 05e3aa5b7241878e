package http

import (
	"fmt"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/events"
	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/scheduler"
	"github.com/example/availability-scheduler/internal/timerange"
)

type recurrenceDTO struct {
	Frequency string `json:"frequency"`
	Interval  int    `json:"interval,omitempty"`
	Weekdays  []int  `json:"weekdays,omitempty"`
	MonthDay  int    `json:"month_day,omitempty"`
	End       string `json:"end,omitempty"`
	EndAfter  int    `json:"end_after,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (d *recurrenceDTO) toRule() (recurrence.Rule, error) {
	if d == nil {
		return recurrence.Rule{}, nil
	}

	frequency, err := recurrence.ParseFrequency(d.Frequency)
	if err != nil {
		return recurrence.Rule{}, err
	}
	end, err := recurrence.ParseEndCondition(d.End)
	if err != nil {
		return recurrence.Rule{}, err
	}

	rule := recurrence.Rule{
		Frequency: frequency,
		Interval:  d.Interval,
		MonthDay:  d.MonthDay,
		End:       end,
		EndAfter:  d.EndAfter,
	}
	if rule.Frequency != recurrence.FrequencyNone && rule.Interval == 0 {
		rule.Interval = 1
	}
	for _, weekday := range d.Weekdays {
		if weekday < 0 || weekday > 6 {
			return recurrence.Rule{}, fmt.Errorf("invalid weekday %d", weekday)
		}
		rule.Weekdays = append(rule.Weekdays, time.Weekday(weekday))
	}
	if d.EndDate != "" {
		date, err := timerange.ParseDate(d.EndDate)
		if err != nil {
			return recurrence.Rule{}, err
		}
		rule.EndDate = date
	}
	return rule, nil
}

func recurrenceToDTO(rule recurrence.Rule) *recurrenceDTO {
	if !rule.IsRepeating() {
		return nil
	}

	dto := &recurrenceDTO{
		Frequency: rule.Frequency.String(),
		Interval:  rule.Interval,
		MonthDay:  rule.MonthDay,
		End:       rule.End.String(),
		EndAfter:  rule.EndAfter,
	}
	for _, weekday := range rule.Weekdays {
		dto.Weekdays = append(dto.Weekdays, int(weekday))
	}
	if !rule.EndDate.IsZero() {
		dto.EndDate = rule.EndDate.String()
	}
	return dto
}

type dateAvailabilityDTO struct {
	Date      string `json:"date"`
	Available bool   `json:"available"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

type unavailableSlotDTO struct {
	ID                  string         `json:"id"`
	Date                string         `json:"date"`
	StartTime           string         `json:"start_time"`
	EndTime             string         `json:"end_time"`
	Title               string         `json:"title,omitempty"`
	Recurrence          *recurrenceDTO `json:"recurrence,omitempty"`
	ParentSlotID        string         `json:"parent_slot_id,omitempty"`
	IsRecurringInstance bool           `json:"is_recurring_instance,omitempty"`
}

type availabilityRecordDTO struct {
	UserID           string                `json:"user_id"`
	DefaultStart     string                `json:"default_start"`
	DefaultEnd       string                `json:"default_end"`
	Dates            []dateAvailabilityDTO `json:"dates"`
	UnavailableSlots []unavailableSlotDTO  `json:"unavailable_slots"`
}

func recordToDTO(record availability.Record) availabilityRecordDTO {
	dto := availabilityRecordDTO{
		UserID:           record.UserID,
		DefaultStart:     record.DefaultStart.String(),
		DefaultEnd:       record.DefaultEnd.String(),
		Dates:            []dateAvailabilityDTO{},
		UnavailableSlots: []unavailableSlotDTO{},
	}
	for _, entry := range record.Dates {
		entryDTO := dateAvailabilityDTO{
			Date:      entry.Date.String(),
			Available: entry.Available,
		}
		if entry.Available {
			entryDTO.StartTime = entry.StartTime.String()
			entryDTO.EndTime = entry.EndTime.String()
		}
		dto.Dates = append(dto.Dates, entryDTO)
	}
	for _, slot := range record.UnavailableSlots {
		dto.UnavailableSlots = append(dto.UnavailableSlots, unavailableSlotDTO{
			ID:                  slot.ID,
			Date:                slot.Date.String(),
			StartTime:           slot.StartTime.String(),
			EndTime:             slot.EndTime.String(),
			Title:               slot.Title,
			Recurrence:          recurrenceToDTO(slot.Recurrence),
			ParentSlotID:        slot.ParentSlotID,
			IsRecurringInstance: slot.IsRecurringInstance,
		})
	}
	return dto
}

func (d availabilityRecordDTO) toRecord(userID string) (availability.Record, error) {
	record := availability.Record{
		UserID:           userID,
		Dates:            []availability.DateAvailability{},
		UnavailableSlots: []availability.UnavailableSlot{},
	}

	var err error
	if record.DefaultStart, err = timerange.ParseTimeOfDay(d.DefaultStart); err != nil {
		return availability.Record{}, err
	}
	if record.DefaultEnd, err = timerange.ParseTimeOfDay(d.DefaultEnd); err != nil {
		return availability.Record{}, err
	}

	for _, entryDTO := range d.Dates {
		entry := availability.DateAvailability{Available: entryDTO.Available}
		if entry.Date, err = timerange.ParseDate(entryDTO.Date); err != nil {
			return availability.Record{}, err
		}
		if entryDTO.Available {
			if entry.StartTime, err = timerange.ParseTimeOfDay(entryDTO.StartTime); err != nil {
				return availability.Record{}, err
			}
			if entry.EndTime, err = timerange.ParseTimeOfDay(entryDTO.EndTime); err != nil {
				return availability.Record{}, err
			}
		}
		record.Dates = append(record.Dates, entry)
	}

	for _, slotDTO := range d.UnavailableSlots {
		slot := availability.UnavailableSlot{
			ID:                  slotDTO.ID,
			Title:               slotDTO.Title,
			ParentSlotID:        slotDTO.ParentSlotID,
			IsRecurringInstance: slotDTO.IsRecurringInstance,
		}
		if slot.Date, err = timerange.ParseDate(slotDTO.Date); err != nil {
			return availability.Record{}, err
		}
		if slot.StartTime, err = timerange.ParseTimeOfDay(slotDTO.StartTime); err != nil {
			return availability.Record{}, err
		}
		if slot.EndTime, err = timerange.ParseTimeOfDay(slotDTO.EndTime); err != nil {
			return availability.Record{}, err
		}
		if slot.Recurrence, err = slotDTO.Recurrence.toRule(); err != nil {
			return availability.Record{}, err
		}
		record.UnavailableSlots = append(record.UnavailableSlots, slot)
	}

	return record, nil
}

type conflictDTO struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Reason   string `json:"reason"`
}

type conflictReportDTO struct {
	Available bool          `json:"available"`
	Conflicts []conflictDTO `json:"conflicts"`
}

func conflictReportToDTO(report scheduler.ConflictReport) conflictReportDTO {
	dto := conflictReportDTO{
		Available: report.Available,
		Conflicts: []conflictDTO{},
	}
	for _, conflict := range report.Conflicts {
		dto.Conflicts = append(dto.Conflicts, conflictDTO{
			UserID:   conflict.UserID,
			UserName: conflict.UserName,
			Reason:   conflict.Reason,
		})
	}
	return dto
}

type slotDTO struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	AvailableUsers []string `json:"available_users"`
}

func slotsToDTO(slots []scheduler.Slot) []slotDTO {
	dto := []slotDTO{}
	for _, slot := range slots {
		dto = append(dto, slotDTO{
			Start:          slot.Start.String(),
			End:            slot.End.String(),
			AvailableUsers: slot.AvailableUsers,
		})
	}
	return dto
}

type eventDTO struct {
	ID                  string         `json:"id"`
	Title               string         `json:"title"`
	Description         string         `json:"description,omitempty"`
	Start               time.Time      `json:"start"`
	End                 time.Time      `json:"end"`
	AllDay              bool           `json:"all_day,omitempty"`
	CreatedBy           string         `json:"created_by"`
	Attendees           []string       `json:"attendees"`
	Recurrence          *recurrenceDTO `json:"recurrence,omitempty"`
	ParentEventID       string         `json:"parent_event_id,omitempty"`
	IsRecurringInstance bool           `json:"is_recurring_instance,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

func eventToDTO(entry events.Event) eventDTO {
	attendees := entry.Attendees
	if attendees == nil {
		attendees = []string{}
	}
	return eventDTO{
		ID:                  entry.ID,
		Title:               entry.Title,
		Description:         entry.Description,
		Start:               entry.Start,
		End:                 entry.End,
		AllDay:              entry.AllDay,
		CreatedBy:           entry.CreatedBy,
		Attendees:           attendees,
		Recurrence:          recurrenceToDTO(entry.Recurrence),
		ParentEventID:       entry.ParentEventID,
		IsRecurringInstance: entry.IsRecurringInstance,
		CreatedAt:           entry.CreatedAt,
		UpdatedAt:           entry.UpdatedAt,
	}
}

func eventsToDTO(entries []events.Event) []eventDTO {
	dto := []eventDTO{}
	for _, entry := range entries {
		dto = append(dto, eventToDTO(entry))
	}
	return dto
}

type meetingRequestDTO struct {
	ID              string      `json:"id"`
	RequesterID     string      `json:"requester_id"`
	OwnerID         string      `json:"owner_id"`
	Subject         string      `json:"subject"`
	Message         string      `json:"message,omitempty"`
	PreferredDates  []time.Time `json:"preferred_dates"`
	DurationMinutes int         `json:"duration_minutes"`
	Status          string      `json:"status"`
	ScheduledDate   *time.Time  `json:"scheduled_date,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func meetingRequestToDTO(request meeting.Request) meetingRequestDTO {
	preferred := request.PreferredDates
	if preferred == nil {
		preferred = []time.Time{}
	}
	return meetingRequestDTO{
		ID:              request.ID,
		RequesterID:     request.RequesterID,
		OwnerID:         request.OwnerID,
		Subject:         request.Subject,
		Message:         request.Message,
		PreferredDates:  preferred,
		DurationMinutes: request.DurationMinutes,
		Status:          string(request.Status),
		ScheduledDate:   request.ScheduledDate,
		CreatedAt:       request.CreatedAt,
		UpdatedAt:       request.UpdatedAt,
	}
}

func meetingRequestsToDTO(requests []meeting.Request) []meetingRequestDTO {
	dto := []meetingRequestDTO{}
	for _, request := range requests {
		dto = append(dto, meetingRequestToDTO(request))
	}
	return dto
}
