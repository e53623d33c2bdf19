package formatting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "45,00 €", FormatPrice(45, "eur"))
	assert.Equal(t, "12,50 $", FormatPrice(12.5, "USD"))
	assert.Equal(t, "9,99 PLN", FormatPrice(9.99, "PLN"))
	assert.Equal(t, "45 €", FormatPriceShort(45, "EUR"))
	assert.Equal(t, "12,50 €", FormatPriceShort(12.5, "EUR"))
}

func TestFormatDates(t *testing.T) {
	monday := time.Date(2026, time.October, 19, 9, 5, 0, 0, time.UTC)

	assert.Equal(t, "lundi 19 octobre 2026", FormatDate(monday))
	assert.Equal(t, "lun. 19/10", FormatDateShort(monday))
	assert.Equal(t, "lun. 19/10 09:05", FormatDateTime(monday))
	assert.Equal(t, "09:05 - 10:05", FormatTimeRange(monday, monday.Add(time.Hour)))

	key := DateKey(monday)
	assert.Equal(t, "20261019", key)
	parsed, err := ParseDateKey(key, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseDateKey("2026-10-19", time.UTC)
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "45 min", FormatDuration(45))
	assert.Equal(t, "3 h", FormatDuration(180))
	assert.Equal(t, "1 h 30", FormatDuration(90))
}

func TestStatusesAndPlurals(t *testing.T) {
	assert.Equal(t, "❌ Annulée", SessionStatusDisplay(model.SessionStatusCancelled).String())
	assert.Equal(t, "Inconnu", SessionStatusDisplay("weird").Text)
	assert.Equal(t, "Non renseignée", AttendanceDisplay("").Text)
	assert.Equal(t, "À verser", PayoutStatusDisplay(model.PayoutStatusPending).Text)

	assert.Equal(t, "1 séance", Sessions(1))
	assert.Equal(t, "3 séances", Sessions(3))
	assert.Equal(t, "0 élève", Students(0))
}

func TestFormatAvailability(t *testing.T) {
	morning := []model.TimeRange{{Start: "09:00", End: "10:00"}, {Start: "10:00", End: "11:00"}}
	a := &model.Availability{Availability: []model.TeacherAvailability{
		{Day: "wednesday", Enabled: true, TimeSlots: morning},
		{Day: "monday", Enabled: true, TimeSlots: morning},
		{Day: "tuesday", Enabled: true, TimeSlots: []model.TimeRange{{Start: "10:00", End: "11:00"}, {Start: "09:00", End: "10:00"}}},
		{Day: "friday", Enabled: true, TimeSlots: []model.TimeRange{{Start: "14:00", End: "15:00"}}},
		{Day: "saturday", Enabled: false, TimeSlots: morning},
		{Day: "sunday", Enabled: true},
	}}

	assert.Equal(t, []string{
		"lun.-mer. : 09:00 - 10:00, 10:00 - 11:00",
		"ven. : 14:00 - 15:00",
	}, FormatAvailability(a))
	assert.Empty(t, FormatAvailability(nil))
}

func TestFormatWeekdayRange(t *testing.T) {
	assert.Equal(t, "lun., mer., ven.", FormatWeekdayRange([]time.Weekday{time.Monday, time.Wednesday, time.Friday}))
	assert.Equal(t, "sam., dim.", FormatWeekdayRange([]time.Weekday{time.Saturday, time.Sunday}))
	assert.Equal(t, "ven.-dim.", FormatWeekdayRange([]time.Weekday{time.Friday, time.Saturday, time.Sunday}))
	assert.Equal(t, "", FormatWeekdayRange(nil))
}
