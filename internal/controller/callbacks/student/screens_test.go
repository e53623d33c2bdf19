package student

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/Freeeeeet/tutoring_bot/internal/service"
)

var (
	now    = time.Date(2026, time.October, 17, 10, 0, 0, 0, time.UTC)
	monday = time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC)
	nine   = model.NewAvailableTimeSlot(model.TimeRange{Start: "09:00", End: "10:00"})
)

func newFlow(t *testing.T) *service.Flow {
	t.Helper()
	course := model.Course{ID: "go-101", Title: "Go <avancé>", Duration: 180, Price: 45, Instructor: "t1"}
	f := service.NewFlow(1001, &model.User{PlatformUserID: "s1"}, course, now)
	template := &model.Availability{Availability: []model.TeacherAvailability{
		{Day: "monday", Enabled: true, TimeSlots: []model.TimeRange{{Start: "09:00", End: "10:00"}}},
	}}
	require.NoError(t, f.EnterTimeBooking(template, now))
	return f
}

func callbacks(kb *models.InlineKeyboardMarkup) []string {
	var data []string
	for _, row := range kb.InlineKeyboard {
		for _, b := range row {
			if b.CallbackData != "" {
				data = append(data, b.CallbackData)
			}
		}
	}
	return data
}

func assertCallbackLimits(t *testing.T, kb *models.InlineKeyboardMarkup) {
	t.Helper()
	for _, data := range callbacks(kb) {
		assert.LessOrEqual(t, len(data), 64, data)
	}
}

func TestTimeBookingScreen_PayOnlyWhenComplete(t *testing.T) {
	f := newFlow(t)

	screen := TimeBookingScreen(f)
	assert.NotContains(t, callbacks(screen.Keyboard), DataPay)
	assert.Contains(t, callbacks(screen.Keyboard), DataDates+"0")
	assert.Contains(t, screen.Text, "Go &lt;avancé&gt;")
	assert.Contains(t, screen.Text, "lun. : 09:00 - 10:00")

	for i := 0; i < 3; i++ {
		_, err := f.AddDate(monday.AddDate(0, 0, 7*i), now)
		require.NoError(t, err)
	}
	require.NoError(t, f.SelectSlot(0, nine, now))

	screen = TimeBookingScreen(f)
	assert.NotContains(t, callbacks(screen.Keyboard), DataPay)
	assert.Contains(t, callbacks(screen.Keyboard), DataWeekly+"0")
	assertCallbackLimits(t, screen.Keyboard)

	require.NoError(t, f.SelectSlot(1, nine, now))
	require.NoError(t, f.SelectSlot(2, nine, now))

	screen = TimeBookingScreen(f)
	assert.Contains(t, callbacks(screen.Keyboard), DataPay)
	assert.NotContains(t, callbacks(screen.Keyboard), DataWeekly+"0")
	assert.NotContains(t, callbacks(screen.Keyboard), DataDates+"0")
}

func TestDatesScreen_HidesSelectedDates(t *testing.T) {
	f := newFlow(t)
	_, err := f.AddDate(monday, now)
	require.NoError(t, err)

	candidates := []time.Time{monday, monday.AddDate(0, 0, 7), monday.AddDate(0, 0, 14)}
	screen := DatesScreen(f, candidates, 0)

	data := callbacks(screen.Keyboard)
	assert.NotContains(t, data, DataAdd+"20261019")
	assert.Contains(t, data, DataAdd+"20261026")
	assert.Contains(t, data, DataAdd+"20261102")
	assertCallbackLimits(t, screen.Keyboard)
}

func TestSlotsScreen_MarksCurrentSlot(t *testing.T) {
	f := newFlow(t)
	_, err := f.AddDate(monday, now)
	require.NoError(t, err)
	require.NoError(t, f.SelectSlot(0, nine, now))

	slots := []model.AvailableTimeSlot{nine, model.NewAvailableTimeSlot(model.TimeRange{Start: "14:00", End: "15:00"})}
	screen := SlotsScreen(f, 0, slots)

	require.NotEmpty(t, screen.Keyboard.InlineKeyboard)
	first := screen.Keyboard.InlineKeyboard[0]
	require.Len(t, first, 2)
	assert.True(t, strings.HasPrefix(first[0].Text, "✅"))
	assert.Equal(t, DataSlot+"0:0900", first[0].CallbackData)
	assert.Equal(t, DataSlot+"0:1400", first[1].CallbackData)

	empty := SlotsScreen(f, 0, nil)
	assert.Contains(t, callbacks(empty.Keyboard), DataRemove+"0")
}

func TestCourseDetailsScreen(t *testing.T) {
	f := service.NewFlow(1, &model.User{PlatformUserID: "s1"}, model.Course{ID: "c", Title: "Piano", Duration: 90, Price: 30}, now)

	screen := FlowScreen(f, "", "eur", time.UTC)
	assert.Contains(t, screen.Text, "Étape 1/4")
	assert.Contains(t, screen.Text, "2 séances")
	assert.Contains(t, callbacks(screen.Keyboard), DataTime)
}

func TestBookingFailedText(t *testing.T) {
	assert.Contains(t, BookingFailedText(service.ErrLatePayment), "réservation fermée")
	assert.Contains(t, BookingFailedText(errors.New("boom")), "La réservation a échoué")
}
