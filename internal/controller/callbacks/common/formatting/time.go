package formatting

import (
	"fmt"
	"time"
)

var weekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}

var weekdaysShort = [...]string{"dim.", "lun.", "mar.", "mer.", "jeu.", "ven.", "sam."}

var months = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// WeekdayName название дня недели
func WeekdayName(d time.Weekday) string {
	return weekdays[d]
}

// MonthName название месяца
func MonthName(m time.Month) string {
	return months[m-1]
}

// FormatDate "lundi 19 octobre 2026"
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d %s %d", WeekdayName(t.Weekday()), t.Day(), MonthName(t.Month()), t.Year())
}

// FormatDateShort "lun. 19/10"
func FormatDateShort(t time.Time) string {
	return fmt.Sprintf("%s %02d/%02d", weekdaysShort[t.Weekday()], t.Day(), int(t.Month()))
}

// FormatTime "09:00"
func FormatTime(t time.Time) string {
	return t.Format("15:04")
}

// FormatDateTime "lun. 19/10 09:00"
func FormatDateTime(t time.Time) string {
	return FormatDateShort(t) + " " + FormatTime(t)
}

// FormatTimeRange "09:00 - 10:00"
func FormatTimeRange(start, end time.Time) string {
	return fmt.Sprintf("%s - %s", FormatTime(start), FormatTime(end))
}

// FormatDuration длительность в минутах: "45 min", "3 h", "1 h 30"
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d min", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d h", hours)
	}
	return fmt.Sprintf("%d h %02d", hours, mins)
}

// DateKey дата для callback data: "20261019"
func DateKey(t time.Time) string {
	return t.Format("20060102")
}

// ParseDateKey обратное к DateKey в часовом поясе loc
func ParseDateKey(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("20060102", s, loc)
}
