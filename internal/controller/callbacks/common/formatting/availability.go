package formatting

import (
	"sort"
	"strings"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/model"
)

// AvailabilityGroup дни недели с одинаковыми диапазонами времени
type AvailabilityGroup struct {
	Weekdays []time.Weekday
	Ranges   []model.TimeRange
}

// weekOrder порядок дней с понедельника
func weekOrder(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// GroupAvailability группирует включённые дни шаблона по совпадающим диапазонам.
// Группы идут по первому дню недели, начиная с понедельника.
func GroupAvailability(a *model.Availability) []AvailabilityGroup {
	if a == nil {
		return nil
	}

	byKey := make(map[string]*AvailabilityGroup)
	var keys []string
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		for _, day := range a.Availability {
			if !strings.EqualFold(day.Day, model.WeekdayKey(wd)) || !day.Enabled || len(day.TimeSlots) == 0 {
				continue
			}

			ranges := make([]model.TimeRange, len(day.TimeSlots))
			copy(ranges, day.TimeSlots)
			sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })

			key := rangesKey(ranges)
			g, ok := byKey[key]
			if !ok {
				g = &AvailabilityGroup{Ranges: ranges}
				byKey[key] = g
				keys = append(keys, key)
			}
			g.Weekdays = append(g.Weekdays, wd)
			break
		}
	}

	groups := make([]AvailabilityGroup, 0, len(keys))
	for _, key := range keys {
		g := byKey[key]
		sort.Slice(g.Weekdays, func(i, j int) bool { return weekOrder(g.Weekdays[i]) < weekOrder(g.Weekdays[j]) })
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return weekOrder(groups[i].Weekdays[0]) < weekOrder(groups[j].Weekdays[0])
	})
	return groups
}

func rangesKey(ranges []model.TimeRange) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.Start + "-" + r.End
	}
	return strings.Join(parts, ",")
}

// FormatWeekdayRange "lun.-ven." для подряд идущих дней, иначе перечисление "lun., mer., ven."
func FormatWeekdayRange(weekdays []time.Weekday) string {
	if len(weekdays) == 0 {
		return ""
	}

	sequence := true
	for i := 1; i < len(weekdays); i++ {
		if weekOrder(weekdays[i]) != weekOrder(weekdays[i-1])+1 {
			sequence = false
			break
		}
	}
	if sequence && len(weekdays) > 2 {
		return weekdaysShort[weekdays[0]] + "-" + weekdaysShort[weekdays[len(weekdays)-1]]
	}

	names := make([]string, len(weekdays))
	for i, wd := range weekdays {
		names[i] = weekdaysShort[wd]
	}
	return strings.Join(names, ", ")
}

// FormatAvailability строки вида "lun.-ven. : 09:00 - 12:00, 14:00 - 17:00"
func FormatAvailability(a *model.Availability) []string {
	groups := GroupAvailability(a)
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		ranges := make([]string, len(g.Ranges))
		for i, r := range g.Ranges {
			ranges[i] = r.Start + " - " + r.End
		}
		lines = append(lines, FormatWeekdayRange(g.Weekdays)+" : "+strings.Join(ranges, ", "))
	}
	return lines
}
