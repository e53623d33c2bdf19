package common

import (
	"bytes"
	"image/color"
	"strconv"
	"sync"
	"time"

	"github.com/Freeeeeet/tutoring_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/tutoring_bot/internal/model"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontStyle стиль шрифта на картинке недели
type FontStyle string

const (
	FontStyleRegular FontStyle = ""
	FontStyleMedium  FontStyle = "medium"
	FontStyleBold    FontStyle = "bold"
)

// Размеры и отступы
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 130
	dayPaddingX      = 8
	minBlockHeight   = 8.0
	blockRadius      = 6.0
	shadowOffset     = 3.0
	daysInWeek       = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 8
	defaultMaxHour   = 20
	blockLabelMaxLen = 18
)

const (
	titleFontSize     = 25.0
	dayFontSize       = 24.0
	hourLabelFontSize = 18.0
	blockFontSize     = 16.0
	legendFontSize    = 13.0
)

var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 125}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	scheduledColor = color.RGBA{133, 193, 85, 220}
	ongoingColor   = color.RGBA{100, 160, 230, 230}
	completedColor = color.RGBA{190, 190, 200, 220}
	cancelledColor = color.RGBA{255, 182, 193, 255}
	blockTextColor = color.RGBA{20, 24, 28, 230}
	shadowColor    = color.RGBA{0, 0, 0, 20}

	legendTextColor = color.RGBA{70, 74, 78, 220}
)

// WeekBlock одно занятие на картинке
type WeekBlock struct {
	Start  time.Time
	End    time.Time
	Label  string
	Status model.SessionStatus
}

// WeekBlocks занятия в часовом поясе loc с подписями из titles (ID курса -> название)
func WeekBlocks(sessions []model.Session, titles map[string]string, loc *time.Location) []WeekBlock {
	blocks := make([]WeekBlock, 0, len(sessions))
	for _, s := range sessions {
		label := titles[s.Course]
		blocks = append(blocks, WeekBlock{
			Start:  s.StartTime.In(loc),
			End:    s.EndTime.In(loc),
			Label:  label,
			Status: s.Status,
		})
	}
	return blocks
}

type weekBounds struct {
	start time.Time
	end   time.Time // не включительно
}

type hourRange struct {
	start int
	end   int
	total int
}

var (
	fontsMu     sync.Mutex
	parsedFonts = make(map[FontStyle]*opentype.Font)
)

func fontData(style FontStyle) []byte {
	switch style {
	case FontStyleBold:
		return gobold.TTF
	case FontStyleMedium:
		return gomedium.TTF
	default:
		return goregular.TTF
	}
}

// loadFont ставит шрифт нужного стиля, при ошибке basicfont
func loadFont(dc *gg.Context, size float64, style FontStyle) {
	fontsMu.Lock()
	parsed, ok := parsedFonts[style]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData(style))
		if err != nil {
			fontsMu.Unlock()
			dc.SetFontFace(basicfont.Face7x13)
			return
		}
		parsedFonts[style] = parsed
	}
	fontsMu.Unlock()

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// GenerateWeekImage рисует неделю (пн-вс), содержащую day, с блоками занятий. PNG.
func GenerateWeekImage(day time.Time, blocks []WeekBlock, now time.Time) ([]byte, error) {
	week := weekOf(day)
	today := startOfDay(now.In(day.Location()))
	highlightToday := !today.Before(week.start) && today.Before(week.end)

	byDay := groupByDay(blocks, week)
	hours := hoursFor(byDay)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()

	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / daysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, week)
	drawHourLabels(dc, hours, cellHeight)

	date := week.start
	for i := 0; i < daysInWeek; i++ {
		x := float64(leftLabelsWidth + i*dayWidth)
		y := float64(headerHeight)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, i, highlightToday && date.Equal(today))
		drawDayHeader(dc, date, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, b := range byDay[i] {
			drawBlock(dc, b, x, y, dayWidth, hours, cellHeight)
		}
		date = date.AddDate(0, 0, 1)
	}

	if highlightToday {
		drawCurrentTimeLine(dc, now.In(day.Location()), hours, cellHeight, dayWidth)
	}
	drawLegend(dc, dayWidth)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// weekOf понедельник недели, содержащей day, и следующий понедельник
func weekOf(day time.Time) weekBounds {
	d := startOfDay(day)
	offset := (int(d.Weekday()) + 6) % 7
	start := d.AddDate(0, 0, -offset)
	return weekBounds{start: start, end: start.AddDate(0, 0, daysInWeek)}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// groupByDay раскладывает блоки по индексу дня недели, чужие недели отбрасываются
func groupByDay(blocks []WeekBlock, week weekBounds) map[int][]WeekBlock {
	byDay := make(map[int][]WeekBlock)
	for _, b := range blocks {
		if b.Start.Before(week.start) || !b.Start.Before(week.end) {
			continue
		}
		idx := int(startOfDay(b.Start).Sub(week.start).Hours()+0.5) / 24
		byDay[idx] = append(byDay[idx], b)
	}
	return byDay
}

// hoursFor диапазон часов по занятиям недели с небольшим запасом
func hoursFor(byDay map[int][]WeekBlock) hourRange {
	minHour, maxHour := 24, 0
	for _, blocks := range byDay {
		for _, b := range blocks {
			endH := b.End.Hour()
			if b.End.Minute() > 0 || !startOfDay(b.End).Equal(startOfDay(b.Start)) {
				endH++
			}
			if !startOfDay(b.End).Equal(startOfDay(b.Start)) {
				endH = 24
			}
			minHour = min(minHour, b.Start.Hour())
			maxHour = max(maxHour, endH)
		}
	}

	if minHour == 24 {
		minHour, maxHour = defaultMinHour, defaultMaxHour
	}

	start := max(0, minHour-hourPaddingTop)
	end := min(23, maxHour+hourPaddingBot)
	return hourRange{start: start, end: end, total: end - start + 1}
}

func drawHeader(dc *gg.Context, week weekBounds) {
	last := week.end.AddDate(0, 0, -1)
	title := formatting.MonthName(week.start.Month()) + " " + strconv.Itoa(week.start.Year())
	if week.start.Month() != last.Month() {
		title = formatting.MonthName(week.start.Month()) + " - " + formatting.MonthName(last.Month()) + " " + strconv.Itoa(last.Year())
	}

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	w, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, w/2+10, float64(headerHeight)/8+h/2, 0, 0)
}

func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize, FontStyleMedium)
	dc.SetColor(hourLabelColor)

	for i := 0; i < hours.total; i++ {
		y := float64(headerHeight) + float64(i)*cellHeight
		label := twoDigits(hours.start+i) + ":00"
		dc.DrawStringAnchored(label, float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(date.Format("02/01"), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(weekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for i := 0; i <= hours.total; i++ {
		hy := y + float64(i)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

func drawBlock(dc *gg.Context, b WeekBlock, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	startHour := float64(b.Start.Hour()) + float64(b.Start.Minute())/60
	endHour := float64(b.End.Hour()) + float64(b.End.Minute())/60
	if !startOfDay(b.End).Equal(startOfDay(b.Start)) {
		endHour = float64(hours.end + 1)
	}

	blockY := y + (startHour-float64(hours.start))*cellHeight
	blockHeight := max((endHour-startHour)*cellHeight, minBlockHeight)
	blockWidth := float64(dayWidth) - float64(dayPaddingX*2)
	fill := statusColor(b.Status)

	dc.SetColor(shadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, blockY+2+shadowOffset, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(fill)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(darken(fill, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Stroke()

	loadFont(dc, blockFontSize, FontStyleMedium)
	dc.SetColor(blockTextColor)
	txtX := x + dayPaddingX + 8
	txtY := blockY + 18
	dc.DrawStringAnchored(b.Start.Format("15:04"), txtX, txtY, 0, 0)

	if b.Label != "" && blockHeight > 25 {
		loadFont(dc, blockFontSize-2, FontStyleRegular)
		dc.DrawStringAnchored(shorten(b.Label, blockLabelMaxLen), txtX, txtY+16, 0, 0)
	}
}

func statusColor(status model.SessionStatus) color.RGBA {
	switch status {
	case model.SessionStatusOngoing:
		return ongoingColor
	case model.SessionStatusCompleted:
		return completedColor
	case model.SessionStatusCancelled:
		return cancelledColor
	default:
		return scheduledColor
	}
}

func darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine красная линия текущего времени
func drawCurrentTimeLine(dc *gg.Context, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	current := float64(now.Hour()) + float64(now.Minute())/60
	if current < float64(hours.start) || current > float64(hours.end+1) {
		return
	}

	lineY := float64(headerHeight) + (current-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), lineY, float64(leftLabelsWidth+daysInWeek*dayWidth), lineY)
	dc.Stroke()
}

func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + daysInWeek*dayWidth + 10)
	itemY := float64(imageHeight) - 130.0

	items := []model.SessionStatus{
		model.SessionStatusScheduled,
		model.SessionStatusOngoing,
		model.SessionStatusCompleted,
		model.SessionStatusCancelled,
	}

	const boxW, boxH = 20.0, 14.0
	for _, status := range items {
		dc.SetColor(statusColor(status))
		dc.DrawRoundedRectangle(legendX, itemY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendFontSize, FontStyleRegular)
		dc.SetColor(legendTextColor)
		dc.DrawStringAnchored(formatting.SessionStatusDisplay(status).Text, legendX+boxW+8, itemY+boxH/2+1, 0, 0.2)
		itemY += boxH + 14
	}
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func shorten(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func weekdayShort(weekday time.Weekday) string {
	return [...]string{"Dim", "Lun", "Mar", "Mer", "Jeu", "Ven", "Sam"}[weekday]
}
