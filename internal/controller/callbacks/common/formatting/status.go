package formatting

import "github.com/Freeeeeet/tutoring_bot/internal/model"

// StatusDisplay emoji и текст статуса
type StatusDisplay struct {
	Emoji string
	Text  string
}

func (d StatusDisplay) String() string {
	return d.Emoji + " " + d.Text
}

var unknownStatus = StatusDisplay{"❓", "Inconnu"}

// SessionStatusDisplay статус занятия
func SessionStatusDisplay(status model.SessionStatus) StatusDisplay {
	displays := map[model.SessionStatus]StatusDisplay{
		model.SessionStatusScheduled: {"🗓", "Planifiée"},
		model.SessionStatusOngoing:   {"🟢", "En cours"},
		model.SessionStatusCompleted: {"✔️", "Terminée"},
		model.SessionStatusCancelled: {"❌", "Annulée"},
	}
	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}

// AttendanceDisplay присутствие студента
func AttendanceDisplay(status model.AttendanceStatus) StatusDisplay {
	displays := map[model.AttendanceStatus]StatusDisplay{
		model.AttendancePending: {"⏳", "Non renseignée"},
		model.AttendancePresent: {"✅", "Présent"},
		model.AttendanceAbsent:  {"🚫", "Absent"},
	}
	if display, ok := displays[status]; ok {
		return display
	}
	return displays[model.AttendancePending]
}

// CourseStatusDisplay статус модерации курса
func CourseStatusDisplay(status model.CourseStatus) StatusDisplay {
	displays := map[model.CourseStatus]StatusDisplay{
		model.CourseStatusDraft:     {"📝", "Brouillon"},
		model.CourseStatusPending:   {"⏳", "En attente"},
		model.CourseStatusPublished: {"🟢", "Publié"},
		model.CourseStatusArchived:  {"📦", "Archivé"},
	}
	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}

// PaymentStatusDisplay статус платежа
func PaymentStatusDisplay(status model.PaymentStatus) StatusDisplay {
	displays := map[model.PaymentStatus]StatusDisplay{
		model.PaymentStatusPending:   {"⏳", "En attente"},
		model.PaymentStatusSucceeded: {"✅", "Réussi"},
		model.PaymentStatusFailed:    {"❌", "Échoué"},
		model.PaymentStatusRefunded:  {"↩️", "Remboursé"},
	}
	if display, ok := displays[status]; ok {
		return display
	}
	return unknownStatus
}

// PayoutStatusDisplay статус выплаты учителю
func PayoutStatusDisplay(status model.PayoutStatus) StatusDisplay {
	if status == model.PayoutStatusPaid {
		return StatusDisplay{"✅", "Versé"}
	}
	return StatusDisplay{"⏳", "À verser"}
}
