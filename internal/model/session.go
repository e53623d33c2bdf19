package model

import "time"

type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "scheduled"
	SessionStatusOngoing   SessionStatus = "ongoing"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Valid проверяет что статус известен backend
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusScheduled, SessionStatusOngoing, SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

type AttendanceStatus string

const (
	AttendancePending AttendanceStatus = "pending"
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
)

type Enrollment struct {
	Student    string           `json:"student"`
	Attendance AttendanceStatus `json:"attendance"`
}

// Session занятие, владелец - backend. Клиент только читает и патчит поля.
type Session struct {
	ID                string        `json:"id"`
	Course            string        `json:"course"`
	Teacher           string        `json:"teacher"`
	StartTime         time.Time     `json:"startTime"`
	EndTime           time.Time     `json:"endTime"`
	Status            SessionStatus `json:"status"`
	Enrolled          []Enrollment  `json:"enrolled"`
	MeetingLink       string        `json:"meetingLink,omitempty"`
	QuizAccessEnabled bool          `json:"quizAccessEnabled"`
}

// Overlaps проверяет пересечение занятия с интервалом [start, end)
func (s *Session) Overlaps(start, end time.Time) bool {
	return start.Before(s.EndTime) && s.StartTime.Before(end)
}

// IsEnrolled проверяет записан ли студент на занятие
func (s *Session) IsEnrolled(studentID string) bool {
	for _, e := range s.Enrolled {
		if e.Student == studentID {
			return true
		}
	}
	return false
}
