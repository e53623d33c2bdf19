package service

import "errors"

// Ошибки бизнес-логики, controller переводит их в тексты для пользователя
var (
	ErrNotLinked         = errors.New("account is not linked to the platform")
	ErrForbidden         = errors.New("operation not allowed for this role")
	ErrNoActiveBooking   = errors.New("no active booking flow")
	ErrInvalidStep       = errors.New("operation not allowed at this booking step")
	ErrDatesIncomplete   = errors.New("selected dates do not match required sessions")
	ErrTooManyDates      = errors.New("all required dates are already selected")
	ErrDuplicateDate     = errors.New("date is already selected")
	ErrDateInPast        = errors.New("date is in the past")
	ErrDateNotAvailable  = errors.New("teacher is not available on this date")
	ErrSlotUnavailable   = errors.New("time slot is not available")
	ErrInvalidDateIndex  = errors.New("invalid date index")
	ErrUnknownPayment    = errors.New("unknown payment intent")
	ErrCourseUnavailable = errors.New("course is not open for enrollment")
	ErrQuizLocked        = errors.New("quiz access is not enabled")
	ErrInvalidQuizFormat = errors.New("invalid quiz format")
)
