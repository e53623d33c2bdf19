package model

// TeacherStats агрегаты для дашборда учителя
type TeacherStats struct {
	TotalSessions     int     `json:"totalSessions"`
	UpcomingSessions  int     `json:"upcomingSessions"`
	CompletedSessions int     `json:"completedSessions"`
	TotalStudents     int     `json:"totalStudents"`
	TotalEarnings     float64 `json:"totalEarnings"`
	PendingPayout     float64 `json:"pendingPayout"`
}

// AdminStats агрегаты для дашборда администратора
type AdminStats struct {
	TotalUsers     int     `json:"totalUsers"`
	TotalTeachers  int     `json:"totalTeachers"`
	TotalCourses   int     `json:"totalCourses"`
	ActiveSessions int     `json:"activeSessions"`
	TotalRevenue   float64 `json:"totalRevenue"`
	PendingPayouts int     `json:"pendingPayouts"`
}
