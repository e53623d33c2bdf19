package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentIntent создаётся на стороне backend у платёжного провайдера
type PaymentIntent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"` // в центах
	Currency     string `json:"currency"`
}

// PaymentResult результат оплаты, приходит от hosted-виджета через webhook
type PaymentResult struct {
	PaymentIntentID string        `json:"paymentIntentId"`
	Status          PaymentStatus `json:"status"`
	Error           *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Succeeded true если оплата прошла
func (r *PaymentResult) Succeeded() bool {
	return r.Status == PaymentStatusSucceeded
}

// ErrorMessage текст ошибки провайдера
func (r *PaymentResult) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}
	return r.Error.Message
}

// Payment платёж студента (дашборд администратора)
type Payment struct {
	ID        string        `json:"id"`
	Student   string        `json:"student"`
	Course    string        `json:"course"`
	Amount    float64       `json:"amount"`
	Currency  string        `json:"currency"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid"
)

// Payout выплата учителю
type Payout struct {
	ID          string       `json:"id"`
	Teacher     string       `json:"teacher"`
	TeacherName string       `json:"teacherName"`
	Amount      float64      `json:"amount"`
	Currency    string       `json:"currency"`
	Status      PayoutStatus `json:"status"`
	PeriodStart time.Time    `json:"periodStart"`
	PeriodEnd   time.Time    `json:"periodEnd"`
}
