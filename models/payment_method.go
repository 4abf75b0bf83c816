package models

import "time"

// PaymentChannel is a mobile-money or bank account number students can send
// payments to. The active ones are published on the payment page.
type PaymentChannel struct {
	ID          int       `json:"id"`
	MethodName  string    `json:"method_name"` // bKash, Nagad, Rocket, Bank
	Number      string    `json:"number"`
	AccountType string    `json:"account_type"` // Personal or Agent
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
