package domain

import "time"

type WaitlistRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Amount string `json:"amount"`
	Term   string `json:"term"`
	Notes  string `json:"notes"`
	Source string `json:"source,omitempty"`
}

type WaitlistEntry struct {
	ID         string    `json:"id" bson:"_id"`
	Name       string    `json:"name" bson:"name"`
	Email      string    `json:"email,omitempty" bson:"email,omitempty"`
	Phone      string    `json:"phone" bson:"phone"`
	LoanAmount float64   `json:"loanAmount" bson:"loan_amount"`
	TermMonths int       `json:"termMonths" bson:"term_months"`
	Notes      string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Source     string    `json:"source" bson:"source"`
	CreatedAt  time.Time `json:"createdAt" bson:"created_at"`
}

type JoinResult struct {
	Entry   WaitlistEntry
	Created bool
	Message string
}
