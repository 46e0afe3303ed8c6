package models

import "time"

// Channel holds the messaging credentials of one business phone number.
type Channel struct {
	ID            string    `json:"id"              validate:"required"`
	Name          string    `json:"name"`
	PhoneNumberID string    `json:"phone_number_id" validate:"required"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	AccessToken   string    `json:"access_token"    validate:"required"`
	VerifyToken   string    `json:"verify_token"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
