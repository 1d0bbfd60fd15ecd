package models

import "time"

// Venue is a bookable listing owned by an account, published independently of the
// owner's provider profile.
type Venue struct {
	ID          int64     `json:"id"`
	VendorID    string    `json:"vendor_id"`
	VenueName   string    `json:"venue_name"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	Price       float64   `json:"price"`
	Currency    Currency  `json:"currency"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
