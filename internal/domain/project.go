package domain

import "time"

// Project is an operations campaign jobbers contribute to.
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Link        string    `json:"link,omitempty"`
	Price       string    `json:"price,omitempty"`
	Niche       string    `json:"niche,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
