package model

import "time"

type Announcement struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"createdBy,omitempty"`
	SentCount int       `json:"sentCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
