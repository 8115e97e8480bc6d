package domain

import "time"

// Demographics are optional user attributes used only for cohort
// comparison when picking a norm group.
type Demographics struct {
	Age       int    `json:"age,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Education string `json:"education,omitempty"`
	Country   string `json:"country,omitempty"`
}

// User is an optional identity. Sessions may instead be fully anonymous,
// owned by an opaque token. The system never deletes users on its own;
// only demographics are ever mutated after creation.
type User struct {
	ID                string
	GoogleID          string
	Email             string
	Name              string
	ProfilePictureURL string
	Demographics      Demographics
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}
