package models

import "time"

// User is the write model. Groups and Contacts are only populated on detail
// reads; they are never used to persist relationships.
type User struct {
	ID                  string     `json:"id"`
	Names               string     `json:"names"`
	Surnames            string     `json:"surnames"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Program             string     `json:"program"`
	UserType            string     `json:"userType"`
	IsPremium           bool       `json:"isPremium"`
	Coins               int        `json:"coins"`
	CompletedActivities int        `json:"completedActivities"`
	Groups              []Group    `json:"groups"`
	Contacts            []UserView `json:"contacts"`
	CreatedAt           time.Time  `json:"createdTimestamp"`
	UpdatedAt           time.Time  `json:"updatedTimestamp"`
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Course      string    `json:"course,omitempty"`
	CreatedAt   time.Time `json:"createdTimestamp"`
}

type Reward struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Coins       int       `json:"coins"`
	GrantedAt   time.Time `json:"grantedTimestamp"`
}

type Activity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdTimestamp"`
}

type Message struct {
	ID      string    `json:"id"`
	UserID  string    `json:"-"`
	GroupID string    `json:"groupId,omitempty"`
	Content string    `json:"content"`
	SentAt  time.Time `json:"sentTimestamp"`
}

// Identity is the authenticated caller, resolved once from the token subject.
type Identity struct {
	UserID string
	Email  string
}
