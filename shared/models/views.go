package models

import "time"

// UserView is the public projection of a user.
// It never exposes PasswordHash or relationship collections.
type UserView struct {
	ID                  string    `json:"id"`
	Names               string    `json:"names"`
	Surnames            string    `json:"surnames"`
	Email               string    `json:"email"`
	Program             string    `json:"program"`
	UserType            string    `json:"userType"`
	IsPremium           bool      `json:"isPremium"`
	Coins               int       `json:"coins"`
	CompletedActivities int       `json:"completedActivities"`
	CreatedAt           time.Time `json:"createdTimestamp"`
}

// FollowCandidate is a user the caller may follow, annotated with whether the
// caller already does.
type FollowCandidate struct {
	UserView
	Following bool `json:"following"`
}

// LoginResult is returned by a successful authentication.
type LoginResult struct {
	Token string   `json:"token"`
	User  UserView `json:"user"`
}

func (u *User) View() UserView {
	return UserView{
		ID:                  u.ID,
		Names:               u.Names,
		Surnames:            u.Surnames,
		Email:               u.Email,
		Program:             u.Program,
		UserType:            u.UserType,
		IsPremium:           u.IsPremium,
		Coins:               u.Coins,
		CompletedActivities: u.CompletedActivities,
		CreatedAt:           u.CreatedAt,
	}
}

// Views projects a slice of users, never returning nil.
func Views(users []User) []UserView {
	views := make([]UserView, 0, len(users))
	for i := range users {
		views = append(views, users[i].View())
	}
	return views
}
