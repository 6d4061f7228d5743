package cqrs

// UserDetails is the validated payload shared by registration and profile
// updates.
type UserDetails struct {
	Names    string `json:"names" validate:"required,max=100"`
	Surnames string `json:"surnames" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,bytesmax=72"`
	Program  string `json:"program" validate:"required,max=100"`
	UserType string `json:"userType" validate:"max=50"`
}

type RegisterUserCommand struct {
	UserDetails
}

// UpdateProfileCommand overwrites the profile of UserID. Program is not
// changed; the password is always rehashed.
type UpdateProfileCommand struct {
	UserID string
	UserDetails
}

type DeleteUserCommand struct {
	UserID string
}

type JoinGroupCommand struct {
	UserID  string
	GroupID string
}

type ToggleFollowCommand struct {
	UserID   string
	TargetID string
}

type TogglePremiumCommand struct {
	UserID string
}

type CreateGroupCommand struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Course      string `json:"course" validate:"max=100"`
}

type LoginCommand struct {
	Email    string
	Password string
}
