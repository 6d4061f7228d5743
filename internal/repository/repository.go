package repository

import (
	"context"
	"errors"

	"github.com/ggonzalesd/UniTable/shared/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// TxMode selects how Store.InTx opens its transaction.
type TxMode int

const (
	// ReadWrite runs at read-committed isolation.
	ReadWrite TxMode = iota
	// ReadOnly takes no write locks.
	ReadOnly
)

// Store runs fn inside one transaction. Every repository handed to fn shares
// that transaction; a non-nil error from fn rolls all of it back.
type Store interface {
	InTx(ctx context.Context, mode TxMode, fn func(Repositories) error) error
}

// Repositories gives access to every repository bound to one transaction.
type Repositories interface {
	Users() UserRepository
	Groups() GroupRepository
	Rewards() RewardRepository
	Activities() ActivityRepository
	Messages() MessageRepository
}

// UserRepository persists users and the directed follow relation between
// them (follower -> followed).
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	FindByName(ctx context.Context, names, surnames string) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id string) error

	ListContacts(ctx context.Context, userID string) ([]models.User, error)
	AddContact(ctx context.Context, followerID, followedID string) error
	RemoveContact(ctx context.Context, followerID, followedID string) error
	// DeleteContacts removes every follow edge touching userID, in both
	// directions.
	DeleteContacts(ctx context.Context, userID string) error
}

// GroupRepository persists groups and the membership relation. One
// membership row is both the user's group entry and the group's user entry.
type GroupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	ListByUser(ctx context.Context, userID string) ([]models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.User, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	// AddMember is a no-op when the membership already exists.
	AddMember(ctx context.Context, groupID, userID string) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	DeleteMemberships(ctx context.Context, userID string) error
}

type RewardRepository interface {
	Create(ctx context.Context, reward *models.Reward) error
	ListByUser(ctx context.Context, userID string) ([]models.Reward, error)
	Delete(ctx context.Context, id string) error
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListByUser(ctx context.Context, userID string) ([]models.Activity, error)
	Delete(ctx context.Context, id string) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByUser(ctx context.Context, userID string) ([]models.Message, error)
	Delete(ctx context.Context, id string) error
}
