// Package memory is an in-process repository.Store used by service tests and
// local runs without a database. Each transaction holds the store lock and
// restores a snapshot when its callback fails.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ggonzalesd/UniTable/internal/repository"
	"github.com/ggonzalesd/UniTable/shared/models"
)

// ErrReferenced mirrors a foreign key violation: a user cannot be removed
// while anything still points at it.
var ErrReferenced = errors.New("record is still referenced")

type edge struct{ from, to string }

type state struct {
	users      map[string]models.User
	userOrder  []string
	contacts   []edge // follower -> followed
	groups     map[string]models.Group
	groupOrder []string
	members    []edge // group -> user
	rewards    []models.Reward
	activities []models.Activity
	messages   []models.Message
}

func (s *state) clone() *state {
	users := make(map[string]models.User, len(s.users))
	for k, v := range s.users {
		users[k] = v
	}
	groups := make(map[string]models.Group, len(s.groups))
	for k, v := range s.groups {
		groups[k] = v
	}
	return &state{
		users:      users,
		userOrder:  slices.Clone(s.userOrder),
		contacts:   slices.Clone(s.contacts),
		groups:     groups,
		groupOrder: slices.Clone(s.groupOrder),
		members:    slices.Clone(s.members),
		rewards:    slices.Clone(s.rewards),
		activities: slices.Clone(s.activities),
		messages:   slices.Clone(s.messages),
	}
}

type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: &state{
		users:  make(map[string]models.User),
		groups: make(map[string]models.Group),
	}}
}

func (s *Store) InTx(ctx context.Context, _ repository.TxMode, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	committed := false
	defer func() {
		if !committed {
			s.st = snapshot
		}
	}()

	if err := fn(repos{st: s.st}); err != nil {
		return err
	}
	committed = true
	return nil
}

type repos struct{ st *state }

func (r repos) Users() repository.UserRepository          { return users{r.st} }
func (r repos) Groups() repository.GroupRepository        { return groups{r.st} }
func (r repos) Rewards() repository.RewardRepository      { return rewards{r.st} }
func (r repos) Activities() repository.ActivityRepository { return activities{r.st} }
func (r repos) Messages() repository.MessageRepository    { return messages{r.st} }

type users struct{ st *state }

func (u users) emailTaken(email, exceptID string) bool {
	for id, existing := range u.st.users {
		if id != exceptID && existing.Email == email {
			return true
		}
	}
	return false
}

func (u users) Create(_ context.Context, user *models.User) error {
	if _, ok := u.st.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	if u.emailTaken(user.Email, "") {
		return repository.ErrDuplicateEmail
	}
	stored := *user
	stored.Groups, stored.Contacts = nil, nil
	u.st.users[user.ID] = stored
	u.st.userOrder = append(u.st.userOrder, user.ID)
	return nil
}

func (u users) Update(_ context.Context, user *models.User) error {
	existing, ok := u.st.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if u.emailTaken(user.Email, user.ID) {
		return repository.ErrDuplicateEmail
	}
	stored := *user
	stored.Groups, stored.Contacts = nil, nil
	stored.CreatedAt = existing.CreatedAt
	u.st.users[user.ID] = stored
	return nil
}

func (u users) GetByID(_ context.Context, id string) (*models.User, error) {
	user, ok := u.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (u users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, id := range u.st.userOrder {
		if user := u.st.users[id]; user.Email == email {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u users) FindByName(_ context.Context, names, surnames string) ([]models.User, error) {
	out := []models.User{}
	for _, id := range u.st.userOrder {
		if user := u.st.users[id]; user.Names == names && user.Surnames == surnames {
			out = append(out, user)
		}
	}
	return out, nil
}

func (u users) List(_ context.Context) ([]models.User, error) {
	out := make([]models.User, 0, len(u.st.userOrder))
	for _, id := range u.st.userOrder {
		out = append(out, u.st.users[id])
	}
	return out, nil
}

func (u users) Delete(_ context.Context, id string) error {
	if _, ok := u.st.users[id]; !ok {
		return repository.ErrNotFound
	}
	if u.st.referenced(id) {
		return fmt.Errorf("failed to delete user %s: %w", id, ErrReferenced)
	}
	delete(u.st.users, id)
	u.st.userOrder = slices.DeleteFunc(u.st.userOrder, func(v string) bool { return v == id })
	return nil
}

func (u users) ListContacts(_ context.Context, userID string) ([]models.User, error) {
	out := []models.User{}
	for _, e := range u.st.contacts {
		if e.from == userID {
			out = append(out, u.st.users[e.to])
		}
	}
	return out, nil
}

func (u users) AddContact(_ context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return fmt.Errorf("failed to add contact: self reference")
	}
	for _, id := range []string{followerID, followedID} {
		if _, ok := u.st.users[id]; !ok {
			return fmt.Errorf("failed to add contact: unknown user %s", id)
		}
	}
	e := edge{followerID, followedID}
	if !slices.Contains(u.st.contacts, e) {
		u.st.contacts = append(u.st.contacts, e)
	}
	return nil
}

func (u users) RemoveContact(_ context.Context, followerID, followedID string) error {
	e := edge{followerID, followedID}
	u.st.contacts = slices.DeleteFunc(u.st.contacts, func(v edge) bool { return v == e })
	return nil
}

func (u users) DeleteContacts(_ context.Context, userID string) error {
	u.st.contacts = slices.DeleteFunc(u.st.contacts, func(v edge) bool {
		return v.from == userID || v.to == userID
	})
	return nil
}

func (s *state) referenced(userID string) bool {
	for _, e := range s.contacts {
		if e.from == userID || e.to == userID {
			return true
		}
	}
	for _, e := range s.members {
		if e.to == userID {
			return true
		}
	}
	return slices.ContainsFunc(s.rewards, func(v models.Reward) bool { return v.UserID == userID }) ||
		slices.ContainsFunc(s.activities, func(v models.Activity) bool { return v.UserID == userID }) ||
		slices.ContainsFunc(s.messages, func(v models.Message) bool { return v.UserID == userID })
}

type groups struct{ st *state }

func (g groups) Create(_ context.Context, group *models.Group) error {
	if _, ok := g.st.groups[group.ID]; ok {
		return fmt.Errorf("group %s already exists", group.ID)
	}
	g.st.groups[group.ID] = *group
	g.st.groupOrder = append(g.st.groupOrder, group.ID)
	return nil
}

func (g groups) GetByID(_ context.Context, id string) (*models.Group, error) {
	group, ok := g.st.groups[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &group, nil
}

func (g groups) List(_ context.Context) ([]models.Group, error) {
	out := make([]models.Group, 0, len(g.st.groupOrder))
	for _, id := range g.st.groupOrder {
		out = append(out, g.st.groups[id])
	}
	return out, nil
}

func (g groups) ListByUser(_ context.Context, userID string) ([]models.Group, error) {
	out := []models.Group{}
	for _, e := range g.st.members {
		if e.to == userID {
			out = append(out, g.st.groups[e.from])
		}
	}
	return out, nil
}

func (g groups) ListMembers(_ context.Context, groupID string) ([]models.User, error) {
	out := []models.User{}
	for _, e := range g.st.members {
		if e.from == groupID {
			out = append(out, g.st.users[e.to])
		}
	}
	return out, nil
}

func (g groups) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return slices.Contains(g.st.members, edge{groupID, userID}), nil
}

func (g groups) AddMember(_ context.Context, groupID, userID string) error {
	if _, ok := g.st.groups[groupID]; !ok {
		return fmt.Errorf("failed to add group member: unknown group %s", groupID)
	}
	if _, ok := g.st.users[userID]; !ok {
		return fmt.Errorf("failed to add group member: unknown user %s", userID)
	}
	e := edge{groupID, userID}
	if !slices.Contains(g.st.members, e) {
		g.st.members = append(g.st.members, e)
	}
	return nil
}

func (g groups) RemoveMember(_ context.Context, groupID, userID string) error {
	e := edge{groupID, userID}
	g.st.members = slices.DeleteFunc(g.st.members, func(v edge) bool { return v == e })
	return nil
}

func (g groups) DeleteMemberships(_ context.Context, userID string) error {
	g.st.members = slices.DeleteFunc(g.st.members, func(v edge) bool { return v.to == userID })
	return nil
}

type rewards struct{ st *state }

func (r rewards) Create(_ context.Context, reward *models.Reward) error {
	r.st.rewards = append(r.st.rewards, *reward)
	return nil
}

func (r rewards) ListByUser(_ context.Context, userID string) ([]models.Reward, error) {
	out := []models.Reward{}
	for _, v := range r.st.rewards {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r rewards) Delete(_ context.Context, id string) error {
	n := len(r.st.rewards)
	r.st.rewards = slices.DeleteFunc(r.st.rewards, func(v models.Reward) bool { return v.ID == id })
	if len(r.st.rewards) == n {
		return repository.ErrNotFound
	}
	return nil
}

type activities struct{ st *state }

func (a activities) Create(_ context.Context, activity *models.Activity) error {
	a.st.activities = append(a.st.activities, *activity)
	return nil
}

func (a activities) ListByUser(_ context.Context, userID string) ([]models.Activity, error) {
	out := []models.Activity{}
	for _, v := range a.st.activities {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (a activities) Delete(_ context.Context, id string) error {
	n := len(a.st.activities)
	a.st.activities = slices.DeleteFunc(a.st.activities, func(v models.Activity) bool { return v.ID == id })
	if len(a.st.activities) == n {
		return repository.ErrNotFound
	}
	return nil
}

type messages struct{ st *state }

func (m messages) Create(_ context.Context, message *models.Message) error {
	m.st.messages = append(m.st.messages, *message)
	return nil
}

func (m messages) ListByUser(_ context.Context, userID string) ([]models.Message, error) {
	out := []models.Message{}
	for _, v := range m.st.messages {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m messages) Delete(_ context.Context, id string) error {
	n := len(m.st.messages)
	m.st.messages = slices.DeleteFunc(m.st.messages, func(v models.Message) bool { return v.ID == id })
	if len(m.st.messages) == n {
		return repository.ErrNotFound
	}
	return nil
}
