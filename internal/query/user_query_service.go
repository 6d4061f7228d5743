package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/ggonzalesd/UniTable/internal/repository"
	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/cqrs"
	"github.com/ggonzalesd/UniTable/shared/metrics"
	"github.com/ggonzalesd/UniTable/shared/models"
	"github.com/ggonzalesd/UniTable/shared/validation"
	"go.uber.org/zap"
)

// UserQueryService serves every read. Reads run in read-only transactions so a
// detail view is consistent with its groups and contacts.
type UserQueryService struct {
	store repository.Store
	log   *zap.Logger
}

func NewUserQueryService(store repository.Store, log *zap.Logger) *UserQueryService {
	return &UserQueryService{store: store, log: log}
}

// GetUser returns the user with its groups and contacts.
func (s *UserQueryService) GetUser(ctx context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	var user *models.User
	err := s.read(ctx, func(r repository.Repositories) error {
		var err error
		user, err = getUser(ctx, r, q.UserID)
		if err != nil {
			return err
		}
		if user.Groups, err = r.Groups().ListByUser(ctx, user.ID); err != nil {
			return err
		}
		contacts, err := r.Users().ListContacts(ctx, user.ID)
		if err != nil {
			return err
		}
		user.Contacts = models.Views(contacts)
		return nil
	})
	if err != nil {
		return nil, s.finish("get_user", err)
	}
	return user, s.finish("get_user", nil)
}

// ResolveIdentity maps a token subject to the user it belongs to.
func (s *UserQueryService) ResolveIdentity(ctx context.Context, email string) (*models.Identity, error) {
	var identity *models.Identity
	err := s.read(ctx, func(r repository.Repositories) error {
		user, err := r.Users().GetByEmail(ctx, validation.NormalizeEmail(email))
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(fmt.Sprintf("user not found with email %s", email))
		}
		if err != nil {
			return err
		}
		identity = &models.Identity{UserID: user.ID, Email: user.Email}
		return nil
	})
	if err != nil {
		return nil, s.finish("resolve_identity", err)
	}
	return identity, s.finish("resolve_identity", nil)
}

// FindByName matches names and surnames exactly. An empty result is reported
// as not found.
func (s *UserQueryService) FindByName(ctx context.Context, q cqrs.FindByNameQuery) ([]models.UserView, error) {
	names, surnames := validation.Clean(q.Names), validation.Clean(q.Surnames)
	if names == "" || surnames == "" {
		return nil, s.finish("find_by_name", apperrors.Validation("names and surnames are required"))
	}

	var users []models.User
	err := s.read(ctx, func(r repository.Repositories) error {
		var err error
		users, err = r.Users().FindByName(ctx, names, surnames)
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return apperrors.NotFound(fmt.Sprintf("no user named %s %s", names, surnames))
		}
		return nil
	})
	if err != nil {
		return nil, s.finish("find_by_name", err)
	}
	return models.Views(users), s.finish("find_by_name", nil)
}

func (s *UserQueryService) ListUsers(ctx context.Context) ([]models.UserView, error) {
	var users []models.User
	err := s.read(ctx, func(r repository.Repositories) error {
		var err error
		users, err = r.Users().List(ctx)
		return err
	})
	if err != nil {
		return nil, s.finish("list_users", err)
	}
	return models.Views(users), s.finish("list_users", nil)
}

// ListFollowCandidates lists every other user and whether the requester
// already follows them. Users are told apart by email.
func (s *UserQueryService) ListFollowCandidates(ctx context.Context, q cqrs.ListFollowCandidatesQuery) ([]models.FollowCandidate, error) {
	candidates := []models.FollowCandidate{}
	err := s.read(ctx, func(r repository.Repositories) error {
		requester, err := getUser(ctx, r, q.RequestingUserID)
		if err != nil {
			return err
		}
		contacts, err := r.Users().ListContacts(ctx, requester.ID)
		if err != nil {
			return err
		}
		following := make(map[string]bool, len(contacts))
		for _, c := range contacts {
			following[c.Email] = true
		}

		users, err := r.Users().List(ctx)
		if err != nil {
			return err
		}
		for i := range users {
			if users[i].Email == requester.Email {
				continue
			}
			candidates = append(candidates, models.FollowCandidate{
				UserView:  users[i].View(),
				Following: following[users[i].Email],
			})
		}
		return nil
	})
	if err != nil {
		return nil, s.finish("list_follow_candidates", err)
	}
	return candidates, s.finish("list_follow_candidates", nil)
}

func (s *UserQueryService) ListContacts(ctx context.Context, q cqrs.ListContactsQuery) ([]models.UserView, error) {
	var contacts []models.User
	err := s.read(ctx, func(r repository.Repositories) error {
		if _, err := getUser(ctx, r, q.UserID); err != nil {
			return err
		}
		var err error
		contacts, err = r.Users().ListContacts(ctx, q.UserID)
		return err
	})
	if err != nil {
		return nil, s.finish("list_contacts", err)
	}
	return models.Views(contacts), s.finish("list_contacts", nil)
}

func (s *UserQueryService) ListRewards(ctx context.Context, q cqrs.ListRewardsQuery) ([]models.Reward, error) {
	var rewards []models.Reward
	err := s.read(ctx, func(r repository.Repositories) error {
		if _, err := getUser(ctx, r, q.UserID); err != nil {
			return err
		}
		var err error
		rewards, err = r.Rewards().ListByUser(ctx, q.UserID)
		return err
	})
	if err != nil {
		return nil, s.finish("list_rewards", err)
	}
	return rewards, s.finish("list_rewards", nil)
}

func (s *UserQueryService) ListActivities(ctx context.Context, q cqrs.ListActivitiesQuery) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.read(ctx, func(r repository.Repositories) error {
		if _, err := getUser(ctx, r, q.UserID); err != nil {
			return err
		}
		var err error
		activities, err = r.Activities().ListByUser(ctx, q.UserID)
		return err
	})
	if err != nil {
		return nil, s.finish("list_activities", err)
	}
	return activities, s.finish("list_activities", nil)
}

func (s *UserQueryService) ListGroups(ctx context.Context) ([]models.Group, error) {
	var groups []models.Group
	err := s.read(ctx, func(r repository.Repositories) error {
		var err error
		groups, err = r.Groups().List(ctx)
		return err
	})
	if err != nil {
		return nil, s.finish("list_groups", err)
	}
	return groups, s.finish("list_groups", nil)
}

func (s *UserQueryService) ListUserGroups(ctx context.Context, q cqrs.ListUserGroupsQuery) ([]models.Group, error) {
	var groups []models.Group
	err := s.read(ctx, func(r repository.Repositories) error {
		if _, err := getUser(ctx, r, q.UserID); err != nil {
			return err
		}
		var err error
		groups, err = r.Groups().ListByUser(ctx, q.UserID)
		return err
	})
	if err != nil {
		return nil, s.finish("list_user_groups", err)
	}
	return groups, s.finish("list_user_groups", nil)
}

func (s *UserQueryService) ListGroupMembers(ctx context.Context, q cqrs.ListGroupMembersQuery) ([]models.UserView, error) {
	var members []models.User
	err := s.read(ctx, func(r repository.Repositories) error {
		if _, err := r.Groups().GetByID(ctx, q.GroupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFoundByID("group", q.GroupID)
			}
			return err
		}
		var err error
		members, err = r.Groups().ListMembers(ctx, q.GroupID)
		return err
	})
	if err != nil {
		return nil, s.finish("list_group_members", err)
	}
	return models.Views(members), s.finish("list_group_members", nil)
}

func (s *UserQueryService) read(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.store.InTx(ctx, repository.ReadOnly, fn)
}

func (s *UserQueryService) finish(op string, err error) error {
	return observe(s.log, op, err)
}

func getUser(ctx context.Context, r repository.Repositories, id string) (*models.User, error) {
	user, err := r.Users().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFoundByID("user", id)
	}
	return user, err
}

// observe classifies err, records the outcome of op and logs unexpected
// failures with their cause.
func observe(log *zap.Logger, op string, err error) error {
	if err == nil {
		metrics.UserOperations.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
		return nil
	}
	err = apperrors.Wrap(err)
	kind := apperrors.KindOf(err)
	metrics.UserOperations.WithLabelValues(op, kind.String()).Inc()
	if kind == apperrors.KindGeneral {
		log.Error("user query failed", zap.String("operation", op), zap.Error(errors.Unwrap(err)))
	}
	return err
}
