package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ggonzalesd/UniTable/internal/repository"
	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/cqrs"
	"github.com/ggonzalesd/UniTable/shared/metrics"
	"github.com/ggonzalesd/UniTable/shared/models"
	"github.com/ggonzalesd/UniTable/shared/utils"
	"github.com/ggonzalesd/UniTable/shared/validation"
	"go.uber.org/zap"
)

// premiumBonus is granted every time an account switches to premium.
const premiumBonus = 5

// UserCommandService runs every mutating user operation. Each call is one
// read-write transaction; any failure leaves the store untouched.
type UserCommandService struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewUserCommandService(store repository.Store, log *zap.Logger) *UserCommandService {
	return &UserCommandService{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserCommandService) Register(ctx context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	details := cmd.UserDetails
	if err := validation.ValidateUser(&details); err != nil {
		return nil, s.finish("register", err)
	}

	passwordHash, err := utils.HashPassword(details.Password)
	if err != nil {
		return nil, s.finish("register", fmt.Errorf("failed to hash password: %w", err))
	}

	now := s.now()
	user := &models.User{
		ID:           utils.GenerateID(utils.UserIDPrefix),
		Names:        details.Names,
		Surnames:     details.Surnames,
		Email:        details.Email,
		PasswordHash: passwordHash,
		Program:      details.Program,
		UserType:     details.UserType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		if _, err := r.Users().GetByEmail(ctx, user.Email); err == nil {
			return emailTaken()
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return mapDuplicate(r.Users().Create(ctx, user))
	})
	if err != nil {
		return nil, s.finish("register", err)
	}

	user.Groups = []models.Group{}
	user.Contacts = []models.UserView{}
	s.log.Info("user registered", zap.String("user_id", user.ID))
	return user, s.finish("register", nil)
}

// JoinGroup adds the user to the group and returns the user's groups. Joining
// a group twice leaves a single membership.
func (s *UserCommandService) JoinGroup(ctx context.Context, cmd cqrs.JoinGroupCommand) ([]models.Group, error) {
	var groups []models.Group
	err := s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		if _, err := getUser(ctx, r, cmd.UserID); err != nil {
			return err
		}
		if _, err := r.Groups().GetByID(ctx, cmd.GroupID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.NotFoundByID("group", cmd.GroupID)
			}
			return err
		}
		member, err := r.Groups().IsMember(ctx, cmd.GroupID, cmd.UserID)
		if err != nil {
			return err
		}
		if !member {
			if err := r.Groups().AddMember(ctx, cmd.GroupID, cmd.UserID); err != nil {
				return err
			}
		}
		groups, err = r.Groups().ListByUser(ctx, cmd.UserID)
		return err
	})
	if err != nil {
		return nil, s.finish("join_group", err)
	}
	return groups, s.finish("join_group", nil)
}

// ToggleFollow follows the target if the user does not follow them yet and
// unfollows otherwise. It reports whether the user follows the target
// afterwards.
func (s *UserCommandService) ToggleFollow(ctx context.Context, cmd cqrs.ToggleFollowCommand) (bool, error) {
	if err := validation.ValidateFollow(cmd.UserID, cmd.TargetID); err != nil {
		return false, s.finish("toggle_follow", err)
	}

	var following bool
	err := s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		if _, err := getUser(ctx, r, cmd.UserID); err != nil {
			return err
		}
		target, err := getUser(ctx, r, cmd.TargetID)
		if err != nil {
			return err
		}

		contacts, err := r.Users().ListContacts(ctx, cmd.UserID)
		if err != nil {
			return err
		}
		for _, c := range contacts {
			if c.Email == target.Email {
				following = false
				return r.Users().RemoveContact(ctx, cmd.UserID, c.ID)
			}
		}
		following = true
		return r.Users().AddContact(ctx, cmd.UserID, target.ID)
	})
	if err != nil {
		return false, s.finish("toggle_follow", err)
	}
	return following, s.finish("toggle_follow", nil)
}

// TogglePremium flips the premium flag and returns the new value. Turning
// premium on grants premiumBonus coins; turning it off keeps the coins.
func (s *UserCommandService) TogglePremium(ctx context.Context, cmd cqrs.TogglePremiumCommand) (bool, error) {
	var premium bool
	err := s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		user, err := getUser(ctx, r, cmd.UserID)
		if err != nil {
			return err
		}
		if !user.IsPremium {
			user.Coins += premiumBonus
		}
		user.IsPremium = !user.IsPremium
		user.UpdatedAt = s.now()
		premium = user.IsPremium
		return r.Users().Update(ctx, user)
	})
	if err != nil {
		return false, s.finish("toggle_premium", err)
	}
	return premium, s.finish("toggle_premium", nil)
}

// UpdateProfile overwrites names, surnames, email and user type, and always
// rehashes the password. The academic program is kept.
func (s *UserCommandService) UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.User, error) {
	details := cmd.UserDetails
	if err := validation.ValidateUser(&details); err != nil {
		return nil, s.finish("update_profile", err)
	}

	passwordHash, err := utils.HashPassword(details.Password)
	if err != nil {
		return nil, s.finish("update_profile", fmt.Errorf("failed to hash password: %w", err))
	}

	var user *models.User
	err = s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		var err error
		user, err = getUser(ctx, r, cmd.UserID)
		if err != nil {
			return err
		}

		owner, err := r.Users().GetByEmail(ctx, details.Email)
		switch {
		case err == nil && owner.ID != user.ID:
			return emailTaken()
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return err
		}

		user.Names = details.Names
		user.Surnames = details.Surnames
		user.Email = details.Email
		user.UserType = details.UserType
		user.PasswordHash = passwordHash
		user.UpdatedAt = s.now()
		return mapDuplicate(r.Users().Update(ctx, user))
	})
	if err != nil {
		return nil, s.finish("update_profile", err)
	}
	return user, s.finish("update_profile", nil)
}

// DeleteUser severs every relationship of the user, deletes the records it
// owns and finally the user itself, all in one transaction.
func (s *UserCommandService) DeleteUser(ctx context.Context, cmd cqrs.DeleteUserCommand) error {
	err := s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		user, err := getUser(ctx, r, cmd.UserID)
		if err != nil {
			return err
		}

		groups, err := r.Groups().ListByUser(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if err := r.Groups().RemoveMember(ctx, g.ID, user.ID); err != nil {
				return err
			}
		}

		contacts, err := r.Users().ListContacts(ctx, user.ID)
		if err != nil {
			return err
		}
		for _, c := range contacts {
			if err := r.Users().RemoveContact(ctx, c.ID, user.ID); err != nil {
				return err
			}
		}

		if err := deleteOwned(ctx, r, user.ID); err != nil {
			return err
		}

		if err := r.Users().DeleteContacts(ctx, user.ID); err != nil {
			return err
		}
		if err := r.Groups().DeleteMemberships(ctx, user.ID); err != nil {
			return err
		}
		return r.Users().Delete(ctx, user.ID)
	})
	if err != nil {
		return s.finish("delete_user", err)
	}
	s.log.Info("user deleted", zap.String("user_id", cmd.UserID))
	return s.finish("delete_user", nil)
}

func (s *UserCommandService) CreateGroup(ctx context.Context, cmd cqrs.CreateGroupCommand) (*models.Group, error) {
	if err := validation.ValidateGroup(&cmd); err != nil {
		return nil, s.finish("create_group", err)
	}

	group := &models.Group{
		ID:          utils.GenerateID(utils.GroupIDPrefix),
		Name:        cmd.Name,
		Description: cmd.Description,
		Course:      cmd.Course,
		CreatedAt:   s.now(),
	}
	err := s.store.InTx(ctx, repository.ReadWrite, func(r repository.Repositories) error {
		return r.Groups().Create(ctx, group)
	})
	if err != nil {
		return nil, s.finish("create_group", err)
	}
	return group, s.finish("create_group", nil)
}

func deleteOwned(ctx context.Context, r repository.Repositories, userID string) error {
	activities, err := r.Activities().ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, a := range activities {
		if err := r.Activities().Delete(ctx, a.ID); err != nil {
			return err
		}
	}

	messages, err := r.Messages().ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, m := range messages {
		if err := r.Messages().Delete(ctx, m.ID); err != nil {
			return err
		}
	}

	rewards, err := r.Rewards().ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, rw := range rewards {
		if err := r.Rewards().Delete(ctx, rw.ID); err != nil {
			return err
		}
	}
	return nil
}

func getUser(ctx context.Context, r repository.Repositories, id string) (*models.User, error) {
	user, err := r.Users().GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFoundByID("user", id)
	}
	return user, err
}

func emailTaken() error {
	return apperrors.Conflict("email is already registered")
}

// mapDuplicate turns the store's unique violation into the same conflict the
// explicit check returns, covering concurrent registrations.
func mapDuplicate(err error) error {
	if errors.Is(err, repository.ErrDuplicateEmail) {
		return emailTaken()
	}
	return err
}

// finish classifies err, records the operation outcome and logs unexpected
// failures.
func (s *UserCommandService) finish(op string, err error) error {
	if err == nil {
		metrics.UserOperations.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
		return nil
	}
	err = apperrors.Wrap(err)
	kind := apperrors.KindOf(err)
	metrics.UserOperations.WithLabelValues(op, kind.String()).Inc()
	if kind == apperrors.KindGeneral {
		s.log.Error("user command failed", zap.String("operation", op), zap.Error(errors.Unwrap(err)))
	}
	return err
}
