package roles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/internal/users"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"gorm.io/gorm"
)

type membershipRepo interface {
	ListRolesForUser(ctx context.Context, userID uuid.UUID) ([]enums.Role, error)
	ListMembers(ctx context.Context, role enums.Role) ([]models.User, error)
	HasRole(ctx context.Context, userID uuid.UUID, role enums.Role) (bool, error)
	Add(ctx context.Context, userID uuid.UUID, role enums.Role) error
	Remove(ctx context.Context, userID uuid.UUID, role enums.Role) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service resolves the effective role of each user and manages group
// membership. Resolution happens once per request, from the database, so
// revoking a role takes effect immediately.
type Service struct {
	memberships membershipRepo
	users       userFinder
}

// NewService wires the role resolver with its dependencies.
func NewService(memberships membershipRepo, userRepo userFinder) (*Service, error) {
	if memberships == nil {
		return nil, fmt.Errorf("membership repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	return &Service{memberships: memberships, users: userRepo}, nil
}

// Resolve returns the user's effective role. A user holding several
// memberships resolves to the most privileged one: Manager wins over
// Delivery crew, and anyone without a membership is a Customer.
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID) (enums.Role, error) {
	if userID == uuid.Nil {
		return enums.RoleCustomer, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	held, err := s.memberships.ListRolesForUser(ctx, userID)
	if err != nil {
		return enums.RoleCustomer, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list memberships")
	}
	resolved := enums.RoleCustomer
	for _, role := range held {
		switch role {
		case enums.RoleManager:
			return enums.RoleManager, nil
		case enums.RoleDeliveryCrew:
			resolved = enums.RoleDeliveryCrew
		}
	}
	return resolved, nil
}

// HasRole reports whether the user holds the provided membership role.
func (s *Service) HasRole(ctx context.Context, userID uuid.UUID, role enums.Role) (bool, error) {
	if !role.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	ok, err := s.memberships.HasRole(ctx, userID, role)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check membership")
	}
	return ok, nil
}

// ListMembers returns the profiles of every user in the group.
func (s *Service) ListMembers(ctx context.Context, role enums.Role) ([]users.Profile, error) {
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	members, err := s.memberships.ListMembers(ctx, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list group members")
	}
	profiles := make([]users.Profile, 0, len(members))
	for i := range members {
		profiles = append(profiles, users.ToProfile(&members[i]))
	}
	return profiles, nil
}

// AddMember grants the role to the user with the provided username. Adding
// a user who already holds the role is a no-op.
func (s *Service) AddMember(ctx context.Context, role enums.Role, username string) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	if err := s.memberships.Add(ctx, user.ID, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add membership")
	}
	return nil
}

// RemoveMember revokes the role from the user. Removing a user who is not
// in the group is a no-op, but the user itself must exist.
func (s *Service) RemoveMember(ctx context.Context, role enums.Role, userID uuid.UUID) error {
	if !role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid role %q", role))
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if err := s.memberships.Remove(ctx, userID, role); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove membership")
	}
	return nil
}
