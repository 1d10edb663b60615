package roles

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/littlelemonhq/littlelemon-backend/pkg/db/models"
	"github.com/littlelemonhq/littlelemon-backend/pkg/enums"
	pkgerrors "github.com/littlelemonhq/littlelemon-backend/pkg/errors"
	"gorm.io/gorm"
)

type stubMembershipRepo struct {
	rolesByUser map[uuid.UUID][]enums.Role
	members     map[enums.Role][]models.User
	added       []enums.Role
	removed     []enums.Role
	addErr      error
}

func newStubMembershipRepo() *stubMembershipRepo {
	return &stubMembershipRepo{
		rolesByUser: make(map[uuid.UUID][]enums.Role),
		members:     make(map[enums.Role][]models.User),
	}
}

func (s *stubMembershipRepo) ListRolesForUser(_ context.Context, userID uuid.UUID) ([]enums.Role, error) {
	return s.rolesByUser[userID], nil
}

func (s *stubMembershipRepo) ListMembers(_ context.Context, role enums.Role) ([]models.User, error) {
	return s.members[role], nil
}

func (s *stubMembershipRepo) HasRole(_ context.Context, userID uuid.UUID, role enums.Role) (bool, error) {
	for _, held := range s.rolesByUser[userID] {
		if held == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubMembershipRepo) Add(_ context.Context, userID uuid.UUID, role enums.Role) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.added = append(s.added, role)
	s.rolesByUser[userID] = append(s.rolesByUser[userID], role)
	return nil
}

func (s *stubMembershipRepo) Remove(_ context.Context, userID uuid.UUID, role enums.Role) error {
	s.removed = append(s.removed, role)
	return nil
}

type stubUserFinder struct {
	byUsername map[string]*models.User
	byID       map[uuid.UUID]*models.User
}

func newStubUserFinder(users ...*models.User) *stubUserFinder {
	finder := &stubUserFinder{
		byUsername: make(map[string]*models.User),
		byID:       make(map[uuid.UUID]*models.User),
	}
	for _, user := range users {
		finder.byUsername[user.Username] = user
		finder.byID[user.ID] = user
	}
	return finder
}

func (s *stubUserFinder) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserFinder) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := s.byUsername[username]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestResolvePrecedence(t *testing.T) {
	repo := newStubMembershipRepo()
	svc, err := NewService(repo, newStubUserFinder())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	both := uuid.New()
	repo.rolesByUser[both] = []enums.Role{enums.RoleDeliveryCrew, enums.RoleManager}
	crewOnly := uuid.New()
	repo.rolesByUser[crewOnly] = []enums.Role{enums.RoleDeliveryCrew}
	nobody := uuid.New()

	role, err := svc.Resolve(ctx, both)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != enums.RoleManager {
		t.Fatalf("expected Manager to win, got %s", role)
	}

	role, err = svc.Resolve(ctx, crewOnly)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != enums.RoleDeliveryCrew {
		t.Fatalf("expected Delivery crew, got %s", role)
	}

	role, err = svc.Resolve(ctx, nobody)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if role != enums.RoleCustomer {
		t.Fatalf("expected Customer fallthrough, got %s", role)
	}
}

func TestResolveRequiresIdentity(t *testing.T) {
	svc, err := NewService(newStubMembershipRepo(), newStubUserFinder())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	_, err = svc.Resolve(context.Background(), uuid.Nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestAddMemberValidation(t *testing.T) {
	svc, err := NewService(newStubMembershipRepo(), newStubUserFinder())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	err = svc.AddMember(ctx, enums.RoleManager, "  ")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "username is required" {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	err = svc.AddMember(ctx, enums.Role("Customer"), "adrian")
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for non-membership role, got %v", err)
	}
}

func TestAddMemberUnknownUser(t *testing.T) {
	svc, err := NewService(newStubMembershipRepo(), newStubUserFinder())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	err = svc.AddMember(context.Background(), enums.RoleManager, "ghost")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestAddMemberIdempotentOnDuplicate(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "adrian"}
	repo := newStubMembershipRepo()
	repo.addErr = errors.New(`ERROR: duplicate key value violates unique constraint "idx_group_user_role"`)
	svc, err := NewService(repo, newStubUserFinder(user))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.AddMember(context.Background(), enums.RoleManager, "adrian"); err != nil {
		t.Fatalf("expected duplicate add to be a no-op, got %v", err)
	}
}

func TestRemoveMemberUnknownUser(t *testing.T) {
	svc, err := NewService(newStubMembershipRepo(), newStubUserFinder())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	err = svc.RemoveMember(context.Background(), enums.RoleDeliveryCrew, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestRemoveMemberIdempotent(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "crew"}
	repo := newStubMembershipRepo()
	svc, err := NewService(repo, newStubUserFinder(user))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.RemoveMember(context.Background(), enums.RoleDeliveryCrew, user.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	if len(repo.removed) != 1 {
		t.Fatalf("expected one removal call, got %d", len(repo.removed))
	}
}
