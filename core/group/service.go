package group

import (
	"context"
	"time"

	"github.com/darasa-app/darasa/core"
)

var ErrNotFound = core.NewNotFoundError("group not found")

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		QueryAllGroups(ctx context.Context) ([]Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		UpdateGroup(ctx context.Context, grp Group) (Group, error)
		DeleteGroupsByID(ctx context.Context, ids ...string) error
		AddMembers(ctx context.Context, groupID string, userIDs ...string) error
		RemoveMembers(ctx context.Context, groupID string, userIDs ...string) error
		QueryMembers(ctx context.Context, groupID string) ([]Member, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return Service{repo: repo}
}

func (svc Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	grp := Group{
		Name:         ng.Name,
		AcademicYear: ng.AcademicYear,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return svc.repo.CreateGroup(ctx, grp)
}

func (svc Service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryAllGroups(ctx)
}

func (svc Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc Service) Update(ctx context.Context, id string, ug UpdateGroup) (Group, error) {
	grp := Group{
		ID:           id,
		Name:         ug.Name,
		AcademicYear: ug.AcademicYear,
		UpdatedAt:    time.Now().UTC(),
	}
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteGroupsByID(ctx, ids...)
}

func (svc Service) AddMembers(ctx context.Context, groupID string, userIDs ...string) error {
	return svc.repo.AddMembers(ctx, groupID, userIDs...)
}

func (svc Service) RemoveMembers(ctx context.Context, groupID string, userIDs ...string) error {
	return svc.repo.RemoveMembers(ctx, groupID, userIDs...)
}

func (svc Service) Members(ctx context.Context, groupID string) ([]Member, error) {
	return svc.repo.QueryMembers(ctx, groupID)
}
