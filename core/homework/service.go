package homework

import (
	"context"
	"time"

	"github.com/darasa-app/darasa/core"
)

var ErrNotFound = core.NewNotFoundError("homework not found")

type (
	Repository interface {
		CreateHomework(ctx context.Context, hw Homework) (Homework, error)
		QueryHomeworkByGroup(ctx context.Context, groupID string) ([]Homework, error)
		GetHomeworkByID(ctx context.Context, id string) (Homework, error)
		UpdateHomework(ctx context.Context, hw Homework) (Homework, error)
		// DeleteHomeworkByID soft-deletes.
		DeleteHomeworkByID(ctx context.Context, ids ...string) error
		// QueryDueBetween returns live assignments due within [from, to)
		// for which no deadline reminder has been sent yet.
		QueryDueBetween(ctx context.Context, from, to time.Time) ([]Homework, error)
		MarkReminded(ctx context.Context, at time.Time, ids ...string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return Service{repo: repo}
}

func (svc Service) Create(ctx context.Context, groupID string, nh NewHomework) (Homework, error) {
	now := time.Now().UTC()
	hw := Homework{
		GroupID:     groupID,
		Title:       nh.Title,
		Description: nh.Description,
		DueAt:       nh.DueAt.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateHomework(ctx, hw)
}

func (svc Service) QueryByGroup(ctx context.Context, groupID string) ([]Homework, error) {
	return svc.repo.QueryHomeworkByGroup(ctx, groupID)
}

func (svc Service) GetByID(ctx context.Context, id string) (Homework, error) {
	return svc.repo.GetHomeworkByID(ctx, id)
}

func (svc Service) Update(ctx context.Context, id string, uh UpdateHomework) (Homework, error) {
	hw := Homework{
		ID:          id,
		Title:       uh.Title,
		Description: uh.Description,
		DueAt:       uh.DueAt.UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateHomework(ctx, hw)
}

func (svc Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteHomeworkByID(ctx, ids...)
}

// DueSoon returns un-reminded assignments due within the given duration.
func (svc Service) DueSoon(ctx context.Context, within time.Duration) ([]Homework, error) {
	now := time.Now().UTC()
	return svc.repo.QueryDueBetween(ctx, now, now.Add(within))
}

func (svc Service) MarkReminded(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return svc.repo.MarkReminded(ctx, time.Now().UTC(), ids...)
}
