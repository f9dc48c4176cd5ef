package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/homework"
)

type homeworkRepository struct {
	db *DB
}

var _ homework.Repository = (*homeworkRepository)(nil)

func NewHomeworkRepository(db *DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

func (repo *homeworkRepository) CreateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.groups[hw.GroupID]; !ok {
		return homework.Homework{}, core.NewBadRequestError("referenced record does not exist")
	}
	hw.ID = uuid.New().String()
	repo.db.homework[hw.ID] = &hw
	return hw, nil
}

func (repo *homeworkRepository) QueryHomeworkByGroup(ctx context.Context, groupID string) ([]homework.Homework, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	hws := make([]homework.Homework, 0)
	for _, hw := range repo.db.homework {
		if hw.GroupID == groupID && !hw.IsDeleted() {
			hws = append(hws, *hw)
		}
	}
	sort.Slice(hws, func(i, j int) bool { return hws[i].DueAt.Before(hws[j].DueAt) })
	return hws, nil
}

func (repo *homeworkRepository) GetHomeworkByID(ctx context.Context, id string) (homework.Homework, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if hw, ok := repo.db.homework[id]; ok && !hw.IsDeleted() {
		return *hw, nil
	}
	return homework.Homework{}, homework.ErrNotFound
}

func (repo *homeworkRepository) UpdateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.homework[hw.ID]
	if !ok || orig.IsDeleted() {
		return homework.Homework{}, homework.ErrNotFound
	}
	if hw.Title != "" {
		orig.Title = hw.Title
	}
	if hw.Description != "" {
		orig.Description = hw.Description
	}
	if !hw.DueAt.IsZero() {
		orig.DueAt = hw.DueAt
	}
	orig.UpdatedAt = hw.UpdatedAt
	orig.RemindedAt = time.Time{} // deadline changed; reminder may fire again
	return *orig, nil
}

func (repo *homeworkRepository) DeleteHomeworkByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	now := time.Now().UTC()
	for _, id := range ids {
		if hw, ok := repo.db.homework[id]; ok && !hw.IsDeleted() {
			hw.DeletedAt = now
		}
	}
	return nil
}

func (repo *homeworkRepository) QueryDueBetween(ctx context.Context, from, to time.Time) ([]homework.Homework, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	hws := make([]homework.Homework, 0)
	for _, hw := range repo.db.homework {
		if hw.IsDeleted() || !hw.RemindedAt.IsZero() {
			continue
		}
		if !hw.DueAt.Before(from) && hw.DueAt.Before(to) {
			hws = append(hws, *hw)
		}
	}
	sort.Slice(hws, func(i, j int) bool { return hws[i].DueAt.Before(hws[j].DueAt) })
	return hws, nil
}

func (repo *homeworkRepository) MarkReminded(ctx context.Context, at time.Time, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		if hw, ok := repo.db.homework[id]; ok {
			hw.RemindedAt = at
		}
	}
	return nil
}
