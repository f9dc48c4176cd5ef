package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil)

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, g := range repo.db.groups {
		if g.Name == grp.Name && g.AcademicYear == grp.AcademicYear {
			return group.Group{}, core.NewConflictError("already exists", "name", "academic_year")
		}
	}
	grp.ID = uuid.New().String()
	repo.db.groups[grp.ID] = &grp
	return grp, nil
}

func (repo *groupRepository) QueryAllGroups(ctx context.Context) ([]group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].AcademicYear != groups[j].AcademicYear {
			return groups[i].AcademicYear > groups[j].AcademicYear
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grp, ok := repo.db.groups[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.groups[grp.ID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}
	if grp.Name != "" {
		orig.Name = grp.Name
	}
	if grp.AcademicYear != "" {
		orig.AcademicYear = grp.AcademicYear
	}
	orig.UpdatedAt = grp.UpdatedAt
	return *orig, nil
}

func (repo *groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.groups, id)
		delete(repo.db.members, id)
	}
	return nil
}

func (repo *groupRepository) AddMembers(ctx context.Context, groupID string, userIDs ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.groups[groupID]; !ok {
		return core.NewBadRequestError("referenced record does not exist")
	}
	set, ok := repo.db.members[groupID]
	if !ok {
		set = make(map[string]bool)
		repo.db.members[groupID] = set
	}
	for _, userID := range userIDs {
		usr, ok := repo.db.users[userID]
		if !ok || usr.IsDeleted() {
			return core.NewBadRequestError("referenced record does not exist")
		}
		set[userID] = true
	}
	return nil
}

func (repo *groupRepository) RemoveMembers(ctx context.Context, groupID string, userIDs ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	set := repo.db.members[groupID]
	for _, userID := range userIDs {
		delete(set, userID)
	}
	return nil
}

func (repo *groupRepository) QueryMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	members := make([]group.Member, 0)
	for userID := range repo.db.members[groupID] {
		if usr, ok := repo.db.users[userID]; ok && !usr.IsDeleted() {
			members = append(members, group.Member{
				UserID:   usr.ID,
				Name:     usr.Name,
				Username: usr.Username,
				Email:    usr.Email,
			})
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Name < members[j].Name })
	return members, nil
}
