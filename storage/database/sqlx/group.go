package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/darasa-app/darasa/core/group"
	"github.com/darasa-app/darasa/storage/database"
)

type dbGroup struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	AcademicYear string    `db:"academic_year"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (dg dbGroup) toCore() group.Group {
	return group.Group{
		ID:           dg.ID,
		Name:         dg.Name,
		AcademicYear: dg.AcademicYear,
		CreatedAt:    dg.CreatedAt,
		UpdatedAt:    dg.UpdatedAt,
	}
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	grp.ID = uuid.New().String()
	query := `
		INSERT INTO "group" (id, name, academic_year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, query, grp.ID, grp.Name, grp.AcademicYear, grp.CreatedAt.UTC(), grp.UpdatedAt.UTC())
	if err != nil {
		return group.Group{}, database.TranslateError(err, "inserting group")
	}
	return grp, nil
}

func (repo groupRepository) QueryAllGroups(ctx context.Context) ([]group.Group, error) {
	var rows []dbGroup
	query := `SELECT * FROM "group" ORDER BY academic_year DESC, name`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, database.TranslateError(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, dg := range rows {
		groups = append(groups, dg.toCore())
	}
	return groups, nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	var dg dbGroup
	query := `SELECT * FROM "group" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &dg, query, id); err != nil {
		if err == sql.ErrNoRows {
			return group.Group{}, group.ErrNotFound
		}
		return group.Group{}, database.TranslateError(err, "getting group by ID")
	}
	return dg.toCore(), nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	query := `UPDATE "group" SET name = $2, academic_year = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, grp.ID, grp.Name, grp.AcademicYear, grp.UpdatedAt.UTC())
	if err != nil {
		return group.Group{}, database.TranslateError(err, "updating group")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return repo.GetGroupByID(ctx, grp.ID)
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM "group" WHERE id IN (?)`, ids)
	if err != nil {
		return database.TranslateError(err, "deleting groups")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return database.TranslateError(err, "deleting groups")
	}
	return nil
}

func (repo groupRepository) AddMembers(ctx context.Context, groupID string, userIDs ...string) error {
	query := `
		INSERT INTO group_member (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING`
	for _, userID := range userIDs {
		if _, err := repo.db.ExecContext(ctx, query, groupID, userID); err != nil {
			return database.TranslateError(err, "adding group member")
		}
	}
	return nil
}

func (repo groupRepository) RemoveMembers(ctx context.Context, groupID string, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM group_member WHERE group_id = ? AND user_id IN (?)`, groupID, userIDs)
	if err != nil {
		return database.TranslateError(err, "removing group members")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return database.TranslateError(err, "removing group members")
	}
	return nil
}

func (repo groupRepository) QueryMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	var rows []struct {
		UserID   string `db:"user_id"`
		Name     string `db:"name"`
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	query := `
		SELECT u.id AS user_id, COALESCE(u.name, '') AS name, COALESCE(u.username, '') AS username, COALESCE(u.email, '') AS email
		FROM group_member gm
		JOIN "user" u ON u.id = gm.user_id
		WHERE gm.group_id = $1 AND u.deleted_at IS NULL
		ORDER BY u.name`
	if err := repo.db.SelectContext(ctx, &rows, query, groupID); err != nil {
		return nil, database.TranslateError(err, "querying group members")
	}
	members := make([]group.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, group.Member{UserID: r.UserID, Name: r.Name, Username: r.Username, Email: r.Email})
	}
	return members, nil
}
