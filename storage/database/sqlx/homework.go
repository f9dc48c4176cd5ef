package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/darasa-app/darasa/core/homework"
	"github.com/darasa-app/darasa/storage/database"
)

type dbHomework struct {
	ID          string      `db:"id"`
	GroupID     string      `db:"group_id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	DueAt       time.Time   `db:"due_at"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	RemindedAt  null.Time   `db:"reminded_at"`
	DeletedAt   null.Time   `db:"deleted_at"`
}

func (dh dbHomework) toCore() homework.Homework {
	return homework.Homework{
		ID:          dh.ID,
		GroupID:     dh.GroupID,
		Title:       dh.Title,
		Description: dh.Description.String,
		DueAt:       dh.DueAt,
		CreatedAt:   dh.CreatedAt,
		UpdatedAt:   dh.UpdatedAt,
		RemindedAt:  dh.RemindedAt.Time,
		DeletedAt:   dh.DeletedAt.Time,
	}
}

type homeworkRepository struct {
	db *sqlx.DB
}

var _ homework.Repository = (*homeworkRepository)(nil) // interface compliance check

func NewHomeworkRepository(db *sqlx.DB) *homeworkRepository {
	return &homeworkRepository{db: db}
}

func (repo homeworkRepository) CreateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	hw.ID = uuid.New().String()
	query := `
		INSERT INTO homework (id, group_id, title, description, due_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	desc := null.NewString(hw.Description, hw.Description != "")
	_, err := repo.db.ExecContext(ctx, query, hw.ID, hw.GroupID, hw.Title, desc, hw.DueAt.UTC(), hw.CreatedAt.UTC(), hw.UpdatedAt.UTC())
	if err != nil {
		return homework.Homework{}, database.TranslateError(err, "inserting homework")
	}
	return hw, nil
}

func (repo homeworkRepository) QueryHomeworkByGroup(ctx context.Context, groupID string) ([]homework.Homework, error) {
	var rows []dbHomework
	query := `SELECT * FROM homework WHERE group_id = $1 AND deleted_at IS NULL ORDER BY due_at`
	if err := repo.db.SelectContext(ctx, &rows, query, groupID); err != nil {
		return nil, database.TranslateError(err, "querying homework")
	}
	return toCoreHomework(rows), nil
}

func (repo homeworkRepository) GetHomeworkByID(ctx context.Context, id string) (homework.Homework, error) {
	var dh dbHomework
	query := `SELECT * FROM homework WHERE id = $1 AND deleted_at IS NULL`
	if err := repo.db.GetContext(ctx, &dh, query, id); err != nil {
		if err == sql.ErrNoRows {
			return homework.Homework{}, homework.ErrNotFound
		}
		return homework.Homework{}, database.TranslateError(err, "getting homework by ID")
	}
	return dh.toCore(), nil
}

func (repo homeworkRepository) UpdateHomework(ctx context.Context, hw homework.Homework) (homework.Homework, error) {
	query := `
		UPDATE homework
		SET title = $2, description = $3, due_at = $4, updated_at = $5, reminded_at = NULL
		WHERE id = $1 AND deleted_at IS NULL`
	desc := null.NewString(hw.Description, hw.Description != "")
	res, err := repo.db.ExecContext(ctx, query, hw.ID, hw.Title, desc, hw.DueAt.UTC(), hw.UpdatedAt.UTC())
	if err != nil {
		return homework.Homework{}, database.TranslateError(err, "updating homework")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return homework.Homework{}, homework.ErrNotFound
	}
	return repo.GetHomeworkByID(ctx, hw.ID)
}

func (repo homeworkRepository) DeleteHomeworkByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE homework SET deleted_at = ? WHERE id IN (?) AND deleted_at IS NULL`, time.Now().UTC(), ids)
	if err != nil {
		return database.TranslateError(err, "deleting homework")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return database.TranslateError(err, "deleting homework")
	}
	return nil
}

func (repo homeworkRepository) QueryDueBetween(ctx context.Context, from, to time.Time) ([]homework.Homework, error) {
	var rows []dbHomework
	query := `
		SELECT * FROM homework
		WHERE due_at >= $1 AND due_at < $2 AND reminded_at IS NULL AND deleted_at IS NULL
		ORDER BY due_at`
	if err := repo.db.SelectContext(ctx, &rows, query, from.UTC(), to.UTC()); err != nil {
		return nil, database.TranslateError(err, "querying due homework")
	}
	return toCoreHomework(rows), nil
}

func (repo homeworkRepository) MarkReminded(ctx context.Context, at time.Time, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE homework SET reminded_at = ? WHERE id IN (?)`, at.UTC(), ids)
	if err != nil {
		return database.TranslateError(err, "marking homework reminded")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return database.TranslateError(err, "marking homework reminded")
	}
	return nil
}

func toCoreHomework(rows []dbHomework) []homework.Homework {
	hws := make([]homework.Homework, 0, len(rows))
	for _, dh := range rows {
		hws = append(hws, dh.toCore())
	}
	return hws
}
