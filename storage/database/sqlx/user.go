package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/darasa-app/darasa/core/user"
	"github.com/darasa-app/darasa/storage/database"
)

type dbUser struct {
	ID                 string         `db:"id"`
	Name               null.String    `db:"name"`
	Username           null.String    `db:"username"`
	Email              null.String    `db:"email"`
	IsActive           bool           `db:"is_active"`
	MustChangePassword bool           `db:"must_change_password"`
	Roles              pq.StringArray `db:"roles"`
	PasswordHash       null.Bytes     `db:"password_hash"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
	LastLogin          null.Time      `db:"last_login"`
	DeletedAt          null.Time      `db:"deleted_at"`
}

func (du dbUser) toCore() user.User {
	return user.User{
		ID:                 du.ID,
		Name:               du.Name.String,
		Username:           du.Username.String,
		Email:              du.Email.String,
		IsActive:           du.IsActive,
		MustChangePassword: du.MustChangePassword,
		Roles:              du.Roles,
		PasswordHash:       du.PasswordHash.Bytes,
		CreatedAt:          du.CreatedAt,
		UpdatedAt:          du.UpdatedAt,
		LastLogin:          du.LastLogin.Time,
		DeletedAt:          du.DeletedAt.Time,
	}
}

func toDBUser(usr user.User) dbUser {
	return dbUser{
		ID:                 usr.ID,
		Name:               null.NewString(usr.Name, usr.Name != ""),
		Username:           null.NewString(usr.Username, usr.Username != ""),
		Email:              null.NewString(usr.Email, usr.Email != ""),
		IsActive:           usr.IsActive,
		MustChangePassword: usr.MustChangePassword,
		Roles:              usr.Roles,
		PasswordHash:       null.NewBytes(usr.PasswordHash, usr.PasswordHash != nil),
		CreatedAt:          usr.CreatedAt.UTC(),
		UpdatedAt:          usr.UpdatedAt.UTC(),
		LastLogin:          null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
		DeletedAt:          null.NewTime(usr.DeletedAt.UTC(), !usr.DeletedAt.IsZero()),
	}
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	query := `SELECT username, email FROM "user" WHERE (username = ? OR email = ?) AND deleted_at IS NULL`
	args := []interface{}{username, email}

	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		query += ` AND id NOT IN (?)`
		var err error
		query, args, err = sqlx.In(query, username, email, ids)
		if err != nil {
			return database.TranslateError(err, "checking user uniqueness")
		}
	}
	query += ` LIMIT 1`

	var row struct {
		Username null.String `db:"username"`
		Email    null.String `db:"email"`
	}
	err := repo.db.GetContext(ctx, &row, repo.db.Rebind(query), args...)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return database.TranslateError(err, "checking user uniqueness")
	}
	if username != "" && row.Username.String == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	du := toDBUser(usr)

	query := `
		INSERT INTO "user" (id, name, username, email, is_active, must_change_password, roles, password_hash, created_at, updated_at, last_login)
		VALUES (:id, :name, :username, :email, :is_active, :must_change_password, :roles, :password_hash, :created_at, :updated_at, :last_login)`
	if _, err := repo.db.NamedExecContext(ctx, query, du); err != nil {
		return user.User{}, database.TranslateError(err, "inserting user")
	}
	return du.toCore(), nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []dbUser
	query := `SELECT * FROM "user" WHERE deleted_at IS NULL ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, database.TranslateError(err, "querying users")
	}
	return toCoreUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	var du dbUser
	query := `SELECT * FROM "user" WHERE id = $1 AND deleted_at IS NULL`
	if err := repo.db.GetContext(ctx, &du, query, id); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, database.TranslateError(err, "getting user by ID")
	}
	return du.toCore(), nil
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	var du dbUser
	query := `SELECT * FROM "user" WHERE (username = $1 OR email = $1) AND deleted_at IS NULL`
	if err := repo.db.GetContext(ctx, &du, query, uname); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, database.TranslateError(err, "getting user by username or email")
	}
	return du.toCore(), nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	conds := []string{"deleted_at IS NULL"}
	args := make([]interface{}, 0, 5)

	if filter.Search != "" {
		conds = append(conds, "(name ILIKE ? OR username ILIKE ? OR email ILIKE ?)")
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	if filter.Roles != nil {
		conds = append(conds, "roles && ?")
		args = append(args, pq.StringArray(filter.Roles))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = ?")
		args = append(args, *filter.IsActive)
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.CreatedFrom.UTC())
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.CreatedTo.UTC())
	}

	query := fmt.Sprintf(`SELECT * FROM "user" WHERE %s ORDER BY created_at DESC`, strings.Join(conds, " AND "))
	var rows []dbUser
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(query), args...); err != nil {
		return nil, database.TranslateError(err, "filtering users")
	}
	return toCoreUsers(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive, mustChangePwd *bool) (user.User, error) {
	du := toDBUser(usr)
	if usr.UpdatedAt.IsZero() {
		du.UpdatedAt = time.Now().UTC()
	}

	sets := []string{"updated_at = :updated_at"}
	if usr.Name != "" {
		sets = append(sets, "name = :name")
	}
	if usr.Username != "" {
		sets = append(sets, "username = :username")
	}
	if usr.Email != "" {
		sets = append(sets, "email = :email")
	}
	if usr.Roles != nil {
		sets = append(sets, "roles = :roles")
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, "password_hash = :password_hash")
	}
	if !usr.LastLogin.IsZero() {
		sets = append(sets, "last_login = :last_login")
	}
	if isActive != nil {
		du.IsActive = *isActive
		sets = append(sets, "is_active = :is_active")
	}
	if mustChangePwd != nil {
		du.MustChangePassword = *mustChangePwd
		sets = append(sets, "must_change_password = :must_change_password")
	}

	query := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = :id AND deleted_at IS NULL`, strings.Join(sets, ", "))
	res, err := repo.db.NamedExecContext(ctx, query, du)
	if err != nil {
		return user.User{}, database.TranslateError(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE "user" SET deleted_at = ?, is_active = FALSE WHERE id IN (?) AND deleted_at IS NULL`, time.Now().UTC(), ids)
	if err != nil {
		return database.TranslateError(err, "deleting users")
	}
	if _, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...); err != nil {
		return database.TranslateError(err, "deleting users")
	}
	return nil
}

func (repo userRepository) AnonymizeUsersDeletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE "user"
		SET name = NULL, username = NULL, email = NULL, password_hash = NULL, roles = '{}'
		WHERE deleted_at IS NOT NULL AND deleted_at < $1
		  AND (name IS NOT NULL OR username IS NOT NULL OR email IS NOT NULL)`
	res, err := repo.db.ExecContext(ctx, query, cutoff.UTC())
	if err != nil {
		return 0, database.TranslateError(err, "anonymizing users")
	}
	return res.RowsAffected()
}

func toCoreUsers(rows []dbUser) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, du := range rows {
		users = append(users, du.toCore())
	}
	return users
}
