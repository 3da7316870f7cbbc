package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-agrisense/models"
)

// UserDAO 用户表
type UserDAO struct {
	DB *sql.DB
}

// NewUserDAO 创建 UserDAO
func NewUserDAO(db *sql.DB) *UserDAO {
	return &UserDAO{DB: db}
}

const userColumns = "id, username, password, email, first_name, last_name, role, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.FirstName, &u.LastName,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create 插入用户，用户名重复时返回 ErrDuplicate
func (d *UserDAO) Create(ctx context.Context, u *models.User) error {
	result, err := d.DB.ExecContext(ctx,
		"INSERT INTO users (username, password, email, first_name, last_name, role) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.PasswordHash, u.Email, u.FirstName, u.LastName, u.Role,
	)
	if isDuplicate(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get user id: %w", err)
	}
	u.ID = int(id)
	return nil
}

// ByUsername 按用户名查询
func (d *UserDAO) ByUsername(ctx context.Context, username string) (*models.User, error) {
	row := d.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// ByID 按 ID 查询
func (d *UserDAO) ByID(ctx context.Context, id int) (*models.User, error) {
	row := d.DB.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// List 返回全部用户，仅供管理员使用
func (d *UserDAO) List(ctx context.Context) ([]models.User, error) {
	rows, err := d.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
