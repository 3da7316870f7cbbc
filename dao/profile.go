package dao

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go-agrisense/models"
)

// ProfileDAO 农户档案表
type ProfileDAO struct {
	DB *sql.DB
}

// NewProfileDAO 创建 ProfileDAO
func NewProfileDAO(db *sql.DB) *ProfileDAO {
	return &ProfileDAO{DB: db}
}

const profileQuery = `
	SELECT p.id, p.location, p.farm_size, p.created_at, p.updated_at,
		u.id, u.username, u.email, u.first_name, u.last_name, u.role, u.created_at, u.updated_at
	FROM farmer_profiles p
	JOIN users u ON u.id = p.user_id
`

func scanProfile(row rowScanner) (*models.FarmerProfile, error) {
	var p models.FarmerProfile
	err := row.Scan(&p.ID, &p.Location, &p.FarmSize, &p.CreatedAt, &p.UpdatedAt,
		&p.User.ID, &p.User.Username, &p.User.Email, &p.User.FirstName, &p.User.LastName,
		&p.User.Role, &p.User.CreatedAt, &p.User.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ByUser 查询用户的档案
func (d *ProfileDAO) ByUser(ctx context.Context, userID int) (*models.FarmerProfile, error) {
	return scanProfile(d.DB.QueryRowContext(ctx, profileQuery+" WHERE p.user_id = ?", userID))
}

// List 返回全部档案
func (d *ProfileDAO) List(ctx context.Context) ([]models.FarmerProfile, error) {
	rows, err := d.DB.QueryContext(ctx, profileQuery+" ORDER BY p.id")
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.FarmerProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

// Upsert 创建或更新用户的档案
func (d *ProfileDAO) Upsert(ctx context.Context, userID int, req models.ProfileRequest) (*models.FarmerProfile, error) {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO farmer_profiles (user_id, location, farm_size) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE location = VALUES(location), farm_size = VALUES(farm_size)
	`, userID, req.Location, req.FarmSize)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return d.ByUser(ctx, userID)
}
