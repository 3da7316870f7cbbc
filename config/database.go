package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// DSN 生成 MySQL 连接字符串
func (c DatabaseConfig) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = c.Host
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// OpenDB 连接数据库并执行迁移
func OpenDB(ctx context.Context, cfg DatabaseConfig, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err = Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("database connected and migrated", zap.String("host", cfg.Host), zap.String("name", cfg.Name))
	return db, nil
}

// Migrate 自动迁移数据库
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	// 创建 migrations 表用于跟踪迁移状态
	if err := createMigrationsTable(ctx, db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range getMigrations() {
		if err := runMigrationIfNotExists(ctx, db, migration, logger); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", migration.Name, err)
		}
	}
	return nil
}

// Migration 迁移结构
type Migration struct {
	Name string
	SQL  string
}

func createMigrationsTable(ctx context.Context, db *sql.DB) error {
	createSQL := `
	CREATE TABLE IF NOT EXISTS migrations (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
	`
	_, err := db.ExecContext(ctx, createSQL)
	return err
}

// getMigrations 获取所有迁移，按顺序执行
func getMigrations() []Migration {
	return []Migration{
		{
			Name: "001_create_users_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS users (
				id INT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(150) NOT NULL UNIQUE,
				password VARCHAR(255) NOT NULL,
				email VARCHAR(254) NOT NULL DEFAULT '',
				first_name VARCHAR(150) NOT NULL DEFAULT '',
				last_name VARCHAR(150) NOT NULL DEFAULT '',
				role INT DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			)
			`,
		},
		{
			Name: "002_create_farmer_profiles_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS farmer_profiles (
				id INT AUTO_INCREMENT PRIMARY KEY,
				user_id INT NOT NULL UNIQUE,
				location VARCHAR(100) NOT NULL,
				farm_size DOUBLE NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)
			`,
		},
		{
			Name: "003_create_crop_predictions_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS crop_predictions (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id INT NOT NULL,
				nitrogen DOUBLE NOT NULL,
				phosphorus DOUBLE NOT NULL,
				potassium DOUBLE NOT NULL,
				temperature DOUBLE NOT NULL,
				humidity DOUBLE NOT NULL,
				ph DOUBLE NOT NULL,
				rainfall DOUBLE NOT NULL,
				predicted_crop VARCHAR(50) NOT NULL,
				fertilizer_recommendation TEXT NOT NULL,
				created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_crop_predictions_user_created (user_id, created_at),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)
			`,
		},
		{
			Name: "004_create_disease_detections_table",
			SQL: `
			CREATE TABLE IF NOT EXISTS disease_detections (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				user_id INT NOT NULL,
				image VARCHAR(255) NOT NULL,
				plant_type VARCHAR(100) NOT NULL DEFAULT '',
				detected_disease VARCHAR(100) NOT NULL DEFAULT '',
				confidence_score DOUBLE NOT NULL DEFAULT 0,
				treatment_recommendation TEXT,
				created_at TIMESTAMP(6) DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_disease_detections_user_created (user_id, created_at),
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			)
			`,
		},
	}
}

// runMigrationIfNotExists 如果迁移不存在则运行
func runMigrationIfNotExists(ctx context.Context, db *sql.DB, migration Migration, logger *zap.Logger) error {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations WHERE name = ?", migration.Name).Scan(&count)
	if err != nil {
		return err
	}

	if count > 0 {
		logger.Debug("migration already executed, skipping", zap.String("migration", migration.Name))
		return nil
	}

	logger.Info("running migration", zap.String("migration", migration.Name))
	if _, err := db.ExecContext(ctx, migration.SQL); err != nil {
		return err
	}

	// 记录迁移已执行
	_, err = db.ExecContext(ctx, "INSERT INTO migrations (name) VALUES (?)", migration.Name)
	return err
}
