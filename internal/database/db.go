package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"managemint/internal/auth"
	"managemint/internal/config"
	"managemint/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxAttempts = 10

// Open connects to the configured database, retrying while postgres starts up.
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         NewGormLogger(log, gormlogger.Warn),
		TranslateError: true,
	}

	if cfg.Driver == "sqlite" {
		return OpenSQLite(cfg.DSN, gcfg)
	}

	var (
		db  *gorm.DB
		err error
	)
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to database", zap.Int("attempt", i), zap.Int("max_attempts", maxAttempts))

		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
		if err == nil {
			log.Info("connected to database")
			return db, nil
		}

		log.Warn("failed to connect to database", zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("connect to db after %d attempts: %w", maxAttempts, err)
}

// OpenSQLite opens an embedded database. In-memory databases are pinned to a
// single connection, since every new connection would see an empty database.
func OpenSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{
			NowFunc:        func() time.Time { return time.Now().UTC() },
			Logger:         NewGormLogger(nil, gormlogger.Silent),
			TranslateError: true,
		}
	}
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Consultant{},
		&models.Profile{},
		&models.Client{},
		&models.POC{},
		&models.Vendor{},
		&models.IP{},
		&models.Submission{},
		&models.Assessment{},
		&models.Offer{},
		&models.Timesheet{},
		&models.Meeting{},
		&models.Call{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// EnsureAdmin creates the bootstrap admin when the users table has no admin yet.
// An empty password generates a temporary one, which is logged once.
func EnsureAdmin(db *gorm.DB, email, password string, log *zap.Logger) error {
	var count int64
	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if count > 0 {
		return nil
	}

	generated := false
	if password == "" {
		p, err := auth.TemporaryPassword()
		if err != nil {
			return err
		}
		password, generated = p, true
	}

	admin, err := CreateAdmin(db, "Administrator", email, password)
	if err != nil {
		return err
	}
	admin.MustChangePassword = generated
	if generated {
		if err := db.Model(admin).Update("must_change_password", true).Error; err != nil {
			return fmt.Errorf("flag admin password: %w", err)
		}
		log.Warn("created bootstrap admin with generated password",
			zap.String("email", admin.Email), zap.String("password", password))
		return nil
	}
	log.Info("created bootstrap admin", zap.String("email", admin.Email))
	return nil
}

var ErrEmailTaken = errors.New("email already registered")

// CreateAdmin inserts an admin account. Used by EnsureAdmin and the create-admin command.
func CreateAdmin(db *gorm.DB, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	return admin, nil
}
