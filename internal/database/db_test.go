package database

import (
	"context"
	"testing"

	"managemint/internal/auth"
	"managemint/internal/config"
	"managemint/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestMigrateCreatesTables(t *testing.T) {
	db := openTestDB(t)
	for _, table := range []string{
		"users", "consultants", "profiles", "clients", "pocs", "vendors", "ips",
		"submissions", "assessments", "offers", "timesheets", "meetings",
		"meeting_participants", "calls", "audit_logs",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestEnsureAdmin(t *testing.T) {
	db := openTestDB(t)
	log := zap.NewNop()

	require.NoError(t, EnsureAdmin(db, "Root@Agency.test", "Admin123!", log))
	require.NoError(t, EnsureAdmin(db, "other@agency.test", "Admin123!", log))

	var admins []models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).Find(&admins).Error)
	require.Len(t, admins, 1, "second call must not create another admin")
	assert.Equal(t, "root@agency.test", admins[0].Email)
	assert.True(t, auth.CheckPassword(admins[0].PasswordHash, "Admin123!"))
	assert.False(t, admins[0].MustChangePassword)
}

func TestEnsureAdminGeneratedPassword(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, EnsureAdmin(db, "root@agency.test", "", zap.NewNop()))

	var admin models.User
	require.NoError(t, db.Where("role = ?", models.RoleAdmin).First(&admin).Error)
	assert.True(t, admin.MustChangePassword)
	assert.NotEmpty(t, admin.PasswordHash)
}

func TestCreateAdminDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	_, err := CreateAdmin(db, "A", "a@agency.test", "Admin123!")
	require.NoError(t, err)
	_, err = CreateAdmin(db, "B", "A@agency.test", "Admin123!")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateAuditLog(t *testing.T) {
	db := openTestDB(t)
	userID, entityID := uuid.New(), uuid.New()

	require.NoError(t, CreateAuditLog(context.Background(), db, userID, "consultant", entityID, "create", "created consultant"))

	var logs []models.AuditLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, userID, logs[0].UserID)
	assert.Equal(t, entityID, logs[0].EntityID)
	assert.Equal(t, "create", logs[0].Action)
	assert.False(t, logs[0].CreatedAt.IsZero())

	assert.NoError(t, CreateAuditLog(context.Background(), nil, userID, "x", entityID, "noop", ""))
}

func TestGormLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	baseline := logs.FilterMessage("query failed").Len()

	var u models.User
	err = db.First(&u, "id = ?", uuid.New()).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Equal(t, baseline, logs.FilterMessage("query failed").Len(), "missing records are not errors")

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, baseline+1)
	last := failed[len(failed)-1]
	assert.Equal(t, "gorm", last.LoggerName)
	assert.Contains(t, last.ContextMap()["sql"], "no_such_table")
}
