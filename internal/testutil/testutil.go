// Package testutil provides in-memory databases and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"managemint/internal/auth"
	"managemint/internal/database"
	"managemint/internal/models"
	"managemint/internal/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Password is the clear-text password of every fixture user.
const Password = "Passw0rd!"

var passwordHash = sync.OnceValue(func() string {
	h, err := auth.HashPassword(Password)
	if err != nil {
		panic(err)
	}
	return h
})

// NewUser inserts a user with the given role and Password.
func NewUser(t *testing.T, db *gorm.DB, role models.UserRole) *models.User {
	t.Helper()
	id := uuid.New()
	u := &models.User{
		Base:         models.Base{ID: id},
		Name:         fmt.Sprintf("%s %s", role, id.String()[:8]),
		Email:        fmt.Sprintf("%s-%s@agency.test", role, id.String()[:8]),
		PasswordHash: passwordHash(),
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Mailbox is a notify.Sender that records every message.
type Mailbox struct {
	mu   sync.Mutex
	msgs []notify.Message
	Err  error
}

func (m *Mailbox) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *Mailbox) Messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.msgs...)
}

// To returns the messages addressed to email.
func (m *Mailbox) To(email string) []notify.Message {
	var out []notify.Message
	for _, msg := range m.Messages() {
		if msg.To == email {
			out = append(out, msg)
		}
	}
	return out
}
