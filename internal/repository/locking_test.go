package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newDryRunDB opens a MySQL-dialect session that builds SQL without executing
// it, so the generated statements can be inspected in tests.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "test:test@tcp(127.0.0.1:3306)/lms?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

// captureSQL records the final SQL of every query built on the session.
func captureSQL(t *testing.T, db *gorm.DB) *string {
	t.Helper()
	var captured string
	err := db.Callback().Query().After("gorm:query").Register("test:capture_sql", func(tx *gorm.DB) {
		captured = tx.Statement.SQL.String()
	})
	require.NoError(t, err)
	return &captured
}

func TestCourseRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db := newDryRunDB(t)
	captured := captureSQL(t, db)
	repo := NewCourseRepository(db)

	_, err := repo.FindByIDForUpdate(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(*captured, "FOR UPDATE"), "expected locking clause, got: %s", *captured)
}

func TestUserRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db := newDryRunDB(t)
	captured := captureSQL(t, db)
	repo := NewUserRepository(db)

	_, err := repo.FindByIDForUpdate(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(*captured, "FOR UPDATE"), "expected locking clause, got: %s", *captured)
}

func TestFindByID_DoesNotLock(t *testing.T) {
	db := newDryRunDB(t)
	captured := captureSQL(t, db)
	repo := NewCourseRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())

	assert.NoError(t, err)
	assert.NotContains(t, *captured, "FOR UPDATE")
}
