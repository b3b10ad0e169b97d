package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/steady/internal/database"
	"github.com/dukerupert/steady/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestAccount(t *testing.T, db *sql.DB, role model.Role, email string) *model.Account {
	t.Helper()
	a, err := NewAccountStore(db).Create(context.Background(), &model.Account{
		Role:         role,
		FullName:     "Test " + string(role),
		Email:        email,
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}
