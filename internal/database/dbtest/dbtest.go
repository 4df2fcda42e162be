// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

var seq atomic.Int64

// New returns a fresh, migrated database private to t. The pool holds a
// single connection so concurrent transactions queue instead of failing
// with SQLITE_BUSY.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:forumtest%d?mode=memory&cache=shared", seq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func User(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x"}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func Post(t testing.TB, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Body: title + " body", AuthorID: author.ID}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("create post %s: %v", title, err)
	}
	return p
}

// Comment creates a comment with an explicit creation time.
func Comment(t testing.TB, db *gorm.DB, post *models.Post, author *models.User, parent *models.Comment, body string, at time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Body:      body,
		PostID:    post.ID,
		AuthorID:  author.ID,
		CreatedAt: at,
	}
	if parent != nil {
		c.ParentCommentID = &parent.ID
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create comment %s: %v", body, err)
	}
	return c
}
