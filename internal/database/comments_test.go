package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/database/dbtest"
	"github.com/emilythestrangee/forum/backend/internal/threads"
)

func TestListCommentsForPostJoinsAuthor(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.User(t, db, "alice")
	bob := dbtest.User(t, db, "bob")
	post := dbtest.Post(t, db, alice, "p")
	other := dbtest.Post(t, db, alice, "other")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	root := dbtest.Comment(t, db, post, alice, nil, "root", base)
	dbtest.Comment(t, db, post, bob, root, "reply", base.Add(time.Minute))
	dbtest.Comment(t, db, other, bob, nil, "elsewhere", base)

	comments, err := database.NewCommentStore(db).ListCommentsForPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	authors := map[string]string{}
	for _, c := range comments {
		authors[c.Body] = c.Author
	}
	assert.Equal(t, map[string]string{"root": "alice", "reply": "bob"}, authors)
}

func TestAssemblerOrdersThread(t *testing.T) {
	db := dbtest.New(t)
	alice := dbtest.User(t, db, "alice")
	post := dbtest.Post(t, db, alice, "p")

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	at := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Hour) }

	a := dbtest.Comment(t, db, post, alice, nil, "A", at(3))
	dbtest.Comment(t, db, post, alice, nil, "B", at(1))
	dbtest.Comment(t, db, post, alice, a, "C", at(2))
	dbtest.Comment(t, db, post, alice, a, "D", at(4))

	assembler := threads.NewAssembler(database.NewCommentStore(db))
	comments, err := assembler.ListComments(context.Background(), post.ID)
	require.NoError(t, err)

	bodies := make([]string, len(comments))
	for i, c := range comments {
		bodies[i] = c.Body
	}
	assert.Equal(t, []string{"C", "D", "A", "B"}, bodies)
}

func TestAssemblerUnknownPostIsEmpty(t *testing.T) {
	db := dbtest.New(t)

	comments, err := threads.NewAssembler(database.NewCommentStore(db)).ListComments(context.Background(), 12345)
	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}
