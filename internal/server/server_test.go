package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/emilythestrangee/forum/backend/internal/config"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/database/dbtest"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type api struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
}

func newAPI(t *testing.T) *api {
	db := dbtest.New(t)
	cfg := &config.Config{
		Port:           "0",
		CORSOrigin:     "*",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		WriteRateRPS:   1000,
		WriteRateBurst: 1000,
	}
	s := New(cfg, database.Wrap(db, zap.NewNop()), zap.NewNop())
	return &api{t: t, router: s.RegisterRoutes(), db: db}
}

func (a *api) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// register creates a user and returns its id and token.
func (a *api) register(name string) (int, string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/register", "", gin.H{
		"username": name,
		"email":    name + "@example.com",
		"password": "hunter22",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[struct {
		Token string `json:"token"`
		User  struct {
			ID int `json:"id"`
		} `json:"user"`
	}](a.t, w)
	return resp.User.ID, resp.Token
}

func (a *api) createPost(token, title string) models.Post {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/posts", token, gin.H{"title": title, "body": "text"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Post](a.t, w)
}

func TestHealthAndMetrics(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "up", decode[map[string]string](t, w)["status"])

	w = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "forum_http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	id, token := a.register("ada")

	w := a.do(http.MethodPost, "/api/register", "", gin.H{"username": "ada", "email": "other@example.com", "password": "hunter22"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPost, "/api/login", "", gin.H{"email": "ada@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(id), decode[map[string]interface{}](t, w)["id"])

	w = a.do(http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVotePostEndpoint(t *testing.T) {
	a := newAPI(t)
	_, alice := a.register("alice")
	_, bob := a.register("bob")
	post := a.createPost(alice, "first")
	path := fmt.Sprintf("/api/posts/%d/vote", post.ID)

	w := a.do(http.MethodPost, path, bob, gin.H{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decode[models.Votable](t, w)
	assert.Equal(t, models.Votable{Kind: models.TargetPost, ID: post.ID, Title: "first", Body: "text", Upvotes: 1, Score: 1}, v)

	w = a.do(http.MethodPost, path, bob, gin.H{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Votable](t, w).Upvotes)

	// The older camelCase field still works.
	w = a.do(http.MethodPost, path, bob, gin.H{"voteType": -1})
	require.Equal(t, http.StatusOK, w.Code)
	v = decode[models.Votable](t, w)
	assert.Equal(t, [2]int{0, 1}, [2]int{v.Upvotes, v.Downvotes})

	w = a.do(http.MethodGet, path, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(-1), decode[map[string]interface{}](t, w)["vote_type"])

	w = a.do(http.MethodGet, path, alice, nil)
	assert.Equal(t, float64(0), decode[map[string]interface{}](t, w)["vote_type"])

	w = a.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Post](t, w)
	assert.Equal(t, 1, got.Downvotes)
	assert.Equal(t, "alice", got.Author)
}

func TestVoteErrorsMapToStatus(t *testing.T) {
	a := newAPI(t)
	_, alice := a.register("alice")
	post := a.createPost(alice, "p")

	cases := []struct {
		name  string
		path  string
		token string
		body  interface{}
		want  int
	}{
		{"invalid vote", fmt.Sprintf("/api/posts/%d/vote", post.ID), alice, gin.H{"vote_type": 3}, http.StatusBadRequest},
		{"missing vote", fmt.Sprintf("/api/posts/%d/vote", post.ID), alice, gin.H{}, http.StatusBadRequest},
		{"bad body", fmt.Sprintf("/api/posts/%d/vote", post.ID), alice, gin.H{"vote_type": "up"}, http.StatusBadRequest},
		{"missing post", "/api/posts/999/vote", alice, gin.H{"vote_type": 1}, http.StatusNotFound},
		{"missing comment", "/api/comments/999/vote", alice, gin.H{"vote_type": -1}, http.StatusNotFound},
		{"bad id", "/api/posts/abc/vote", alice, gin.H{"vote_type": 1}, http.StatusBadRequest},
		{"anonymous", fmt.Sprintf("/api/posts/%d/vote", post.ID), "", gin.H{"vote_type": 1}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := a.do(http.MethodPost, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestCommentThreadEndpoints(t *testing.T) {
	a := newAPI(t)
	_, alice := a.register("alice")
	_, bob := a.register("bob")
	post := a.createPost(alice, "thread")
	other := a.createPost(alice, "other")
	commentsPath := fmt.Sprintf("/api/posts/%d/comments", post.ID)

	w := a.do(http.MethodGet, commentsPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = a.do(http.MethodPost, commentsPath, alice, gin.H{"body": "root"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	root := decode[models.Comment](t, w)
	assert.Equal(t, "alice", root.Author)
	assert.True(t, root.IsRoot())

	w = a.do(http.MethodPost, commentsPath, bob, gin.H{"body": "reply", "parent_comment_id": root.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	reply := decode[models.Comment](t, w)
	require.NotNil(t, reply.ParentCommentID)
	assert.Equal(t, root.ID, *reply.ParentCommentID)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", other.ID), bob, gin.H{"body": "x", "parent_comment_id": root.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/posts/999/comments", bob, gin.H{"body": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, commentsPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	flat := decode[[]models.Comment](t, w)
	require.Len(t, flat, 2)
	assert.Equal(t, []int{reply.ID, root.ID}, []int{flat[0].ID, flat[1].ID})

	w = a.do(http.MethodGet, commentsPath+"?view=tree", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tree := decode[[]struct {
		ID      int `json:"id"`
		Replies []struct {
			ID int `json:"id"`
		} `json:"replies"`
	}](t, w)
	require.Len(t, tree, 1)
	assert.Equal(t, root.ID, tree[0].ID)
	require.Len(t, tree[0].Replies, 1)
	assert.Equal(t, reply.ID, tree[0].Replies[0].ID)

	w = a.do(http.MethodPost, fmt.Sprintf("/api/comments/%d/vote", reply.ID), alice, gin.H{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TargetComment, decode[models.Votable](t, w).Kind)

	w = a.do(http.MethodGet, "/api/posts/12345/comments", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestCommentEditAndTombstone(t *testing.T) {
	a := newAPI(t)
	_, alice := a.register("alice")
	_, bob := a.register("bob")
	post := a.createPost(alice, "p")

	w := a.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comments", post.ID), alice, gin.H{"body": "draft"})
	require.Equal(t, http.StatusCreated, w.Code)
	c := decode[models.Comment](t, w)
	path := fmt.Sprintf("/api/comments/%d", c.ID)

	w = a.do(http.MethodPost, path+"/vote", bob, gin.H{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodPut, path, bob, gin.H{"body": "hijack"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPut, path, alice, gin.H{"body": "final"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final", decode[models.Comment](t, w).Body)

	w = a.do(http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Comment
	require.NoError(t, a.db.First(&stored, c.ID).Error)
	assert.True(t, stored.Deleted)
	assert.Equal(t, models.DeletedBody, stored.Body)
	assert.Equal(t, 1, stored.Upvotes)

	var votes int64
	require.NoError(t, a.db.Model(&models.Vote{}).Where("target_kind = ? AND target_id = ?", models.TargetComment, c.ID).Count(&votes).Error)
	assert.EqualValues(t, 1, votes)

	w = a.do(http.MethodPost, path+"/vote", bob, gin.H{"vote_type": -1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	a := newAPI(t)
	_, alice := a.register("alice")
	_, bob := a.register("bob")
	post := a.createPost(alice, "v1")
	path := fmt.Sprintf("/api/posts/%d", post.ID)

	w := a.do(http.MethodPost, "/api/posts", alice, gin.H{"body": "no title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, path, bob, gin.H{"title": "stolen"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPut, path, alice, gin.H{"title": "v2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v2", decode[models.Post](t, w).Title)

	a.createPost(alice, "newer")
	w = a.do(http.MethodGet, "/api/posts?limit=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[[]models.Post](t, w)
	require.Len(t, page, 1)
	assert.Equal(t, "newer", page[0].Title)

	w = a.do(http.MethodPost, path+"/vote", bob, gin.H{"vote_type": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodDelete, path, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodPost, path+"/vote", bob, gin.H{"vote_type": -1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	var votes int64
	require.NoError(t, a.db.Model(&models.Vote{}).Where("target_kind = ? AND target_id = ?", models.TargetPost, post.ID).Count(&votes).Error)
	assert.EqualValues(t, 1, votes)
}

func TestCommunities(t *testing.T) {
	a := newAPI(t)
	_, alice := a.register("alice")
	_, bob := a.register("bob")

	w := a.do(http.MethodPost, "/api/communities", alice, gin.H{"name": "golang", "description": "gophers"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	community := decode[models.Community](t, w)

	w = a.do(http.MethodPost, "/api/communities", bob, gin.H{"name": "golang"})
	assert.Equal(t, http.StatusConflict, w.Code)

	join := fmt.Sprintf("/api/communities/%d/join", community.ID)
	for i := 0; i < 2; i++ {
		w = a.do(http.MethodPost, join, bob, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	w = a.do(http.MethodPost, join, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, "/api/communities/name/golang", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[models.Community](t, w).MemberCount)

	w = a.do(http.MethodDelete, fmt.Sprintf("/api/communities/%d/leave", community.ID), bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/communities/%d", community.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Community](t, w).MemberCount)

	w = a.do(http.MethodPost, "/api/posts", alice, gin.H{"title": "in community", "community_id": community.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "golang", decode[models.Post](t, w).Community)
	a.createPost(alice, "outside")

	w = a.do(http.MethodGet, fmt.Sprintf("/api/communities/%d/posts", community.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	posts := decode[[]models.Post](t, w)
	require.Len(t, posts, 1)
	assert.Equal(t, "in community", posts[0].Title)

	w = a.do(http.MethodGet, "/api/communities", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Community](t, w), 1)

	w = a.do(http.MethodGet, "/api/communities/name/rust", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodPost, "/api/communities/42/join", bob, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = a.do(http.MethodPost, "/api/posts", alice, gin.H{"title": "x", "community_id": 42})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsersAndFollows(t *testing.T) {
	a := newAPI(t)
	aliceID, alice := a.register("alice")
	bobID, bob := a.register("bob")
	a.createPost(alice, "mine")

	follow := fmt.Sprintf("/api/users/%d/follow", aliceID)
	w := a.do(http.MethodPost, follow, bob, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = a.do(http.MethodPost, follow, bob, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(http.MethodPost, follow, alice, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/users/%d", aliceID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[struct {
		Posts         []models.Post `json:"posts"`
		FollowerCount int           `json:"follower_count"`
	}](t, w)
	assert.Len(t, profile.Posts, 1)
	assert.Equal(t, 1, profile.FollowerCount)

	w = a.do(http.MethodGet, fmt.Sprintf("/api/users/%d/followers", aliceID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	followers := decode[[]map[string]interface{}](t, w)
	require.Len(t, followers, 1)
	assert.Equal(t, "bob", followers[0]["username"])

	w = a.do(http.MethodGet, fmt.Sprintf("/api/users/%d/following", bobID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]map[string]interface{}](t, w), 1)

	w = a.do(http.MethodDelete, follow, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, fmt.Sprintf("/api/users/%d/followers", aliceID), "", nil)
	assert.Equal(t, "[]", w.Body.String())

	w = a.do(http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), bob, gin.H{"bio": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = a.do(http.MethodPut, fmt.Sprintf("/api/users/%d", aliceID), alice, gin.H{"bio": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", decode[map[string]interface{}](t, w)["bio"])

	w = a.do(http.MethodGet, "/api/users/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteRateLimit(t *testing.T) {
	db := dbtest.New(t)
	cfg := &config.Config{CORSOrigin: "*", JWTSecret: "s", TokenTTL: time.Hour, WriteRateRPS: 0.001, WriteRateBurst: 1}
	s := New(cfg, database.Wrap(db, zap.NewNop()), zap.NewNop())
	a := &api{t: t, router: s.RegisterRoutes(), db: db}

	user := dbtest.User(t, db, "spammer")
	token, err := s.tokens.Issue(user.ID, user.Username)
	require.NoError(t, err)

	w := a.do(http.MethodPost, "/api/posts", token, gin.H{"title": "one"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w = a.do(http.MethodPost, "/api/posts", token, gin.H{"title": "two"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are not limited.
	w = a.do(http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
