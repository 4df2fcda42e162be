package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestPaging(t *testing.T) {
	cases := []struct {
		query         string
		limit, offset int
	}{
		{"/", 10, 0},
		{"/?limit=25&offset=50", 25, 50},
		{"/?limit=500", 100, 0},
		{"/?limit=-1&offset=-5", 10, 0},
		{"/?limit=abc&offset=xyz", 10, 0},
	}
	for _, tc := range cases {
		c, _ := testContext(tc.query)
		limit, offset := paging(c)
		assert.Equal(t, tc.limit, limit, tc.query)
		assert.Equal(t, tc.offset, offset, tc.query)
	}
}

func TestParamID(t *testing.T) {
	c, _ := testContext("/")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, ok := paramID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, 42, id)

	for _, raw := range []string{"0", "-3", "abc", ""} {
		c, w := testContext("/")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		_, ok := paramID(c, "id")
		assert.False(t, ok, raw)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	c, w := testContext("/")
	_, ok := currentUser(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
