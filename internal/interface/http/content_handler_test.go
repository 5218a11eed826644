package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bindListQuery(t *testing.T, rawQuery string) (contentListQuery, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/content?"+rawQuery, nil)
	var q contentListQuery
	err := c.ShouldBindQuery(&q)
	return q, err
}

func bindCreateBody(t *testing.T, body string) error {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("POST", "/content", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req createContentRequest
	return c.ShouldBindJSON(&req)
}

func TestContentListQueryRejectsOutOfRangePagination(t *testing.T) {
	for _, raw := range []string{"limit=0", "limit=101", "page=0"} {
		_, err := bindListQuery(t, raw)
		assert.Error(t, err, raw)
	}
}

func TestContentListQueryAcceptsAbsentAndBoundaryPagination(t *testing.T) {
	q, err := bindListQuery(t, "status=draft")
	require.NoError(t, err)
	assert.Nil(t, q.Page)
	assert.Nil(t, q.Limit)

	q, err = bindListQuery(t, "page=1&limit=100")
	require.NoError(t, err)
	assert.Equal(t, 1, intOrZero(q.Page))
	assert.Equal(t, 100, intOrZero(q.Limit))
}

func TestCreateContentTitleLengthBound(t *testing.T) {
	long := strings.Repeat("a", 101)
	err := bindCreateBody(t, `{"title":"`+long+`","body":"b"}`)
	assert.Error(t, err)

	ok := strings.Repeat("a", 100)
	err = bindCreateBody(t, `{"title":"`+ok+`","body":"b"}`)
	assert.NoError(t, err)
}
