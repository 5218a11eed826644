package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsersQueryPaginationBounds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	bind := func(rawQuery string) (listUsersQuery, error) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/users?"+rawQuery, nil)
		var q listUsersQuery
		err := c.ShouldBindQuery(&q)
		return q, err
	}

	for _, raw := range []string{"limit=0", "limit=101", "page=0"} {
		_, err := bind(raw)
		assert.Error(t, err, raw)
	}

	q, err := bind("role=editor")
	require.NoError(t, err)
	assert.Nil(t, q.Limit)
	assert.Equal(t, "editor", q.Role)
}
