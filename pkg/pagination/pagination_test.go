package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20}},
		{"?page=3&limit=50", Params{Page: 3, Limit: 50}},
		{"?page=0&limit=-4", Params{Page: 1, Limit: 20}},
		{"?page=x&limit=y", Params{Page: 1, Limit: 20}},
		{"?limit=5000", Params{Page: 1, Limit: MaxLimit}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/items"+tt.query, nil)
		assert.Equal(t, tt.want, Parse(c), tt.query)
	}
}
