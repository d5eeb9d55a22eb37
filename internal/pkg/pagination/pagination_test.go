package pagination

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paramsFor(t *testing.T, w Window, query string) Params {
	t.Helper()

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(w.Params(c))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var got struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	return Params{Page: got.Page, Limit: got.Limit, Offset: (got.Page - 1) * got.Limit}
}

func TestWindowParams(t *testing.T) {
	tests := []struct {
		name   string
		window Window
		query  string
		want   Params
	}{
		{"list defaults", Lists, "", Params{Page: 1, Limit: 20, Offset: 0}},
		{"history defaults", History, "", Params{Page: 1, Limit: 50, Offset: 0}},
		{"explicit page", Lists, "?page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"list clamps", Lists, "?limit=300", Params{Page: 1, Limit: 100, Offset: 0}},
		{"history allows longer pages", History, "?limit=300", Params{Page: 1, Limit: 300, Offset: 0}},
		{"history clamps", History, "?limit=9000", Params{Page: 1, Limit: 500, Offset: 0}},
		{"garbage falls back", History, "?page=x&limit=-4", Params{Page: 1, Limit: 50, Offset: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paramsFor(t, tt.window, tt.query))
		})
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(&Params{Page: 2, Limit: 20}, 41)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	meta = GetMeta(&Params{Page: 1, Limit: 50}, 0)
	assert.Equal(t, 0, meta.TotalPages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}
