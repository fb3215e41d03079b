package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitUnavailableWithoutQueue(t *testing.T) {
	h := &ImportHandler{}

	app := fiber.New()
	app.Post("/api/imports/:code/commit", h.Commit)

	req := httptest.NewRequest(fiber.MethodPost, "/api/imports/IMP-AB12CD34/commit", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
