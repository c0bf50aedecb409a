package api

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func startServer(t *testing.T) *Client {
	server := httptest.NewServer(CreateRestService(prometheus.NewRegistry()))
	t.Cleanup(server.Close)
	return NewClientForUrl(server.URL)
}

func TestClient_SetPercentage(t *testing.T) {
	// GIVEN
	unit := setupUnit(t, "bath")
	client := startServer(t)

	// WHEN
	state, err := client.SetPercentage(context.Background(), "bath", 66)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, "bath", state.Id)
	assert.Equal(t, []string{"percentage 66"}, unit.GetCalls())
}

func TestClient_TurnOn(t *testing.T) {
	// GIVEN
	unit := setupUnit(t, "bath")
	client := startServer(t)
	percentage := 100

	// WHEN
	_, err := client.TurnOn(context.Background(), "bath", &percentage, nil)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"on 100 -"}, unit.GetCalls())
}

func TestClient_CallService(t *testing.T) {
	// GIVEN
	unit := setupUnit(t, "bath")
	client := startServer(t)

	// WHEN
	_, err := client.CallService(context.Background(), "bath", controller.ServiceClearFilterReminder)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"clear-filter"}, unit.GetCalls())
}

func TestClient_NotFound(t *testing.T) {
	// GIVEN
	client := startServer(t)

	// WHEN
	_, err := client.GetUnit(context.Background(), "missing")

	// THEN
	assert.EqualError(t, err, "Not found: No item with id 'missing' found")
}

func TestClient_GetUnits(t *testing.T) {
	// GIVEN
	setupUnit(t, "a")
	client := startServer(t)

	// WHEN
	units, err := client.GetUnits(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Len(t, units, 1)
}

func TestNewClient_WildcardHost(t *testing.T) {
	// WHEN
	client := NewClient("0.0.0.0", 9001)

	// THEN
	assert.Equal(t, "http://localhost:9001", client.baseUrl)
}
