package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/controller"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// requests have to outlast the longest relay sequence of a unit
const clientTimeout = 60 * time.Second

// Client talks to the REST api of a running daemon, so CLI commands
// share the relay timing of the daemon instead of switching relays themselves.
type Client struct {
	baseUrl string
	http    *http.Client
}

func NewClient(host string, port int) *Client {
	if len(host) <= 0 || host == "0.0.0.0" {
		host = "localhost"
	}
	return NewClientForUrl(fmt.Sprintf("http://%s:%d", host, port))
}

func NewClientForUrl(baseUrl string) *Client {
	return &Client{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		http:    &http.Client{Timeout: clientTimeout},
	}
}

func (c *Client) GetUnits(ctx context.Context) (result []controller.State, err error) {
	err = c.do(ctx, http.MethodGet, "/unit/", nil, &result)
	return result, err
}

func (c *Client) GetUnit(ctx context.Context, id string) (result controller.State, err error) {
	err = c.do(ctx, http.MethodGet, unitPath(id, ""), nil, &result)
	return result, err
}

func (c *Client) SetPercentage(ctx context.Context, id string, percentage int) (result controller.State, err error) {
	err = c.do(ctx, http.MethodPost, unitPath(id, "percentage"), PercentageRequest{Percentage: percentage}, &result)
	return result, err
}

func (c *Client) SetPreset(ctx context.Context, id string, preset string) (result controller.State, err error) {
	err = c.do(ctx, http.MethodPost, unitPath(id, "preset"), PresetRequest{Preset: preset}, &result)
	return result, err
}

func (c *Client) TurnOn(ctx context.Context, id string, percentage *int, preset *string) (result controller.State, err error) {
	err = c.do(ctx, http.MethodPost, unitPath(id, "on"), TurnOnRequest{Percentage: percentage, Preset: preset}, &result)
	return result, err
}

func (c *Client) TurnOff(ctx context.Context, id string) (result controller.State, err error) {
	err = c.do(ctx, http.MethodPost, unitPath(id, "off"), nil, &result)
	return result, err
}

func (c *Client) CallService(ctx context.Context, id string, service string) (result controller.State, err error) {
	err = c.do(ctx, http.MethodPost, unitPath(id, "service/"+url.PathEscape(service)), nil, &result)
	return result, err
}

func (c *Client) GetVariants(ctx context.Context) (result []lunos.ControllerVariant, err error) {
	err = c.do(ctx, http.MethodGet, "/variant/", nil, &result)
	return result, err
}

func unitPath(id string, action string) string {
	path := "/unit/" + url.PathEscape(id) + "/"
	if len(action) > 0 {
		path += action + "/"
	}
	return path
}

func (c *Client) do(ctx context.Context, method string, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.http.Do(request)
	if err != nil {
		return fmt.Errorf("lunos2go daemon not reachable at %s: %w", c.baseUrl, err)
	}
	defer response.Body.Close()

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusOK {
		var apiError Result
		if err := json.Unmarshal(data, &apiError); err == nil && len(apiError.Message) > 0 {
			return fmt.Errorf("%s: %s", apiError.Name, apiError.Message)
		}
		return fmt.Errorf("unexpected response: %s", response.Status)
	}

	return json.Unmarshal(data, result)
}
