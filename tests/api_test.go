package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Интеграционные тесты ходят в запущенный сервер (docker-compose up).
const baseURL = "http://localhost:8080"

var httpClient = &http.Client{Timeout: 5 * time.Second}

func authToken(t *testing.T, email, password string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{
		"username": email,
		"password": password,
	})
	require.NoError(t, err)

	resp, err := httpClient.Post(baseURL+"/api/auth", "application/json", bytes.NewReader(body))
	require.NoError(t, err, "server must be running for integration tests")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func doRequest(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, baseURL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestAuthAndOrdersFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires running server")
	}

	// при первом входе пользователь создаётся автоматически
	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	token := authToken(t, email, "password123")

	// у нового пользователя пока нет заказов
	resp := doRequest(t, http.MethodGet, "/api/orders", token, nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summaries []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	assert.Empty(t, summaries)
}

func TestCheckoutWithoutCart(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires running server")
	}

	email := fmt.Sprintf("it-%d@example.com", time.Now().UnixNano())
	token := authToken(t, email, "password123")

	// корзина не создавалась, оформление отклоняется с причиной
	resp := doRequest(t, http.MethodPost, "/api/checkout", token, map[string]any{
		"shipping_address": map[string]any{
			"name":        "Ivan Petrov",
			"email":       email,
			"address":     "Lenina 1",
			"city":        "Moscow",
			"postal_code": "101000",
			"country":     "RU",
		},
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var errResp struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "Cart validation failed", errResp.Message)
	assert.Contains(t, errResp.Errors, "Cart not found")
}

func TestOrdersRequireAuth(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test, requires running server")
	}

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/orders", nil)
	require.NoError(t, err)

	resp, err := httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
