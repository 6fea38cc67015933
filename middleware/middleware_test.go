package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agri-market/models"
	"agri-market/repository/memstore"
	"agri-market/utils"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newAuth(t *testing.T) (*Authenticator, *utils.TokenManager, *memstore.Store) {
	t.Helper()
	tokens, err := utils.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	store := memstore.New()
	return NewAuthenticator(tokens, store), tokens, store
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"id": id.ID.Hex(), "role": string(id.Role)})
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMsg(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Msg
}

func TestAuthenticate(t *testing.T) {
	auth, tokens, store := newAuth(t)
	user := &models.User{Username: "farmer", Role: models.RoleFarmer}
	require.NoError(t, store.CreateUser(context.Background(), user))
	h := auth.Authenticate(http.HandlerFunc(whoAmI))

	rec := serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token is not valid", decodeMsg(t, rec))

	rec = serve(h, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := utils.NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Generate(user.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, forged).Code)

	ghost, err := tokens.Generate(primitive.NewObjectID(), "admin")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, ghost).Code)

	// the stored role wins over the claim
	token, err := tokens.Generate(user.ID, "admin")
	require.NoError(t, err)
	rec = serve(h, token)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, user.ID.Hex(), got["id"])
	assert.Equal(t, "farmer", got["role"])
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(models.RoleAdmin)(http.HandlerFunc(whoAmI))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	for role, want := range map[models.Role]int{
		models.RoleAdmin:    http.StatusOK,
		models.RoleFarmer:   http.StatusForbidden,
		models.RoleConsumer: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), models.Identity{ID: primitive.NewObjectID(), Role: role}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, role)
	}
}

func TestLoggerAddsRequestIDAndUser(t *testing.T) {
	auth, tokens, store := newAuth(t)
	user := &models.User{Username: "consumer", Role: models.RoleConsumer}
	require.NoError(t, store.CreateUser(context.Background(), user))
	token, err := tokens.Generate(user.ID, string(user.Role))
	require.NoError(t, err)

	var buf bytes.Buffer
	h := Logger(zerolog.New(&buf))(auth.Authenticate(http.HandlerFunc(whoAmI)))
	rec := serve(h, token)
	require.Equal(t, http.StatusOK, rec.Code)

	requestID := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, requestID)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request completed", line["message"])
	assert.Equal(t, requestID, line["request_id"])
	assert.Equal(t, user.ID.Hex(), line["user_id"])
	assert.EqualValues(t, http.StatusOK, line["status"])
}

func TestLoggerKeepsIncomingRequestID(t *testing.T) {
	h := Logger(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(zerolog.New(&buf))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server Error", decodeMsg(t, rec))
	assert.Contains(t, buf.String(), "boom")
}

func TestTimeout(t *testing.T) {
	h := Timeout(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := r.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
	}))
	serve(h, "")
}

func TestMetricsUseRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	router := mux.NewRouter()
	router.Use(m.Middleware)
	router.HandleFunc("/api/orders/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	for _, id := range []string{"a", "b", "c"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil))
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range families {
		if mf.GetName() != "agrimarket_api_http_requests_total" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		metric := mf.GetMetric()[0]
		labels := map[string]string{}
		for _, l := range metric.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, "/api/orders/{userId}", labels["handler"])
		assert.Equal(t, "404", labels["status"])
		assert.Equal(t, 3.0, metric.GetCounter().GetValue())
		found = true
	}
	assert.True(t, found)

	rec := httptest.NewRecorder()
	MetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "agrimarket_api_http_request_duration_ms")
}
