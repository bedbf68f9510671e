package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"habitrack-backend/config"
	"habitrack-backend/internal/api"
	"habitrack-backend/internal/kv"
	"habitrack-backend/internal/model"
	"habitrack-backend/internal/remote"
	"habitrack-backend/internal/store"
	"habitrack-backend/internal/testutil"
)

type app struct {
	router *gin.Engine
	stores api.Stores
}

// startApp wires the stores the way the daemon does, over gormDB.
func startApp(t *testing.T, gormDB *gorm.DB, keyPath string) *app {
	t.Helper()
	ctx := context.Background()
	log, _ := testutil.NullLogger()

	identity, err := kv.LoadOrCreateIdentity(keyPath)
	require.NoError(t, err)

	properties := store.NewPropertyStore(kv.NewGormStore(gormDB, kv.NamespaceProperty), remote.NewPropertyMock(0), log)
	stores := api.Stores{
		Properties: properties,
		Assets:     store.NewAssetStore(kv.NewGormStore(gormDB, kv.NamespaceAsset), remote.NewAssetMock(0), properties, log),
		Users:      store.NewUserStore(kv.NewGormStore(gormDB, kv.NamespaceUser), remote.NewUserMock(0), log),
		Auth: store.NewAuthStore(
			kv.NewEncryptedStore(kv.NewGormStore(gormDB, kv.NamespaceAuth), identity),
			remote.NewMockOTP(0), testutil.FixedClock(), 0, log,
		),
	}
	require.NoError(t, stores.Properties.Initialize(ctx))
	require.NoError(t, stores.Assets.Initialize(ctx))
	require.NoError(t, stores.Users.Initialize(ctx))
	require.NoError(t, stores.Auth.Initialize(ctx))

	h := api.NewHandler(stores, gormDB, nil, nil, log)
	router := api.NewRouter(h, config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60})
	return &app{router: router, stores: stores}
}

func (a *app) request(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// TestHouseholdLifecycle drives a sign-in, a property and an asset through
// the API, then restarts the stores over the same database and checks what
// survived.
func TestHouseholdLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gormDB := testutil.NewSQLiteDB(t)
	keyPath := filepath.Join(t.TempDir(), "keys", "auth.key")

	first := startApp(t, gormDB, keyPath)

	w := first.request(t, http.MethodPost, "/api/auth/otp", map[string]string{"countryCode": "91", "phoneNumber": "9876543210"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	w = first.request(t, http.MethodPost, "/api/auth/otp/verify", map[string]string{"code": "123456"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := first.stores.Auth.Token()
	require.NotEmpty(t, token)

	w = first.request(t, http.MethodPost, "/api/profile", map[string]any{"name": "Asha", "phoneNumber": "+919876543210"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = first.request(t, http.MethodPost, "/api/properties", map[string]any{
		"name":         "Home",
		"addressLine1": "12 MG Road",
		"city":         "Bengaluru",
		"state":        "KA",
		"postalCode":   "560001",
		"country":      "India",
		"rooms":        []string{"Kitchen"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var property model.Property
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &property))

	w = first.request(t, http.MethodPut, "/api/session/property", map[string]string{"propertyId": property.ID})
	require.Equal(t, http.StatusOK, w.Code)

	w = first.request(t, http.MethodPost, "/api/assets", map[string]any{
		"name":         "Fridge",
		"brand":        "LG",
		"model":        "GL-I292",
		"serialNumber": "SN-1",
		"category":     "fridge",
		"room":         "Kitchen",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// The token is stored, but never in the clear.
	var entry model.KVEntry
	require.NoError(t, gormDB.Where("namespace = ? AND entry_key = ?", kv.NamespaceAuth, store.KeyAuth).First(&entry).Error)
	assert.NotContains(t, entry.Value, token)

	second := startApp(t, gormDB, keyPath)

	assert.Equal(t, token, second.stores.Auth.Token())
	assert.Len(t, second.stores.Properties.GetAll(), 1)
	assert.Len(t, second.stores.Assets.AssetsForProperty(property.ID), 1)
	profile, ok := second.stores.Users.Profile()
	require.True(t, ok)
	assert.Equal(t, "Asha", profile.Name)
	assert.False(t, profile.Verified)

	// The property selection belongs to the session and does not survive.
	w = second.request(t, http.MethodGet, "/api/session/property", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = second.request(t, http.MethodGet, "/api/assets", nil)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = second.request(t, http.MethodGet, "/api/views/properties-by-country", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"labels":["India"]`)

	w = second.request(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	third := startApp(t, gormDB, keyPath)
	assert.False(t, third.stores.Auth.IsAuthenticated())
	assert.True(t, third.stores.Users.IsGuest())
	assert.Len(t, third.stores.Properties.GetAll(), 1)
}
