package echoapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
)

func TestCookieStorage_SetItem(t *testing.T) {
	conf := &core.Config{AppName: "Darasa", SecretKey: "test-secret", Server: core.ServerConfig{SessionMaxAge: time.Hour}}

	tests := []struct {
		name    string
		value   string
		wantErr error
	}{
		{name: "small entry", value: `{"id":"1"}`},
		{name: "entry over the cookie size", value: strings.Repeat("a", maxCookieSize), wantErr: core.ErrStorageFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			ctx := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			storage := newCookieStorage(ctx, conf)

			err := storage.SetItem(core.SessionStorageKey, tt.value)
			val, ok, gErr := storage.GetItem(core.SessionStorageKey)
			require.NoError(t, gErr)

			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				assert.Empty(t, rec.Result().Cookies())
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.value, val)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.LessOrEqual(t, len(cookies[0].Name)+len(cookies[0].Value), maxCookieSize)
		})
	}
}
