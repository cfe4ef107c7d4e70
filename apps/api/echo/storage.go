package echoapi

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// maxCookieSize keeps a cookie's name and value under the 4096 bytes browsers accept.
const maxCookieSize = 4000

// storageClaims wraps one local storage entry. Key binds the token to its cookie.
type storageClaims struct {
	jwt.RegisteredClaims
	Key   string `json:"key"`
	Value string `json:"value"`
}

// cookieStorage is the local storage of one HTTP client: one signed cookie per entry.
// Writes are visible to later reads of the same request.
type cookieStorage struct {
	ctx     echo.Context
	key     []byte
	issuer  string
	secure  bool
	maxAge  time.Duration
	pending map[string]*string // nil value: removed
}

var _ core.LocalStorage = (*cookieStorage)(nil)

func newCookieStorage(ctx echo.Context, conf *core.Config) *cookieStorage {
	return &cookieStorage{
		ctx:     ctx,
		key:     []byte(conf.SecretKey),
		issuer:  conf.AppName,
		secure:  conf.Server.CookieSecure,
		maxAge:  conf.Server.SessionMaxAge,
		pending: make(map[string]*string),
	}
}

// GetItem reads the entry from its cookie. Missing, expired or tampered cookies read as absent.
func (s *cookieStorage) GetItem(key string) (string, bool, error) {
	if val, ok := s.pending[key]; ok {
		if val == nil {
			return "", false, nil
		}
		return *val, true, nil
	}

	cookie, err := s.ctx.Cookie(key)
	if err != nil || cookie.Value == "" {
		return "", false, nil
	}
	val, ok := s.verify(key, cookie.Value)
	return val, ok, nil
}

func (s *cookieStorage) verify(key, token string) (string, bool) {
	claims := new(storageClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || claims.Key != key {
		return "", false
	}
	return claims.Value, true
}

func (s *cookieStorage) sign(key, value string) (string, error) {
	now := time.Now()
	claims := storageClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
		Key:   key,
		Value: value,
	}
	ss, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	return ss, errors.Wrap(err, "signing local storage entry")
}

func (s *cookieStorage) SetItem(key, value string) error {
	token, err := s.sign(key, value)
	if err != nil {
		return err
	}
	if len(key)+len(token) > maxCookieSize {
		return errors.Wrapf(core.ErrStorageFull, "%s: %d bytes", key, len(key)+len(token))
	}
	s.ctx.SetCookie(s.cookie(key, token, int(s.maxAge/time.Second)))
	s.pending[key] = &value
	return nil
}

func (s *cookieStorage) RemoveItem(key string) error {
	s.ctx.SetCookie(s.cookie(key, "", -1))
	s.pending[key] = nil
	return nil
}

func (s *cookieStorage) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
