package auth

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "civitas/pkg/domain-errors"
	"civitas/pkg/requestcontext"
)

const testKey = "test-signing-key"

func TestHS256Validator(t *testing.T) {
	v := NewHS256Validator(testKey, "civitas")

	t.Run("round trip", func(t *testing.T) {
		token, err := v.IssueToken("king", time.Minute)
		require.NoError(t, err)

		claims, err := v.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "king", claims.Actor())
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := v.IssueToken("king", -time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := NewHS256Validator("other-key", "civitas").IssueToken("king", time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := NewHS256Validator(testKey, "elsewhere").IssueToken("king", time.Minute)
		require.NoError(t, err)

		_, err = v.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("rejects none algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "king", Issuer: "civitas"},
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.ValidateToken(signed)
		assert.Error(t, err)
	})

	t.Run("user_id claim when subject is empty", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			ActorID: "duke",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "civitas",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		})
		signed, err := token.SignedString([]byte(testKey))
		require.NoError(t, err)

		claims, err := v.ValidateToken(signed)
		require.NoError(t, err)
		assert.Equal(t, "duke", claims.Actor())
	})
}

func TestRequireAuth(t *testing.T) {
	v := NewHS256Validator(testKey, "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var actor string
	h := RequireAuth(v, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = requestcontext.ActorID(r.Context()).String()
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("valid token sets actor", func(t *testing.T) {
		token, err := v.IssueToken("baron", time.Minute)
		require.NoError(t, err)

		rec := serve("Bearer " + token)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "baron", actor)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := serve("")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("Basic abc").Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer not-a-jwt").Code)
	})

	t.Run("empty subject", func(t *testing.T) {
		token, err := v.IssueToken("", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, serve("Bearer "+token).Code)
	})
}
