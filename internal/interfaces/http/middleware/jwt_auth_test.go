package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrasec/sentra/internal/application/service"
	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authEngine(t *testing.T, extra ...gin.HandlerFunc) (*gin.Engine, *service.Caller) {
	t.Helper()

	var seen service.Caller
	engine := gin.New()
	chain := []gin.HandlerFunc{RequireJWT(&config.AuthConfig{JWTSecret: testSecret, Issuer: "sentra-idp"}, logger.NewNoopLogger())}
	chain = append(chain, extra...)
	chain = append(chain, func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		require.True(t, ok)
		seen = caller
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	engine.GET("/protected", chain...)
	return engine, &seen
}

func performAuth(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder
}

func TestRequireJWT_ValidToken(t *testing.T) {
	engine, seen := authEngine(t)
	userID, orgID := uuid.New(), uuid.New()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  userID.String(),
		"org":  orgID.String(),
		"role": "security_analyst",
		"iss":  "sentra-idp",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	recorder := performAuth(engine, token)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, userID, seen.UserID)
	assert.Equal(t, orgID, seen.OrganizationID)
	assert.Equal(t, constants.RoleSecurityAnalyst, seen.Role)
}

func TestRequireJWT_DefaultsToEmployeeRole(t *testing.T) {
	engine, seen := authEngine(t)

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": uuid.New().String(),
		"org": uuid.New().String(),
		"iss": "sentra-idp",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	recorder := performAuth(engine, token)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, constants.RoleEmployee, seen.Role)
}

func TestRequireJWT_Rejections(t *testing.T) {
	engine, _ := authEngine(t)

	t.Run("missing token", func(t *testing.T) {
		recorder := performAuth(engine, "")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "some-other-secret", jwt.MapClaims{
			"sub": uuid.New().String(),
			"org": uuid.New().String(),
			"iss": "sentra-idp",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		recorder := performAuth(engine, token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("expired", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": uuid.New().String(),
			"org": uuid.New().String(),
			"iss": "sentra-idp",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		recorder := performAuth(engine, token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": uuid.New().String(),
			"org": uuid.New().String(),
			"iss": "someone-else",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		recorder := performAuth(engine, token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("malformed subject", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"sub": "not-a-uuid",
			"org": uuid.New().String(),
			"iss": "sentra-idp",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		recorder := performAuth(engine, token)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequireElevated(t *testing.T) {
	engine, _ := authEngine(t, RequireElevated())

	employee := signToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"org":  uuid.New().String(),
		"role": "employee",
		"iss":  "sentra-idp",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	recorder := performAuth(engine, employee)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	admin := signToken(t, testSecret, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"org":  uuid.New().String(),
		"role": "admin",
		"iss":  "sentra-idp",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	recorder = performAuth(engine, admin)
	assert.Equal(t, http.StatusOK, recorder.Code)
}
