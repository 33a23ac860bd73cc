package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminal-terrace/testmaker/config"
	"terminal-terrace/testmaker/internal/database"
	"terminal-terrace/testmaker/internal/testutils"
)

func TestNew_WiresServices(t *testing.T) {
	conf := config.Default()
	conf.JWT.Secret = "app-test-secret"
	conf.SMTP.Driver = "sendgrid"
	conf.SMTP.SendGridAPIKey = "SG.test"

	a := New(conf, &database.Resources{Store: testutils.NewMemoryStore()}, nil)
	require.NotNil(t, a)
	assert.NotNil(t, a.Users)
	assert.NotNil(t, a.Auth)
	assert.NotNil(t, a.Tasks)
	assert.NotNil(t, a.Answers)
	assert.NotNil(t, a.Codes)
	assert.NotNil(t, a.Sweeper)

	token, err := a.Issuer.Mint(1, "alice", "ADMIN")
	require.NoError(t, err)
	claims, err := a.Issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)

	h := a.Handlers()
	assert.NotNil(t, h.JWTAuth)
	assert.NotNil(t, h.Ping)
	assert.NotNil(t, h.Task)
	assert.NotNil(t, h.Code)
}

func TestHandlers_JWTAuthResolvesIssuedUser(t *testing.T) {
	db := testutils.SetupTestDB(t)
	conf := config.Default()
	conf.JWT.Secret = "app-test-secret"
	a := New(conf, &database.Resources{DB: db, Store: testutils.NewMemoryStore()}, nil)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", a.Handlers().JWTAuth, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(id uint, subject string) int {
		token, err := a.Issuer.Mint(id, subject, "STUDENT")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	u := testutils.CreateTestUser(db)
	assert.Equal(t, http.StatusNoContent, call(u.ID, *u.Username))
	assert.Equal(t, http.StatusUnauthorized, call(u.ID+1000, *u.Username))
	assert.Equal(t, http.StatusUnauthorized, call(u.ID, "nobody"))
}
