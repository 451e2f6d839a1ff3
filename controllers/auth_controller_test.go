package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"golang.org/x/crypto/bcrypt"

	config "github.com/phillip/event-manager-go/config"
	utils "github.com/phillip/event-manager-go/utils"
)

func newAuthRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/auth/login", Login(cfg))
	r.POST("/api/auth/register", Register(cfg))
	r.POST("/api/auth/refresh", RefreshToken(cfg))
	return r
}

func userDoc(t *testing.T, id primitive.ObjectID, email, password string) bson.D {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Jane"},
		{Key: "email", Value: email},
		{Key: "password", Value: string(hash)},
		{Key: "role", Value: "user"},
		{Key: "created_at", Value: primitive.NewDateTimeFromTime(time.Now())},
		{Key: "updated_at", Value: primitive.NewDateTimeFromTime(time.Now())},
	}
}

func TestLogin(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock).DatabaseName(testDB))

	userID := primitive.NewObjectID()

	mt.Run("valid credentials return a token and the user", func(mt *mtest.T) {
		cfg := &config.Config{
			MongoClient:     mt.Client,
			DBName:          testDB,
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: time.Hour,
		}
		r := newAuthRouter(cfg)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch,
				userDoc(mt.T, userID, "jane@example.com", "password123")),
		)

		body := `{"email":"jane@example.com","password":"password123"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusOK, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), `"token"`)
		assert.Contains(mt.T, rec.Body.String(), `"refresh_token"`)
		assert.Contains(mt.T, rec.Body.String(), `"jane@example.com"`)
		// the hash never leaves the server
		assert.NotContains(mt.T, rec.Body.String(), "password")
	})

	mt.Run("wrong password is rejected", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: testDB, JWTSecret: "test-secret"}
		r := newAuthRouter(cfg)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch,
				userDoc(mt.T, userID, "jane@example.com", "password123")),
		)

		body := `{"email":"jane@example.com","password":"wrong"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusUnauthorized, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), "Invalid credentials")
	})

	mt.Run("unknown email is rejected with the same message", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: testDB, JWTSecret: "test-secret"}
		r := newAuthRouter(cfg)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch),
		)

		body := `{"email":"nobody@example.com","password":"password123"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusUnauthorized, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), "Invalid credentials")
	})

	mt.Run("malformed body is a 400", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: testDB, JWTSecret: "test-secret"}
		r := newAuthRouter(cfg)

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"no"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusBadRequest, rec.Code)
	})
}

func TestRefreshToken(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock).DatabaseName(testDB))

	userID := primitive.NewObjectID()

	mt.Run("a refresh token yields a fresh access token", func(mt *mtest.T) {
		cfg := &config.Config{
			MongoClient:     mt.Client,
			DBName:          testDB,
			JWTSecret:       "test-secret",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: time.Hour,
		}
		r := newAuthRouter(cfg)

		refresh, err := utils.GenerateRefreshToken(cfg.JWTSecret, userID.Hex(), cfg.RefreshTokenTTL)
		require.NoError(mt.T, err)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch,
				userDoc(mt.T, userID, "jane@example.com", "password123")),
		)

		body := `{"refresh_token":"` + refresh + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusOK, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), `"token"`)
	})

	mt.Run("an access token is not accepted as a refresh token", func(mt *mtest.T) {
		cfg := &config.Config{
			MongoClient:    mt.Client,
			DBName:         testDB,
			JWTSecret:      "test-secret",
			AccessTokenTTL: time.Hour,
		}
		r := newAuthRouter(cfg)

		access, err := utils.GenerateToken(cfg.JWTSecret, userID.Hex(), "jane@example.com", "user", cfg.AccessTokenTTL)
		require.NoError(mt.T, err)

		body := `{"refresh_token":"` + access + `"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusUnauthorized, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), "Invalid refresh token")
	})
}

func TestRegister(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock).DatabaseName(testDB))

	mt.Run("new account returns 201 with a token", func(mt *mtest.T) {
		cfg := &config.Config{
			MongoClient:    mt.Client,
			DBName:         testDB,
			JWTSecret:      "test-secret",
			AccessTokenTTL: time.Hour,
		}
		r := newAuthRouter(cfg)

		mt.AddMockResponses(
			// no user with this email yet
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		body := `{"name":"Jane","email":"Jane@Example.com","password":"password123"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusCreated, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), `"token"`)
		// email is normalized to lower case
		assert.Contains(mt.T, rec.Body.String(), `"jane@example.com"`)
	})

	mt.Run("duplicate email is rejected", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: testDB, JWTSecret: "test-secret"}
		r := newAuthRouter(cfg)

		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, testDB+".users", mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
		)

		body := `{"name":"Jane","email":"jane@example.com","password":"password123"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusBadRequest, rec.Code)
		assert.Contains(mt.T, rec.Body.String(), "Email already registered")
	})

	mt.Run("short password is rejected before any database call", func(mt *mtest.T) {
		cfg := &config.Config{MongoClient: mt.Client, DBName: testDB, JWTSecret: "test-secret"}
		r := newAuthRouter(cfg)

		body := `{"name":"Jane","email":"jane@example.com","password":"123"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(mt.T, http.StatusBadRequest, rec.Code)
	})
}
