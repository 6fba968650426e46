package account

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"filevault/internal/objects"
	"filevault/internal/shared/auth"
	"filevault/internal/shared/server/middleware"
)

type stubPurger struct {
	result objects.PurgeResult
	err    error
	calls  []string
}

func (s *stubPurger) PurgeOwner(ctx context.Context, owner string) (objects.PurgeResult, error) {
	s.calls = append(s.calls, owner)
	return s.result, s.err
}

func newValidator(t *testing.T) *auth.Validator {
	t.Helper()
	v, err := auth.NewValidator([]byte("test-secret"), "")
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	return v
}

type testRouter struct {
	engine *gin.Engine
	token  string
}

func newRouter(t *testing.T, purger Purger, subject string) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)
	v := newValidator(t)
	token, err := v.Issue(subject, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	engine := gin.New()
	api := engine.Group("/api/v1", middleware.Auth(v))
	NewHandler(NewService(purger), v).RegisterRoutes(api)
	return &testRouter{engine: engine, token: token}
}

func post(router *testRouter, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/accounts/delete", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+router.token)
	resp := httptest.NewRecorder()
	router.engine.ServeHTTP(resp, req)
	return resp
}

func TestRemoveAccountPurgesOwner(t *testing.T) {
	purger := &stubPurger{result: objects.PurgeResult{Owner: "a@x.com", Deleted: 3}}
	router := newRouter(t, purger, auth.DefaultAdminSubject)

	resp := post(router, `{"subject":"a@x.com"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var result RemovalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Owner != "a@x.com" || result.Deleted != 3 || result.FailedIDs == nil || len(result.FailedIDs) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(purger.calls) != 1 || purger.calls[0] != "a@x.com" {
		t.Fatalf("unexpected purge calls %v", purger.calls)
	}
}

func TestRemoveAccountPartialFailure(t *testing.T) {
	purger := &stubPurger{result: objects.PurgeResult{Owner: "a@x.com", Deleted: 1, Failed: []string{"obj-2"}}}
	router := newRouter(t, purger, auth.DefaultAdminSubject)

	resp := post(router, `{"subject":"a@x.com"}`)
	if resp.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", resp.Code)
	}
	if !bytes.Contains(resp.Body.Bytes(), []byte(`"failedIds":["obj-2"]`)) {
		t.Fatalf("expected failed ids in body: %s", resp.Body.String())
	}
}

func TestRemoveAccountRequiresAdmin(t *testing.T) {
	purger := &stubPurger{}
	router := newRouter(t, purger, "a@x.com")

	resp := post(router, `{"subject":"a@x.com"}`)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if len(purger.calls) != 0 {
		t.Fatalf("purge must not run for non-admins")
	}
}

func TestRemoveAccountValidation(t *testing.T) {
	router := newRouter(t, &stubPurger{}, auth.DefaultAdminSubject)
	for _, body := range []string{`not json`, `{"subject":"  "}`} {
		if resp := post(router, body); resp.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.Code)
		}
	}
}

func TestRemoveAccountStorageFailure(t *testing.T) {
	router := newRouter(t, &stubPurger{err: errors.New("db offline")}, auth.DefaultAdminSubject)
	if resp := post(router, `{"subject":"a@x.com"}`); resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestRemoveAccountRejectsInvalidToken(t *testing.T) {
	purger := &stubPurger{}
	router := newRouter(t, purger, auth.DefaultAdminSubject)
	router.token = "not-a-jwt"

	if resp := post(router, `{"subject":"a@x.com"}`); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if len(purger.calls) != 0 {
		t.Fatalf("purge must not run without a valid token")
	}
}
