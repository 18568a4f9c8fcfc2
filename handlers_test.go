package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/thukhadata/creditbook_backend/utils"
	"github.com/gin-gonic/gin"
)

func TestMeHandler_EchoesResolvedIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	ctx := req.Context()
	ctx = utils.SetCompanyIdInContext(ctx, 7)
	ctx = utils.SetUserIdInContext(ctx, 3)
	ctx = utils.SetUserNameInContext(ctx, "Thida")
	ctx = utils.SetIsAdminInContext(ctx, true)
	c.Request = req.WithContext(ctx)

	meHandler(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		CompanyId int    `json:"company_id"`
		UserId    int    `json:"user_id"`
		UserName  string `json:"user_name"`
		IsAdmin   bool   `json:"is_admin"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.CompanyId != 7 || body.UserId != 3 || body.UserName != "Thida" || !body.IsAdmin {
		t.Fatalf("unexpected identity: %+v", body)
	}
}

func TestMeHandler_RejectsUnscopedRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/me", nil)

	meHandler(c)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
