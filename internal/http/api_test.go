package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"library-catalog/internal/auth"
	apphttp "library-catalog/internal/http"
	"library-catalog/internal/repository/sqlite"
	"library-catalog/internal/service"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T, adminEmails ...string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	bookRepo := sqlite.NewBookRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		t.Fatalf("init users: %v", err)
	}
	if err := bookRepo.Init(ctx); err != nil {
		t.Fatalf("init books: %v", err)
	}

	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	router := gin.New()
	handler := apphttp.NewHandler(
		service.NewUserService(userRepo, adminEmails),
		service.NewBookService(bookRepo),
		tokens,
	)
	handler.RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func registerUser(t *testing.T, router *gin.Engine, email, password string) map[string]any {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": password})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rr.Code, rr.Body.String())
	}
	var resp map[string]any
	decode(t, rr, &resp)
	return resp
}

func loginUser(t *testing.T, router *gin.Engine, email, password string) string {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", email, rr.Code, rr.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decode(t, rr, &resp)
	if resp.TokenType != "bearer" {
		t.Fatalf("want token_type bearer, got %q", resp.TokenType)
	}
	if resp.AccessToken == "" {
		t.Fatal("empty access token")
	}
	return resp.AccessToken
}

func createBook(t *testing.T, router *gin.Engine, token, title string) apphttp.BookResponse {
	t.Helper()
	rr := doJSON(t, router, http.MethodPost, "/books", token, gin.H{"title": title, "author": "Author", "published_year": 2000})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create book: status %d body %s", rr.Code, rr.Body.String())
	}
	var book apphttp.BookResponse
	decode(t, rr, &book)
	return book
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	resp := registerUser(t, router, "a@x.com", "pw1")
	if resp["email"] != "a@x.com" {
		t.Fatalf("unexpected email: %v", resp["email"])
	}
	if resp["role"] != "USER" {
		t.Fatalf("unexpected role: %v", resp["role"])
	}
	if resp["id"] == nil || resp["hashed_password"] == "" {
		t.Fatalf("missing fields: %v", resp)
	}
	if resp["hashed_password"] == "pw1" {
		t.Fatal("plaintext password in response")
	}

	rr := doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{"email": "a@x.com", "password": "other"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: want 400, got %d", rr.Code)
	}
	var errResp map[string]string
	decode(t, rr, &errResp)
	if errResp["detail"] != "Email already registered" {
		t.Fatalf("unexpected detail: %q", errResp["detail"])
	}

	rr = doJSON(t, router, http.MethodPost, "/auth/register", "", gin.H{"email": "b@x.com"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing password: want 400, got %d", rr.Code)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "a@x.com", "pw1")

	form := url.Values{"username": {"a@x.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", rr.Code)
	}
}

func TestBooksFlow(t *testing.T) {
	router := newTestRouter(t)

	registerUser(t, router, "a@x.com", "pw1")
	tokenA := loginUser(t, router, "a@x.com", "pw1")

	book := createBook(t, router, tokenA, "Dune")

	rr := doJSON(t, router, http.MethodGet, "/books", tokenA, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
	var listA []apphttp.BookResponse
	decode(t, rr, &listA)
	if len(listA) != 1 || listA[0].ID != book.ID || listA[0].Title != "Dune" {
		t.Fatalf("unexpected list: %+v", listA)
	}

	// A second user never sees the first user's books.
	registerUser(t, router, "b@x.com", "pw2")
	tokenB := loginUser(t, router, "b@x.com", "pw2")
	createBook(t, router, tokenB, "Solaris")

	rr = doJSON(t, router, http.MethodGet, "/books", tokenB, nil)
	var listB []apphttp.BookResponse
	decode(t, rr, &listB)
	if len(listB) != 1 || listB[0].Title != "Solaris" {
		t.Fatalf("list leaked foreign books: %+v", listB)
	}
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	rr := doJSON(t, router, http.MethodGet, "/books", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want 401, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/books", "garbage", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: want 401, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/books", http.NoBody)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("non-bearer scheme: want 401, got %d", rec.Code)
	}

	// A valid signature for a subject that does not exist is still a 401.
	tokens, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	ghost, err := tokens.Issue("ghost@x.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rr = doJSON(t, router, http.MethodGet, "/books", ghost, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown subject: want 401, got %d", rr.Code)
	}
}

func TestGetBookByIDAdminOnly(t *testing.T) {
	router := newTestRouter(t, "admin@x.com")

	registerUser(t, router, "admin@x.com", "pw1")
	registerUser(t, router, "a@x.com", "pw1")
	adminToken := loginUser(t, router, "admin@x.com", "pw1")
	ownerToken := loginUser(t, router, "a@x.com", "pw1")

	book := createBook(t, router, ownerToken, "Dune")
	path := fmt.Sprintf("/books/%d", book.ID)

	rr := doJSON(t, router, http.MethodGet, path, ownerToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("owner get: want 403, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, path, adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin get: want 200, got %d body %s", rr.Code, rr.Body.String())
	}
	var got apphttp.BookResponse
	decode(t, rr, &got)
	if got.ID != book.ID {
		t.Fatalf("unexpected book: %+v", got)
	}

	rr = doJSON(t, router, http.MethodGet, "/books/9999", adminToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("missing book: want 404, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodGet, "/books/abc", adminToken, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad id: want 400, got %d", rr.Code)
	}
}

func TestDeleteBookOwnerOnly(t *testing.T) {
	router := newTestRouter(t, "admin@x.com")

	registerUser(t, router, "admin@x.com", "pw1")
	registerUser(t, router, "a@x.com", "pw1")
	registerUser(t, router, "b@x.com", "pw1")
	adminToken := loginUser(t, router, "admin@x.com", "pw1")
	ownerToken := loginUser(t, router, "a@x.com", "pw1")
	otherToken := loginUser(t, router, "b@x.com", "pw1")

	book := createBook(t, router, ownerToken, "Dune")
	path := fmt.Sprintf("/books/%d", book.ID)

	rr := doJSON(t, router, http.MethodDelete, path, otherToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: want 403, got %d", rr.Code)
	}
	rr = doJSON(t, router, http.MethodDelete, path, adminToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("admin delete: want 403, got %d", rr.Code)
	}

	// Denied deletes left the book behind.
	rr = doJSON(t, router, http.MethodGet, path, adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("book gone after denied deletes: %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodDelete, path, ownerToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("owner delete: want 200, got %d body %s", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	decode(t, rr, &resp)
	if resp["success"] != true {
		t.Fatalf("want success true, got %v", resp)
	}

	rr = doJSON(t, router, http.MethodDelete, path, ownerToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: want 404, got %d", rr.Code)
	}
}

func TestAdminPanelDeleteUser(t *testing.T) {
	router := newTestRouter(t, "admin@x.com")

	registerUser(t, router, "admin@x.com", "pw1")
	victim := registerUser(t, router, "a@x.com", "pw1")
	adminToken := loginUser(t, router, "admin@x.com", "pw1")
	victimToken := loginUser(t, router, "a@x.com", "pw1")

	book := createBook(t, router, victimToken, "Doomed")
	victimID := int64(victim["id"].(float64))
	path := fmt.Sprintf("/adminpanel/%d", victimID)

	rr := doJSON(t, router, http.MethodDelete, path, victimToken, nil)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-admin: want 403, got %d", rr.Code)
	}

	// A missing target is 404 even for a non-admin caller.
	rr = doJSON(t, router, http.MethodDelete, "/adminpanel/9999", victimToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("non-admin, missing target: want 404, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodDelete, path, adminToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin delete user: want 200, got %d body %s", rr.Code, rr.Body.String())
	}

	// Cascade removed the victim's book...
	rr = doJSON(t, router, http.MethodGet, fmt.Sprintf("/books/%d", book.ID), adminToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("book survived cascade: %d", rr.Code)
	}
	// ...and the victim's token no longer resolves to a user.
	rr = doJSON(t, router, http.MethodGet, "/books", victimToken, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("deleted user token: want 401, got %d", rr.Code)
	}

	rr = doJSON(t, router, http.MethodDelete, path, adminToken, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("delete missing user: want 404, got %d", rr.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rr := doJSON(t, router, http.MethodGet, "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("health: want 200, got %d", rr.Code)
	}
}
