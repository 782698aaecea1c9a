package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"library-catalog/internal/auth"
	"library-catalog/internal/domain"
	"library-catalog/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	books  service.BookService
	tokens *auth.TokenService
}

func NewHandler(users service.UserService, books service.BookService, tokens *auth.TokenService) *Handler {
	return &Handler{
		users:  users,
		books:  books,
		tokens: tokens,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestIDMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}

	protected := router.Group("/", h.requireUser())
	{
		protected.POST("/books", h.createBook)
		protected.GET("/books", h.listBooks)
		protected.GET("/books/:id", h.getBook)
		protected.DELETE("/books/:id", h.deleteBook)
		protected.DELETE("/adminpanel/:user_id", h.deleteUser)
	}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID             int64       `json:"id"`
	Email          string      `json:"email"`
	HashedPassword string      `json:"hashed_password"`
	Role           domain.Role `json:"role"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type createBookRequest struct {
	Title         string `json:"title" binding:"required"`
	Author        string `json:"author" binding:"required"`
	PublishedYear *int   `json:"published_year"`
}

type BookResponse struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	PublishedYear *int   `json:"published_year"`
	OwnerID       int64  `json:"owner_id"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Email already registered"})
			return
		}
		c.JSON(statusForError(err), gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, userResponse{
		ID:             user.ID,
		Email:          user.Email,
		HashedPassword: user.PasswordHash,
		Role:           user.Role,
	})
}

// login accepts form fields username (the email) and password, mirroring the
// OAuth2 password flow request shape.
func (h *Handler) login(c *gin.Context) {
	email := c.PostForm("username")
	password := c.PostForm("password")

	user, err := h.users.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "Incorrect email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	token, err := h.tokens.Issue(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (h *Handler) createBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	book, err := h.books.Create(c.Request.Context(), currentUser(c), req.Title, req.Author, req.PublishedYear)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, bookToResponse(*book))
}

func (h *Handler) listBooks(c *gin.Context) {
	books, err := h.books.ListOwned(c.Request.Context(), currentUser(c))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"detail": err.Error()})
		return
	}

	resp := make([]BookResponse, len(books))
	for i := range books {
		resp[i] = bookToResponse(books[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	book, err := h.books.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, bookToResponse(*book))
}

func (h *Handler) deleteBook(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.books.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		c.JSON(statusForError(err), gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	if err := h.users.DeleteUser(c.Request.Context(), currentUser(c), id); err != nil {
		c.JSON(statusForError(err), gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return 0, false
	}
	return id, true
}

// statusForError maps domain and service errors onto response statuses.
// Generic persistence failures are always 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrDuplicateEmail),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func bookToResponse(book domain.Book) BookResponse {
	return BookResponse{
		ID:            book.ID,
		Title:         book.Title,
		Author:        book.Author,
		PublishedYear: book.PublishedYear,
		OwnerID:       book.OwnerID,
		CreatedAt:     book.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     book.UpdatedAt.Format(time.RFC3339),
	}
}
