package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/auth"
	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
	"github.com/joao-fontenele/bookstore-api/internal/orders"
)

const defaultAdminPageSize = 20

type BookStore interface {
	List(ctx context.Context, f domain.BookFilter) ([]domain.Book, int, error)
	Create(ctx context.Context, b *domain.Book) error
	Update(ctx context.Context, isbn string, patch domain.BookPatch) (*domain.Book, error)
	Delete(ctx context.Context, isbn string) (*domain.Book, error)
	Count(ctx context.Context) (int, error)
	TopReviewed(ctx context.Context, limit int) ([]domain.Book, error)
	Taxonomy(ctx context.Context, column string) ([]domain.TaxonomyEntry, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]domain.Category, error)
	Create(ctx context.Context, c *domain.Category) error
	Update(ctx context.Context, slug string, name, description *string) (*domain.Category, error)
	Delete(ctx context.Context, slug string) (bool, error)
}

type UserStore interface {
	List(ctx context.Context, f domain.UserFilter) ([]domain.User, int, error)
	UpdateAccess(ctx context.Context, id string, role *domain.Role, isActive *bool) (*domain.User, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountByRole(ctx context.Context, role domain.Role) (int, error)
}

type OrderService interface {
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int, error)
	GetAny(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, u orders.StatusUpdate) (*domain.Order, error)
}

type ReviewService interface {
	List(ctx context.Context, page domain.Page) ([]domain.Review, int, error)
	DeleteAny(ctx context.Context, id string) error
}

// Handler is the back-office API. Every route requires the admin role.
type Handler struct {
	books      BookStore
	categories CategoryStore
	users      UserStore
	orders     OrderService
	ledger     OrderLedger
	reviews    ReviewService
}

type Deps struct {
	Books      BookStore
	Categories CategoryStore
	Users      UserStore
	Orders     OrderService
	Ledger     OrderLedger
	Reviews    ReviewService
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		books:      d.Books,
		categories: d.Categories,
		users:      d.Users,
		orders:     d.Orders,
		ledger:     d.Ledger,
		reviews:    d.Reviews,
	}
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collectStats(r.Context())
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching stats")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"stats": stats})
}

// Books

func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.BookFilter{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		MatchISBN: true,
		Page:      httpx.PageFromQuery(r, defaultAdminPageSize),
	}

	books, total, err := h.books.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching books")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"books":      books,
		"pagination": filter.Page.Paginate(total),
	})
}

type createBookRequest struct {
	domain.Book
	IsActive *bool `json:"isActive"`
}

func (h *Handler) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error creating book")
		return
	}

	book := req.Book
	book.IsActive = req.IsActive == nil || *req.IsActive
	book.Rating, book.ReviewCount = 0, 0
	book.ApplyDefaults()
	if err := book.Validate(); err != nil {
		httpx.Fail(w, r, err, "Error creating book")
		return
	}
	if err := h.books.Create(r.Context(), &book); err != nil {
		httpx.Fail(w, r, err, "Error creating book")
		return
	}

	httpx.Logger(r.Context()).Info("book created", "book_id", book.ID, "isbn", book.ISBN)
	httpx.OK(w, r, http.StatusCreated, httpx.Envelope{
		"message": "Book created successfully",
		"book":    book,
	})
}

func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var patch domain.BookPatch
	if err := httpx.Decode(r, &patch); err != nil {
		httpx.Fail(w, r, err, "Error updating book")
		return
	}

	book, err := h.books.Update(r.Context(), r.PathValue("isbn"), patch)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating book")
		return
	}
	if book == nil {
		httpx.Fail(w, r, domain.NewNotFound("book"), "Error updating book")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Book updated successfully",
		"book":    book,
	})
}

func (h *Handler) HandleDeleteBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.books.Delete(r.Context(), r.PathValue("isbn"))
	if err != nil {
		httpx.Fail(w, r, err, "Error deleting book")
		return
	}
	if book == nil {
		httpx.Fail(w, r, domain.NewNotFound("book"), "Error deleting book")
		return
	}

	httpx.Logger(r.Context()).Info("book deleted", "book_id", book.ID, "isbn", book.ISBN)
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Book deleted successfully"})
}

// Users

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	filter := domain.UserFilter{
		Search: r.URL.Query().Get("search"),
		Page:   httpx.PageFromQuery(r, defaultAdminPageSize),
	}

	users, total, err := h.users.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching users")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"users":      users,
		"pagination": filter.Page.Paginate(total),
	})
}

type updateUserRequest struct {
	Role     *domain.Role `json:"role"`
	IsActive *bool        `json:"isActive"`
}

func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error updating user")
		return
	}
	if req.Role != nil && *req.Role == "" {
		req.Role = nil
	}
	if req.Role != nil && !req.Role.Valid() {
		httpx.Fail(w, r, domain.Invalid("role", "Role must be user or admin"), "Error updating user")
		return
	}

	user, err := h.users.UpdateAccess(r.Context(), r.PathValue("id"), req.Role, req.IsActive)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating user")
		return
	}
	if user == nil {
		httpx.Fail(w, r, domain.NewNotFound("user"), "Error updating user")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if current, _ := auth.UserFrom(r.Context()); current != nil && current.ID == id {
		httpx.Fail(w, r, domain.Invalid("id", "You cannot delete your own account"), "Error deleting user")
		return
	}

	deleted, err := h.users.Delete(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, err, "Error deleting user")
		return
	}
	if !deleted {
		httpx.Fail(w, r, domain.NewNotFound("user"), "Error deleting user")
		return
	}

	httpx.Logger(r.Context()).Info("user deleted", "deleted_user_id", id)
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "User deleted successfully"})
}

// Orders

func (h *Handler) HandleListOrders(w http.ResponseWriter, r *http.Request) {
	filter := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Page:   httpx.PageFromQuery(r, defaultAdminPageSize),
	}

	list, total, err := h.orders.List(r.Context(), filter)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching orders")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"orders":     list,
		"pagination": filter.Page.Paginate(total),
	})
}

func (h *Handler) HandleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetAny(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching order")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"order": order})
}

func (h *Handler) HandleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orders.StatusUpdate
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error updating order")
		return
	}
	if req.Status != nil && *req.Status == "" {
		req.Status = nil
	}
	if req.PaymentStatus != nil && *req.PaymentStatus == "" {
		req.PaymentStatus = nil
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("id"), req)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating order")
		return
	}

	httpx.Logger(r.Context()).Info("order updated", "order_id", order.ID, "status", order.Status)
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message": "Order updated successfully",
		"order":   order,
	})
}

// Categories

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching categories")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"categories": categories})
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var category domain.Category
	if err := httpx.Decode(r, &category); err != nil {
		httpx.Fail(w, r, err, "Error creating category")
		return
	}
	category.BookCount = 0
	category.Normalize()
	if err := category.Validate(); err != nil {
		httpx.Fail(w, r, err, "Error creating category")
		return
	}
	if err := h.categories.Create(r.Context(), &category); err != nil {
		httpx.Fail(w, r, err, "Error creating category")
		return
	}

	httpx.OK(w, r, http.StatusCreated, httpx.Envelope{
		"message":  "Category created successfully",
		"category": category,
	})
}

type updateCategoryRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req updateCategoryRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Fail(w, r, err, "Error updating category")
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}

	category, err := h.categories.Update(r.Context(), r.PathValue("slug"), req.Name, req.Description)
	if err != nil {
		httpx.Fail(w, r, err, "Error updating category")
		return
	}
	if category == nil {
		httpx.Fail(w, r, domain.NewNotFound("category"), "Error updating category")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"message":  "Category updated successfully",
		"category": category,
	})
}

func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.categories.Delete(r.Context(), r.PathValue("slug"))
	if err != nil {
		httpx.Fail(w, r, err, "Error deleting category")
		return
	}
	if !deleted {
		httpx.Fail(w, r, domain.NewNotFound("category"), "Error deleting category")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Category deleted successfully"})
}

// Authors and publishers

func (h *Handler) HandleAuthors(w http.ResponseWriter, r *http.Request) {
	h.handleTaxonomy(w, r, "author", "authors")
}

func (h *Handler) HandlePublishers(w http.ResponseWriter, r *http.Request) {
	h.handleTaxonomy(w, r, "publisher", "publishers")
}

func (h *Handler) handleTaxonomy(w http.ResponseWriter, r *http.Request, column, key string) {
	entries, err := h.books.Taxonomy(r.Context(), column)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching "+key)
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{key: entries})
}

// Reviews

func (h *Handler) HandleListReviews(w http.ResponseWriter, r *http.Request) {
	page := httpx.PageFromQuery(r, defaultAdminPageSize)
	reviews, total, err := h.reviews.List(r.Context(), page)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching reviews")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"reviews":    reviews,
		"pagination": page.Paginate(total),
	})
}

func (h *Handler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviews.DeleteAny(r.Context(), r.PathValue("id")); err != nil {
		httpx.Fail(w, r, err, "Error deleting review")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"message": "Review deleted successfully"})
}

// Register mounts the back-office under /api/admin behind RequireAdmin.
// Orders have no delete route: the ledger is append-only.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc, mw *auth.Middleware) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, wrap(mw.RequireAdmin(fn)))
	}

	route("GET /api/admin/stats", h.HandleStats)

	route("GET /api/admin/books", h.HandleListBooks)
	route("POST /api/admin/books", h.HandleCreateBook)
	route("PUT /api/admin/books/{isbn}", h.HandleUpdateBook)
	route("DELETE /api/admin/books/{isbn}", h.HandleDeleteBook)

	route("GET /api/admin/users", h.HandleListUsers)
	route("PUT /api/admin/users/{id}", h.HandleUpdateUser)
	route("DELETE /api/admin/users/{id}", h.HandleDeleteUser)

	route("GET /api/admin/orders", h.HandleListOrders)
	route("GET /api/admin/orders/{id}", h.HandleGetOrder)
	route("PUT /api/admin/orders/{id}", h.HandleUpdateOrder)

	route("GET /api/admin/categories", h.HandleListCategories)
	route("POST /api/admin/categories", h.HandleCreateCategory)
	route("PUT /api/admin/categories/{slug}", h.HandleUpdateCategory)
	route("DELETE /api/admin/categories/{slug}", h.HandleDeleteCategory)

	route("GET /api/admin/authors", h.HandleAuthors)
	route("GET /api/admin/publishers", h.HandlePublishers)

	route("GET /api/admin/reviews", h.HandleListReviews)
	route("DELETE /api/admin/reviews/{id}", h.HandleDeleteReview)
}
