package catalog

import (
	"net/http"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
	"github.com/joao-fontenele/bookstore-api/internal/httpx"
)

const defaultBookPageSize = 50

// Handler serves the public, read-only catalog.
type Handler struct {
	books      *BookRepository
	categories *CategoryRepository
}

func NewHandler(books *BookRepository, categories *CategoryRepository) *Handler {
	return &Handler{
		books:      books,
		categories: categories,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.BookFilter{
		Search:     q.Get("search"),
		Category:   q.Get("category"),
		Author:     q.Get("author"),
		Publisher:  q.Get("publisher"),
		Sort:       domain.BookSort(q.Get("sort")),
		ActiveOnly: true,
		Page:       httpx.PageFromQuery(r, defaultBookPageSize),
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

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	book, err := h.books.GetByID(r.Context(), id)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching book")
		return
	}
	if book == nil {
		httpx.Fail(w, r, domain.NewNotFound("book"), "Error fetching book")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"book": book})
}

func (h *Handler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.categories.List(ctx)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching filters")
		return
	}
	authors, err := h.books.Distinct(ctx, "author")
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching filters")
		return
	}
	publishers, err := h.books.Distinct(ctx, "publisher")
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching filters")
		return
	}

	httpx.OK(w, r, http.StatusOK, httpx.Envelope{
		"filters": map[string]any{
			"categories": categories,
			"authors":    authors,
			"publishers": publishers,
		},
	})
}

func (h *Handler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching categories")
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{"categories": categories})
}

func (h *Handler) HandleAuthors(w http.ResponseWriter, r *http.Request) {
	h.handleDistinct(w, r, "author", "authors")
}

func (h *Handler) HandlePublishers(w http.ResponseWriter, r *http.Request) {
	h.handleDistinct(w, r, "publisher", "publishers")
}

func (h *Handler) handleDistinct(w http.ResponseWriter, r *http.Request, column, key string) {
	values, err := h.books.Distinct(r.Context(), column)
	if err != nil {
		httpx.Fail(w, r, err, "Error fetching "+key)
		return
	}
	httpx.OK(w, r, http.StatusOK, httpx.Envelope{key: values})
}

// Register mounts the catalog routes under /api/books.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/books", wrap(h.HandleList))
	mux.HandleFunc("GET /api/books/filters", wrap(h.HandleFilters))
	mux.HandleFunc("GET /api/books/categories", wrap(h.HandleCategories))
	mux.HandleFunc("GET /api/books/authors", wrap(h.HandleAuthors))
	mux.HandleFunc("GET /api/books/publishers", wrap(h.HandlePublishers))
	mux.HandleFunc("GET /api/books/{id}", wrap(h.HandleGet))
}
