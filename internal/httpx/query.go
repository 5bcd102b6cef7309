package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/joao-fontenele/bookstore-api/internal/domain"
)

// PageFromQuery reads ?page=&limit= with the given default limit.
func PageFromQuery(r *http.Request, defaultLimit int) domain.Page {
	q := r.URL.Query()
	return domain.NewPage(atoi(q.Get("page")), atoi(q.Get("limit")), defaultLimit)
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
