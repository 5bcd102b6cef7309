package domain

// TaxonomyEntry summarises the books grouped under one author or publisher.
type TaxonomyEntry struct {
	Name       string `json:"name"`
	BookCount  int    `json:"bookCount"`
	TotalStock int    `json:"totalStock"`
}
