package domain

// Author is a writer referenced by one or more books.
// Authors are created implicitly the first time a book names them.
type Author struct {
	Record
	Name      string `json:"name"`
	Born      *int   `json:"born,omitempty"`
	BookCount int    `json:"book_count"`
}

// SetBorn sets the birth year and touches the record.
func (a *Author) SetBorn(year int) {
	a.Born = &year
	a.Touch()
}
