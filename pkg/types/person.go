package types

// Person is a traveller who takes part in trips.
type Person struct {
	ID   int64  `json:"id"`   // Assigned by the store on insert.
	Name string `json:"name"` // Unique, non-empty.
}
