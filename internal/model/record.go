package model

// Record carries the fields a backend assigns on save. A zero ID means the
// entity has never been persisted.
type Record struct {
	ID        string `json:"id"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// EntityID returns the backend-assigned identifier.
func (r Record) EntityID() string { return r.ID }

// Option is a label/value pair used by pickers.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
