package domain

import "time"

// StudentsCollection is the name of the document collection holding the roster.
const StudentsCollection = "students"

// Student is a single roster entry. Every field except ID and CreatedAt is
// free text; ID is assigned by the store and never changes.
type Student struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	Section    string    `json:"section"`
	RollNumber string    `json:"roll_number"`
	CreatedAt  time.Time `json:"created_at"`
}
