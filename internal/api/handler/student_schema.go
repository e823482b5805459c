package handler

import "github.com/rosterdesk/roster/internal/core/domain"

// createStudentRequest carries free text; fields are deliberately not validated.
type createStudentRequest struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	Section    string `json:"section"`
	RollNumber string `json:"roll_number"`
}

type listStudentsResponse struct {
	Data []*domain.Student `json:"data"`
}

type exportQuery struct {
	Format string `query:"format" validate:"omitempty,oneof=csv xlsx"`
}

type importResponse struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}
