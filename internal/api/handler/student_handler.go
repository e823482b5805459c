package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rosterdesk/roster/internal/core/domain"
	"github.com/rosterdesk/roster/internal/core/ports"
	"github.com/rosterdesk/roster/internal/infrastructure/sheet"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxImportBytes = 10 << 20
)

// StudentHandler handles HTTP requests for the students collection.
type StudentHandler struct {
	service ports.StudentService
}

func NewStudentHandler(service ports.StudentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// List handles GET /v1/students.
//
// @Summary      List every student
// @Tags         students
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listStudentsResponse
// @Failure      401  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/students [get]
func (h *StudentHandler) List(c echo.Context) error {
	students, err := h.service.ListStudents(c.Request().Context())
	if err != nil {
		return err
	}
	if students == nil {
		students = []*domain.Student{}
	}
	return c.JSON(http.StatusOK, listStudentsResponse{Data: students})
}

// Create handles POST /v1/students.
//
// @Summary      Add a student
// @Tags         students
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createStudentRequest  true   "Student fields"
// @Success      201              {object}  domain.Student
// @Success      200              {object}  domain.Student
// @Failure      400              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      500              {object}  errorResponse
// @Router       /v1/students [post]
func (h *StudentHandler) Create(c echo.Context) error {
	var req createStudentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}

	result, err := h.service.CreateStudent(c.Request().Context(), ports.CreateStudentInput{
		Name:           req.Name,
		Class:          req.Class,
		Section:        req.Section,
		RollNumber:     req.RollNumber,
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, result.Student)
}

// Delete handles DELETE /v1/students/:id. Removing an unknown id settles
// with 204 as well.
//
// @Summary      Remove a student
// @Tags         students
// @Security     BearerAuth
// @Param        id   path  string  true  "Student id"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /v1/students/{id} [delete]
func (h *StudentHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteStudent(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, domain.ErrInvalidStudentID) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid student id"})
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Export handles GET /v1/students/export.
//
// @Summary      Download the roster
// @Tags         students
// @Produce      text/csv
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        format  query  string  false  "csv (default) or xlsx"
// @Success      200
// @Failure      400  {object}  errorResponse
// @Router       /v1/students/export [get]
func (h *StudentHandler) Export(c echo.Context) error {
	var q exportQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&q); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	students, err := h.service.ListStudents(c.Request().Context())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	filename, contentType := "students.csv", mimeCSV
	if q.Format == "xlsx" {
		filename, contentType = "students.xlsx", mimeXLSX
		err = sheet.WriteXLSX(&buf, students)
	} else {
		err = sheet.WriteCSV(&buf, students)
	}
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// Import handles POST /v1/students/import.
//
// @Summary      Bulk-add students from a spreadsheet
// @Tags         students
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "xlsx workbook: header row, then Name, Class, Section, Roll Number"
// @Success      200   {object}  importResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/students/import [post]
func (h *StudentHandler) Import(c echo.Context) error {
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxImportBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unreadable file"})
	}
	defer f.Close()

	rows, err := sheet.ParseXLSX(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid workbook"})
	}

	result, err := h.service.ImportStudents(c.Request().Context(), rows)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, importResponse{Imported: result.Imported, Failed: result.Failed})
}
