package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/rosterdesk/roster/internal/console"
	"github.com/rosterdesk/roster/internal/core/domain"
)

// TokenSource supplies the bearer token for each call. *console.Gate is one.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource for a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Students is the console.DocumentStore backed by /v1/students.
type Students struct {
	c      *Client
	tokens TokenSource
}

func NewStudents(c *Client, tokens TokenSource) *Students {
	return &Students{c: c, tokens: tokens}
}

type createStudentRequest struct {
	Name       string `json:"name"`
	Class      string `json:"class"`
	Section    string `json:"section"`
	RollNumber string `json:"roll_number"`
}

type listStudentsResponse struct {
	Data []domain.Student `json:"data"`
}

// ImportResult mirrors the server's import summary.
type ImportResult struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

func (s *Students) ListAll(ctx context.Context) ([]domain.Student, error) {
	var resp listStudentsResponse
	if err := s.c.doJSON(ctx, http.MethodGet, "/v1/students", s.tokens.Token(), nil, &resp, nil); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Insert creates a student. Calls without an idempotency key get a fresh one.
func (s *Students) Insert(ctx context.Context, fields console.StudentFields) (domain.Student, error) {
	key := fields.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	var created domain.Student
	header := http.Header{"Idempotency-Key": []string{key}}
	err := s.c.doJSON(ctx, http.MethodPost, "/v1/students", s.tokens.Token(), createStudentRequest{
		Name:       fields.Name,
		Class:      fields.Class,
		Section:    fields.Section,
		RollNumber: fields.RollNumber,
	}, &created, header)
	return created, err
}

func (s *Students) RemoveByID(ctx context.Context, id string) error {
	return s.c.doJSON(ctx, http.MethodDelete, "/v1/students/"+url.PathEscape(id), s.tokens.Token(), nil, nil, nil)
}

// Export streams the roster in format ("csv" or "xlsx") to w.
func (s *Students) Export(ctx context.Context, format string, w io.Writer) error {
	req, err := s.c.newRequest(ctx, http.MethodGet, "/v1/students/export?format="+url.QueryEscape(format), s.tokens.Token(), nil)
	if err != nil {
		return err
	}
	resp, err := s.c.http.Do(req)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

// Import uploads an xlsx workbook.
func (s *Students) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := s.c.newRequest(ctx, http.MethodPost, "/v1/students/import", s.tokens.Token(), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result ImportResult
	if err := s.c.send(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
