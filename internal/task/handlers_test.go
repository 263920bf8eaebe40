package task

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

type fakeAPI struct {
	tasks map[string]Task
	err   error
}

func (f *fakeAPI) Tasks(context.Context) ([]Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []Task{}
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeAPI) UpdateTaskCompletion(_ context.Context, id string, completed bool) (Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	t.Completed = completed
	f.tasks[id] = t
	return t, nil
}

func TestTaskHandlers(t *testing.T) {
	api := &fakeAPI{tasks: map[string]Task{"t1": {ID: "t1", Title: "Loop"}}}
	app := fiber.New()
	RegisterRoutes(app.Group("/tasks"), api)

	req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}

	req = httptest.NewRequest(http.MethodPatch, "/tasks/t1", bytes.NewReader([]byte(`{"completed":true}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status: %v", err)
	}
	if !api.tasks["t1"].Completed {
		t.Fatalf("expected completed task")
	}

	req = httptest.NewRequest(http.MethodPatch, "/tasks/nope", bytes.NewReader([]byte(`{"completed":true}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found")
	}

	req = httptest.NewRequest(http.MethodPatch, "/tasks/t1", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestTaskHandlersRemoteFailure(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/tasks"), &fakeAPI{err: errors.New("offline")})

	req := httptest.NewRequest(http.MethodGet, "/tasks/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected server error")
	}
}
