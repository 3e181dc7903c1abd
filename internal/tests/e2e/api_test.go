//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/taskman-io/apiserver/config"
	"github.com/taskman-io/apiserver/internal/db"
	"github.com/taskman-io/apiserver/internal/server"
	"github.com/taskman-io/apiserver/types"
)

const serverPort = 18080

func TestMain(m *testing.M) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	root, err := repoRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to locate repo root: %v\n", err)
		os.Exit(1)
	}

	os.Setenv("SERVER_PORT", fmt.Sprintf("%d", serverPort))
	os.Setenv("DB_PORT", "15432")
	// Attachments and events need their own infrastructure; the core
	// lifecycle suite runs with both disabled.
	os.Setenv("STORAGE_BACKEND", "")
	os.Setenv("EVENTS_BACKEND", "")

	if err := dockerCompose(ctx, root, "up", "-d"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start docker compose: %v\n", err)
		os.Exit(1)
	}

	if err := waitForPostgres(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "postgres not ready: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	if err := runMigrations(root); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	srv, err := server.New(ctx, config.LoadConfig(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start server: %v\n", err)
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}
	go func() {
		_ = srv.Start()
	}()

	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)
	if err := waitForHealth(ctx, baseURL+"/healthz"); err != nil {
		fmt.Fprintf(os.Stderr, "server not healthy: %v\n", err)
		_ = srv.Shutdown()
		_ = dockerCompose(context.Background(), root, "down")
		os.Exit(1)
	}

	code := m.Run()

	_ = srv.Shutdown()
	_ = dockerCompose(context.Background(), root, "down")
	os.Exit(code)
}

func TestUserTaskLifecycle(t *testing.T) {
	baseURL := fmt.Sprintf("http://localhost:%d", serverPort)

	user := postJSON[types.User](t, baseURL+"/users", map[string]any{
		"username": "john", "role": "admin",
	}, http.StatusCreated)
	if user.ID == 0 {
		t.Fatalf("expected user ID to be set")
	}

	task := postJSON[types.Task](t, baseURL+"/tasks", map[string]any{
		"task_name": "T1", "user_id": user.ID, "due_date": "2025-12-12",
	}, http.StatusCreated)
	if task.Status != types.StatusPending {
		t.Fatalf("expected default status pending, got %q", task.Status)
	}
	if task.Priority != types.PriorityMedium {
		t.Fatalf("expected default priority medium, got %q", task.Priority)
	}

	tasks := getJSON[[]types.Task](t, fmt.Sprintf("%s/tasks?user_id=%d", baseURL, user.ID), http.StatusOK)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	resp := patchJSON(t, fmt.Sprintf("%s/tasks/%d/status", baseURL, task.ID), map[string]any{
		"user_id": user.ID, "status": "completed",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from status update, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	errResp := postJSONError(t, baseURL+"/tasks", map[string]any{
		"task_name": "orphan", "user_id": 999999,
	}, http.StatusNotFound)
	want := "User with id=999999 does not exist."
	if errResp.Error != want {
		t.Fatalf("expected %q, got %q", want, errResp.Error)
	}

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/tasks/%d?user_id=%d", baseURL, task.ID, user.ID), nil)
	if err != nil {
		t.Fatalf("build delete request: %v", err)
	}
	deleteResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete task: %v", err)
	}
	deleteResp.Body.Close()
	if deleteResp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 from delete, got %d", deleteResp.StatusCode)
	}
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func postJSON[T any](t *testing.T, url string, body map[string]any, wantStatus int) T {
	t.Helper()
	var out T
	resp := doRequest(t, http.MethodPost, url, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected %d, got %d", url, wantStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func postJSONError(t *testing.T, url string, body map[string]any, wantStatus int) errorBody {
	t.Helper()
	resp := doRequest(t, http.MethodPost, url, body)
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected %d, got %d", url, wantStatus, resp.StatusCode)
	}
	var out errorBody
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return out
}

func getJSON[T any](t *testing.T, url string, wantStatus int) T {
	t.Helper()
	var out T
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected %d, got %d", url, wantStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func patchJSON(t *testing.T, url string, body map[string]any) *http.Response {
	t.Helper()
	return doRequest(t, http.MethodPatch, url, body)
}

func doRequest(t *testing.T, method, url string, body map[string]any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found above %s", dir)
		}
		dir = parent
	}
}

func dockerCompose(ctx context.Context, root string, args ...string) error {
	composeFile := filepath.Join(root, "development", "docker-compose.yml")
	baseArgs := append([]string{"compose", "-f", composeFile}, args...)
	cmd := exec.CommandContext(ctx, "docker", baseArgs...)
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func waitForPostgres(ctx context.Context) error {
	dsn := db.DSN(config.LoadConfig())
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := sql.Open("postgres", dsn)
		if err == nil {
			if err := conn.PingContext(ctx); err == nil {
				_ = conn.Close()
				return nil
			}
			_ = conn.Close()
		}
		time.Sleep(time.Second)
	}
	return fmt.Errorf("postgres did not become ready")
}

func runMigrations(root string) error {
	migrationsURL := "file://" + filepath.Join(root, "internal", "db", "migrations")
	migrator, err := migrate.New(migrationsURL, db.DSN(config.LoadConfig()))
	if err != nil {
		return err
	}
	defer func() {
		_, _ = migrator.Close()
	}()
	if err := migrator.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

func waitForHealth(ctx context.Context, url string) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("server did not become healthy")
}
