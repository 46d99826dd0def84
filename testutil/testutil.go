// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/booth/cliparse"
	"github.com/danielhkuo/booth/db"
)

// SampleBundle is the election used across tests:
// poll p1 {a, b} and poll p2 {c}.
const SampleBundle = `{
	"id": "e1",
	"name": "Student Council",
	"polls": [
		{"id": "p1", "name": "President", "candidates": [
			{"id": "a", "name": "Alice"},
			{"id": "b", "name": "Bob"}
		]},
		{"id": "p2", "name": "Treasurer", "candidates": [
			{"id": "c", "name": "Carol"}
		]}
	]
}`

// OtherBundle shares no ids with SampleBundle
const OtherBundle = `{
	"id": "e2",
	"name": "Club Board",
	"polls": [
		{"id": "q1", "name": "Chair", "candidates": [
			{"id": "x", "name": "Xavier"},
			{"id": "y", "name": "Yara"}
		]}
	]
}`

// SetupTestDB creates a fresh SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, filepath.Join(t.TempDir(), "booth.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(t *testing.T) cliparse.Config {
	t.Helper()
	return cliparse.Config{
		Port:           3318,
		DatabaseType:   db.TypeSQLite,
		DatabaseURL:    ":memory:",
		AppName:        "booth-test",
		TempDir:        t.TempDir(),
		MaxUploadBytes: 1 << 20,
		SessionTTL:     time.Hour,
		LoginRate:      5,
		LoginBurst:     5,
		LogLevel:       "info",
	}
}

// WriteBundle zips files (archive name -> content) into a temp file and returns its path
func WriteBundle(t *testing.T, files map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bundle.zip")
	if err := os.WriteFile(path, ZipBytes(t, files), 0o600); err != nil {
		t.Fatalf("Failed to write bundle: %v", err)
	}
	return path
}

// ZipBytes returns files as an in-memory zip archive
func ZipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to add %s to bundle: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s to bundle: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close bundle: %v", err)
	}
	return buf.Bytes()
}

// WriteSampleBundle writes SampleBundle as election.json
func WriteSampleBundle(t *testing.T) string {
	t.Helper()
	return WriteBundle(t, map[string]string{"election.json": SampleBundle})
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// MakeUploadRequest creates a multipart request carrying data in field
func MakeUploadRequest(t *testing.T, path, field, filename string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a 303 to the expected location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	AssertStatus(t, w, http.StatusSeeOther)
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected redirect to %s, got %q", location, got)
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
