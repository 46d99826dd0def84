// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/danielhkuo/booth/cliparse"
	"github.com/danielhkuo/booth/election"
	"github.com/danielhkuo/booth/metrics"
	"github.com/danielhkuo/booth/middleware"
	"github.com/danielhkuo/booth/models"
	"github.com/danielhkuo/booth/session"
)

// ImportField is the multipart field carrying the bundle
const ImportField = "importedData"

type ElectionHandler struct {
	store   *election.Store
	cfg     cliparse.Config
	metrics *metrics.Collector
}

func NewElectionHandler(store *election.Store, cfg cliparse.Config, m *metrics.Collector) *ElectionHandler {
	return &ElectionHandler{store: store, cfg: cfg, metrics: m}
}

// Home handles GET /
func (h *ElectionHandler) Home(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if _, err := sess.Fire(session.EventReachHome); err != nil {
		slog.Warn("home reached in unexpected state", "session", sess.ID, "state", sess.State(), "error", err)
	}

	resp := models.HomeResponse{
		AppName: h.cfg.AppName,
		LanIP:   lanIP(),
	}
	if e, err := h.store.Election(); err == nil {
		resp.AlreadyImported = e.Name
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Import handles POST /import
func (h *ElectionHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		h.metrics.ImportFailed()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.ErrorResponse(w, http.StatusRequestEntityTooLarge, "Bundle too large")
			return
		}
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(ImportField)
	if err != nil {
		h.metrics.ImportFailed()
		middleware.ErrorResponse(w, http.StatusBadRequest, ImportField+" file is required")
		return
	}
	defer file.Close()

	path, err := h.saveUpload(file)
	if err != nil {
		h.metrics.ImportFailed()
		slog.Error("failed to store upload", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to store upload")
		return
	}
	defer os.Remove(path)

	e, err := h.store.ImportNamed(r.Context(), path, header.Filename)
	if err != nil {
		h.metrics.ImportFailed()
		slog.Warn("import rejected", "source", header.Filename, "error", err)
		writeError(w, err)
		return
	}
	h.metrics.ImportSucceeded()

	middleware.JSONResponse(w, http.StatusCreated, models.ImportResponse{
		ElectionID: e.ID,
		Name:       e.Name,
		Polls:      len(e.Polls),
		Candidates: e.CandidateCount(),
	})
}

// saveUpload copies src into the temp dir under a fresh ULID name
func (h *ElectionHandler) saveUpload(src io.Reader) (string, error) {
	if err := os.MkdirAll(h.cfg.TempDir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	path := filepath.Join(h.cfg.TempDir, ulid.Make().String()+".zip")

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// SelectPolls handles GET /selectPolls
func (h *ElectionHandler) SelectPolls(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Election()
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// SetPolls handles POST /setPolls
// Accepts pollIDs as repeated form/query values or a JSON SetPollsRequest.
func (h *ElectionHandler) SetPolls(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var ids []string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req models.SetPollsRequest
		if err := middleware.ParseJSONBody(r, &req); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		ids = req.PollIDs
	} else {
		if err := r.ParseForm(); err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid form")
			return
		}
		ids = r.Form["pollIDs"]
	}
	if len(ids) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "pollIDs is required")
		return
	}

	if err := h.store.ShowPolls(r.Context(), ids); err != nil {
		writeError(w, err)
		return
	}

	if _, err := sess.Fire(session.EventBeginVoting); err != nil {
		slog.Error("failed to lock session", "session", sess.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusConflict, "Voting already in progress")
		return
	}
	slog.Info("voting started", "session", sess.ID, "polls", ids)

	http.Redirect(w, r, session.VotePath, http.StatusSeeOther)
}

// Results handles GET /results
func (h *ElectionHandler) Results(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Election()
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// lanIP returns the first non-loopback IPv4 address, for voters on the
// local network to reach the booth.
func lanIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		slog.Warn("failed to list interface addresses", "error", err)
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
