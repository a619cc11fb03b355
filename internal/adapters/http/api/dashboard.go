package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
)

const etagLen = 16

// DashboardHandler serves the latest dashboard document.
type DashboardHandler struct {
	deps Dependencies
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(deps Dependencies) *DashboardHandler {
	return &DashboardHandler{deps: deps}
}

// HandleDashboard handles GET /dashboard.json. Responses carry a content ETag so
// pollers can revalidate cheaply.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allowRead(w, r) {
		return
	}
	doc, err := h.deps.Latest(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_ready", ErrNotReady)
		return
	}

	etag := contentTag(doc)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(doc)
}

func contentTag(doc []byte) string {
	sum := sha256.Sum256(doc)
	return `"` + hex.EncodeToString(sum[:])[:etagLen] + `"`
}
