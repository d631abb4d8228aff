package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/giygas/pediatric-drug-calculator/shell"
)

func TestHandlerServesAssets(t *testing.T) {
	h := Handler()

	tests := []struct {
		path         string
		cacheControl string
		contains     string
	}{
		{"/", "public, max-age=3600", "recentCalculations"},
		{"/sw.js", "no-cache", "network first"},
		{"/manifest.json", "public, max-age=86400", "Pediatric Drug Calculator"},
		{"/icon.svg", "public, max-age=31536000", "<svg"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			if got := rr.Header().Get("Cache-Control"); got != tt.cacheControl {
				t.Errorf("Expected Cache-Control %q, got %q", tt.cacheControl, got)
			}
			if !strings.Contains(rr.Body.String(), tt.contains) {
				t.Errorf("Expected body of %s to contain %q", tt.path, tt.contains)
			}
		})
	}
}

func TestHandlerUnknownAsset(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing.js", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestManifestIsValidJSON(t *testing.T) {
	raw, err := fs.ReadFile(Assets(), "manifest.json")
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	var manifest struct {
		StartURL string `json:"start_url"`
		Display  string `json:"display"`
		Icons    []struct {
			Src string `json:"src"`
		} `json:"icons"`
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		t.Fatalf("Manifest is not valid JSON: %v", err)
	}
	if manifest.StartURL != "/" || manifest.Display != "standalone" {
		t.Errorf("Unexpected manifest %+v", manifest)
	}
	for _, icon := range manifest.Icons {
		if _, err := fs.Stat(Assets(), strings.TrimPrefix(icon.Src, "/")); err != nil {
			t.Errorf("Manifest icon %s is not embedded", icon.Src)
		}
	}
}

func readIndex(t *testing.T) string {
	t.Helper()
	b, err := fs.ReadFile(Assets(), "index.html")
	if err != nil {
		t.Fatalf("Failed to read index.html: %v", err)
	}
	return string(b)
}

func TestIndexSwipeThresholdMatchesShell(t *testing.T) {
	want := "const SWIPE_THRESHOLD = " + strconv.Itoa(shell.SwipeThreshold) + ";"
	if !strings.Contains(readIndex(t), want) {
		t.Errorf("Expected index.html to declare %q", want)
	}
}

func TestIndexGuardsLookupsAndHistory(t *testing.T) {
	index := readIndex(t)

	tests := []struct {
		name     string
		contains string
	}{
		{"drug lookups drop stale responses", "if (isStale('drugs', token)) return;"},
		{"dosage lookups drop stale responses", "if (isStale('dosages', token)) return;"},
		{"calculations drop stale responses", "if (isStale('calculate', token) || state.drug !== drug) return;"},
		{"calculate waits for dosages", "if (state.loadingBands) {"},
		{"history write failure is swallowed", "  try {\n    localStorage.setItem(HISTORY_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(index, tt.contains) {
				t.Errorf("Expected index.html to contain %q", tt.contains)
			}
		})
	}

	// the result card must be on screen before history is written
	render := strings.Index(index, "out.replaceChildren(card);")
	record := strings.Index(index, "!recordCalculation(")
	if render < 0 || record < 0 || render > record {
		t.Errorf("Expected result rendering (%d) before history recording (%d)", render, record)
	}
}
