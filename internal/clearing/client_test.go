package clearing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/retry"
)

func TestFindExistingUploadMatchesByName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 7, "uploadname": "zlib@1.2.13", "hash": map[string]string{"sha1": "f07e5a815613c5abeddc4b682247a4c42d8a95df"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "pass", "")
	id, hash, found, err := c.FindExistingUpload(context.Background(), identity.Identity{Name: "zlib", Version: "1.2.13"})
	if err != nil {
		t.Fatal(err)
	}
	if !found || id != 7 {
		t.Errorf("expected to find upload 7, got found=%v id=%d", found, id)
	}
	if hash != "f07e5a815613c5abeddc4b682247a4c42d8a95df" {
		t.Errorf("expected the existing upload's sha1 to be reported, got %q", hash)
	}
}

func TestUploadReusesExistingWhenHashMatches(t *testing.T) {
	uploadCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/uploads"):
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": 3, "uploadname": "zlib@1.2.13", "hash": map[string]string{"sha1": "f07e5a815613c5abeddc4b682247a4c42d8a95df"}},
			})
		case r.Method == http.MethodPost:
			uploadCalled = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]int{"message": 99})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "pass", "")
	id, err := c.Upload(context.Background(), identity.Identity{Name: "zlib", Version: "1.2.13"}, "1", strings.NewReader("payload"), "desc")
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Errorf("expected Upload to reuse existing id 3, got %d", id)
	}
	if uploadCalled {
		t.Error("expected Upload not to POST when an existing upload's hash matches")
	}
}

func TestUploadReUploadsWhenHashDiffers(t *testing.T) {
	uploadCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/uploads"):
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": 3, "uploadname": "zlib@1.2.13", "hash": map[string]string{"sha1": "0000000000000000000000000000000000000000"}},
			})
		case r.Method == http.MethodPost:
			uploadCalled = true
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]int{"message": 99})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "pass", "")
	id, err := c.Upload(context.Background(), identity.Identity{Name: "zlib", Version: "1.2.13"}, "1", strings.NewReader("payload"), "desc")
	if err != nil {
		t.Fatal(err)
	}
	if id != 99 {
		t.Errorf("expected a fresh upload id 99, got %d", id)
	}
	if !uploadCalled {
		t.Error("expected Upload to POST a fresh upload when the existing hash differs")
	}
}

func TestReportPollsUntilTerminal(t *testing.T) {
	var jobCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/jobs"):
			jobCalls++
			status := "running"
			if jobCalls >= 2 {
				status = "completed"
			}
			json.NewEncoder(w).Encode([]map[string]string{{"status": status}})
		case strings.Contains(r.URL.Path, "/summary"):
			json.NewEncoder(w).Encode(map[string]string{"folderName": "f1"})
		case strings.Contains(r.URL.Path, "/licenses"):
			json.NewEncoder(w).Encode([]map[string]string{{"filePath": "a.c", "license": "MIT"}})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "user", "pass", "")
	c.PollPolicy = retry.Policy{MaxAttempts: 5, Base: time.Millisecond, Cap: 5 * time.Millisecond}

	report, err := c.Report(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if report.Folder != "f1" || report.Licenses["a.c"] != "MIT" {
		t.Errorf("unexpected report: %+v", report)
	}
	if jobCalls < 2 {
		t.Errorf("expected Report to poll more than once, polled %d times", jobCalls)
	}
}
