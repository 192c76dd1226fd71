package session

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/identity"
)

func TestPopulateGlobsAndDedups(t *testing.T) {
	s := New("test")
	candidates := []identity.Identity{
		{Name: "zlib", Version: "1.2.13"},
		{Name: "zlib", Version: "1.3.0"},
		{Name: "busybox", Version: "1.36.0"},
	}
	if err := s.Populate("", false, candidates, "zlib", "*"); err != nil {
		t.Fatal(err)
	}
	if len(s.Refs) != 2 {
		t.Fatalf("expected 2 refs matching zlib, got %d", len(s.Refs))
	}
	if err := s.Populate("", false, candidates, "zlib", "*"); err != nil {
		t.Fatal(err)
	}
	if len(s.Refs) != 2 {
		t.Fatalf("expected Populate to be idempotent, got %d refs", len(s.Refs))
	}
}

func TestLockSessionRequiresCurrentKey(t *testing.T) {
	s := New("test")
	if err := s.LockSession("", "key1", false); err != nil {
		t.Fatal(err)
	}
	if err := s.LockSession("wrong", "key2", false); !isLockConflict(err) {
		t.Fatalf("expected lock-conflict error, got %v", err)
	}
	if err := s.LockSession("key1", "key2", false); err != nil {
		t.Fatal(err)
	}
	if s.Lock != "key2" {
		t.Errorf("expected lock to be key2, got %q", s.Lock)
	}
}

func TestUnlockForceBypassesKeyCheck(t *testing.T) {
	s := New("test")
	if err := s.LockSession("", "key1", false); err != nil {
		t.Fatal(err)
	}
	if err := s.Unlock("wrong", false); !isLockConflict(err) {
		t.Fatalf("expected lock-conflict error, got %v", err)
	}
	if err := s.Unlock("wrong", true); err != nil {
		t.Fatalf("expected force unlock to succeed, got %v", err)
	}
	if s.Lock != "" {
		t.Errorf("expected lock to be cleared, got %q", s.Lock)
	}
}

func TestAddVariantsOnlyExtendsKnownBases(t *testing.T) {
	s := &Session{Refs: []PackageRef{{Identity: identity.Identity{Name: "zlib", Version: "1.2.13", Variant: "a"}}}}
	known := []identity.Identity{
		{Name: "zlib", Version: "1.2.13", Variant: "b"},
		{Name: "busybox", Version: "1.36.0", Variant: "a"},
	}
	if err := s.AddVariants("", false, known); err != nil {
		t.Fatal(err)
	}
	if len(s.Refs) != 2 {
		t.Fatalf("expected only the zlib variant to be added, got %d refs", len(s.Refs))
	}
}

func TestFilterScoreGT(t *testing.T) {
	s := &Session{Refs: []PackageRef{
		{Identity: identity.Identity{Name: "a"}, Score: 10},
		{Identity: identity.Identity{Name: "b"}, Score: 90},
	}}
	s.Filter(ScoreGT(50))
	if len(s.Refs) != 1 || s.Refs[0].Identity.Name != "b" {
		t.Errorf("expected only the high-score ref to survive, got %+v", s.Refs)
	}
}

func TestIncludeExcludePredicate(t *testing.T) {
	s := &Session{Refs: []PackageRef{
		{Identity: identity.Identity{Name: "a"}},
		{Identity: identity.Identity{Name: "b"}},
		{Identity: identity.Identity{Name: "c"}},
	}}
	s.Filter(IncludeExcludePredicate(IncludeExclude{Include: []string{"a", "b"}, Exclude: []string{"b"}}))
	if len(s.Refs) != 1 || s.Refs[0].Identity.Name != "a" {
		t.Errorf("expected only %q to survive include/exclude, got %+v", "a", s.Refs)
	}
}

func TestSaveLoadRoundtrip(t *testing.T) {
	s := New("roundtrip")
	s.Refs = append(s.Refs, PackageRef{Identity: identity.Identity{Name: "zlib", Version: "1.2.13"}})

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ID != s.ID || len(loaded.Refs) != 1 || loaded.Refs[0].Identity.Name != "zlib" {
		t.Errorf("roundtrip mismatch: %+v", loaded)
	}
}

func TestReportCSVColumns(t *testing.T) {
	s := &Session{Refs: []PackageRef{
		{Identity: identity.Identity{Name: "zlib", Version: "1.2.13"}, Status: StepStatus{Uploaded: true}},
	}}
	var buf bytes.Buffer
	err := s.ReportCSV(&buf, func(identity.Identity) UploadState {
		return UploadState{Uploaded: true, Folder: "42", AuditTotal: 3, AuditCleared: 2, AuditNotCleared: 1}
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "zlib@1.2.13") || !strings.Contains(out, "3 / 2 / 1") {
		t.Errorf("unexpected report output:\n%s", out)
	}
}

func isLockConflict(err error) bool {
	var e *a4ferr.Error
	return err != nil && errors.As(err, &e) && e.Kind == a4ferr.KindLockConflict
}
