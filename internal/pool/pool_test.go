package pool

import (
	"context"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	p := &Pool{Root: "/pool"}
	got := p.Resolve(Userland, "zlib", "1.2.13", "", ALIENSRC)
	want := filepath.Join("/pool", "userland", "zlib", "1.2.13", "zlib.aliensrc")
	if got != want {
		t.Errorf("Resolve() = %q, want %q", got, want)
	}
}

func TestWriteReadRoundtrip(t *testing.T) {
	p, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	path := p.Resolve(Userland, "zlib", "1.2.13", "", ALIENSRC)
	if p.Exists(path) {
		t.Fatal("expected path not to exist before Write")
	}
	if err := p.Write(path, []byte("payload"), Overwrite); err != nil {
		t.Fatal(err)
	}
	if !p.Exists(path) {
		t.Fatal("expected path to exist after Write")
	}
	got, err := p.Read(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "payload" {
		t.Errorf("Read() = %q, want %q", got, "payload")
	}
}

func TestWriteFailModeRejectsExisting(t *testing.T) {
	p, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	path := p.Resolve(Userland, "zlib", "1.2.13", "", ALIENSRC)
	if err := p.Write(path, []byte("first"), Fail); err != nil {
		t.Fatal(err)
	}
	if err := p.Write(path, []byte("second"), Fail); err == nil {
		t.Fatal("expected Write with Fail mode to reject an existing path")
	}
}

func TestEnsureCachesWhenActive(t *testing.T) {
	p, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	path := p.Resolve(Userland, "zlib", "1.2.13", "", SCANCODE_JSON)
	calls := 0
	produce := func(context.Context) ([]byte, error) {
		calls++
		return []byte("produced"), nil
	}
	for i := 0; i < 3; i++ {
		data, err := p.Ensure(context.Background(), path, produce)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "produced" {
			t.Errorf("Ensure() round %d = %q", i, data)
		}
	}
	if calls != 1 {
		t.Errorf("expected produce to run once with cache active, ran %d times", calls)
	}
}

func TestEnsureReproducesWhenIgnoringCache(t *testing.T) {
	p, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	p.IgnoreCache = true
	path := p.Resolve(Userland, "zlib", "1.2.13", "", SCANCODE_JSON)
	calls := 0
	produce := func(context.Context) ([]byte, error) {
		calls++
		return []byte("produced"), nil
	}
	for i := 0; i < 2; i++ {
		if _, err := p.Ensure(context.Background(), path, produce); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 2 {
		t.Errorf("expected produce to run every time with IgnoreCache, ran %d times", calls)
	}
}

func TestCheckPrerequisites(t *testing.T) {
	p, err := Open(t.TempDir(), true)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.CheckPrerequisites(Userland, "zlib", "1.2.13", DELTACODE); err == nil {
		t.Fatal("expected missing SCANCODE_JSON prerequisite to fail")
	}
	scPath := p.Resolve(Userland, "zlib", "1.2.13", "", SCANCODE_JSON)
	if err := p.Write(scPath, []byte("{}"), Overwrite); err != nil {
		t.Fatal(err)
	}
	if err := p.CheckPrerequisites(Userland, "zlib", "1.2.13", DELTACODE); err != nil {
		t.Errorf("expected prerequisites to be satisfied, got %v", err)
	}
}
