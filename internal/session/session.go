// Package session implements the filtered, lockable work list from
// spec.md §4.2: an ordered list of PackageRef persisted as JSON under the
// Pool's "session" relationship.
package session

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/identity"
)

// StepStatus is the set of per-package progress flags a PackageRef tracks.
type StepStatus struct {
	Added    bool `json:"added"`
	Matched  bool `json:"matched"`
	Scanned  bool `json:"scanned"`
	Delta    bool `json:"delta"`
	SPDX     bool `json:"spdx"`
	Uploaded bool `json:"uploaded"`
	Fossy    bool `json:"fossy"`
}

// PackageRef is one entry of a Session's work list.
type PackageRef struct {
	Identity identity.Identity `json:"identity"`
	Status   StepStatus        `json:"status"`
	Score    float64           `json:"score,omitempty"`
	// Errors accumulates non-fatal, package-scoped failures recorded by
	// commands whose own produced artifact has an externally-owned
	// schema (scancode's JSON/SPDX output, the Debian SPDX tag-value
	// document) and so cannot carry an errors[] field itself, per
	// spec.md §7's propagation rule.
	Errors []a4ferr.Entry `json:"errors,omitempty"`
}

// Session is the filtered, lockable work list. Persist with Save, load
// with Load; when Lock is non-empty, every mutating method takes the
// caller's key and rejects it unless it equals Lock (or force is set), per
// the locking invariant in spec.md §4.2.
type Session struct {
	ID      string       `json:"id"`
	Created time.Time    `json:"created"`
	Lock    string       `json:"lock,omitempty"`
	Refs    []PackageRef `json:"refs"`
}

// New creates a Session. If id is empty, a random UUID is used.
func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id, Created: time.Now().UTC()}
}

// Load decodes a Session from its persisted JSON form.
func Load(r io.Reader) (*Session, error) {
	var s Session
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, a4ferr.New("session.Load", a4ferr.KindCorruptInput, "malformed session JSON", err)
	}
	return &s, nil
}

// Save encodes the Session as JSON, matching SESSION_JSON's pool filetype.
func (s *Session) Save(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return a4ferr.New("session.Save", a4ferr.KindInternal, "cannot encode session", err)
	}
	return nil
}

// checkLock enforces the token-compare invariant: a lock key, when set,
// must be presented on every mutating operation unless force is true.
func (s *Session) checkLock(key string, force bool) error {
	if s.Lock == "" || force {
		return nil
	}
	if key != s.Lock {
		return a4ferr.New("session.checkLock", a4ferr.KindLockConflict,
			fmt.Sprintf("session %s is locked", s.ID), nil)
	}
	return nil
}

// Populate matches names and versions already present (via the identities
// passed in — typically enumerated from Pool's userland tree) against glob
// patterns using path.Match semantics, appending new PackageRefs for
// matches not already present.
func (s *Session) Populate(key string, force bool, candidates []identity.Identity, globName, globVersion string) error {
	if err := s.checkLock(key, force); err != nil {
		return err
	}
	if globName == "" {
		globName = "*"
	}
	if globVersion == "" {
		globVersion = "*"
	}
	existing := make(map[identity.Identity]bool, len(s.Refs))
	for _, r := range s.Refs {
		existing[r.Identity] = true
	}
	for _, id := range candidates {
		nameOK, err := path.Match(globName, id.Name)
		if err != nil {
			return a4ferr.New("session.Populate", a4ferr.KindCorruptInput, "bad name glob", err)
		}
		verOK, err := path.Match(globVersion, id.Version)
		if err != nil {
			return a4ferr.New("session.Populate", a4ferr.KindCorruptInput, "bad version glob", err)
		}
		if !nameOK || !verOK || existing[id] {
			continue
		}
		s.Refs = append(s.Refs, PackageRef{Identity: id})
		existing[id] = true
	}
	return nil
}

// Predicate is a closed-set filter applied by Filter: one of
// score-gt=N, include-exclude=<doc>, only-uploaded per spec.md §4.2.
type Predicate func(PackageRef) bool

// ScoreGT returns a Predicate keeping refs whose Score is greater than n.
func ScoreGT(n float64) Predicate {
	return func(r PackageRef) bool { return r.Score > n }
}

// IncludeExclude holds the two name-lists a JSON include/exclude document
// carries.
type IncludeExclude struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
}

// IncludeExcludePredicate returns a Predicate implementing the
// include[]/exclude[] document filter: Include, if non-empty, is an
// allow-list; Exclude always removes regardless of Include.
func IncludeExcludePredicate(doc IncludeExclude) Predicate {
	inc := toSet(doc.Include)
	exc := toSet(doc.Exclude)
	return func(r PackageRef) bool {
		if exc[r.Identity.Name] {
			return false
		}
		if len(inc) == 0 {
			return true
		}
		return inc[r.Identity.Name]
	}
}

// OnlyUploaded keeps refs whose Status.Uploaded is true.
func OnlyUploaded() Predicate {
	return func(r PackageRef) bool { return r.Status.Uploaded }
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Filter replaces Refs with the subset matching every predicate given.
// Filter does not mutate the lock and, per spec.md, is not itself treated
// as a mutating operation requiring the lock key — it only narrows the
// in-memory view.
func (s *Session) Filter(preds ...Predicate) {
	out := s.Refs[:0:0]
	for _, r := range s.Refs {
		ok := true
		for _, p := range preds {
			if !p(r) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	s.Refs = out
}

// LockSession sets the lock key. The current holder (or an unlocked
// session) may set a new key.
func (s *Session) LockSession(key, newKey string, force bool) error {
	if err := s.checkLock(key, force); err != nil {
		return err
	}
	s.Lock = newKey
	return nil
}

// Unlock clears the lock key. force bypasses the current-key check
// entirely, per the "--force unlock" testable property in spec.md §8.
func (s *Session) Unlock(key string, force bool) error {
	if err := s.checkLock(key, force); err != nil {
		return err
	}
	s.Lock = ""
	return nil
}

// AddVariants extends Refs with every identity in known that shares
// (Name, Version) with an existing member but isn't already present.
func (s *Session) AddVariants(key string, force bool, known []identity.Identity) error {
	if err := s.checkLock(key, force); err != nil {
		return err
	}
	existing := make(map[identity.Identity]bool, len(s.Refs))
	bases := make(map[[2]string]bool)
	for _, r := range s.Refs {
		existing[r.Identity] = true
		bases[[2]string{r.Identity.Name, r.Identity.Version}] = true
	}
	for _, id := range known {
		if existing[id] {
			continue
		}
		if bases[[2]string{id.Name, id.Version}] {
			s.Refs = append(s.Refs, PackageRef{Identity: id})
			existing[id] = true
		}
	}
	return nil
}

// UploadState is supplied by the caller (typically fossy.Client) to
// render the "uploaded"/"folder"/audit columns live, since those reflect
// clearing-server state rather than anything stored in the Session.
type UploadState struct {
	Uploaded             bool
	Folder               string
	NotScheduledAgents   []string
	ScheduledReportImport bool
	AuditTotal           int
	AuditCleared         int
	AuditNotCleared      int
}

// ReportCSV writes the session report in the column layout grounded on
// generate_report in original_source's commons/session.py: one row per
// PackageRef, with clearing-server state supplied via lookup.
func (s *Session) ReportCSV(w io.Writer, lookup func(identity.Identity) UploadState) error {
	cw := csv.NewWriter(w)
	header := []string{
		"package", "selected in this session", "uploaded in this session",
		"uploaded", "folder", "not scheduled agents", "scheduled reportImport",
		"audit (total / cleared / not cleared)",
	}
	if err := cw.Write(header); err != nil {
		return a4ferr.New("session.ReportCSV", a4ferr.KindInternal, "cannot write header", err)
	}
	for _, r := range s.Refs {
		st := lookup(r.Identity)
		audit := ""
		if st.Uploaded {
			audit = fmt.Sprintf("%d / %d / %d", st.AuditTotal, st.AuditCleared, st.AuditNotCleared)
		}
		row := []string{
			r.Identity.String(),
			boolCSV(true),
			boolCSV(r.Status.Uploaded),
			boolCSV(st.Uploaded),
			st.Folder,
			joinOrAll(st.NotScheduledAgents),
			boolCSV(st.ScheduledReportImport),
			audit,
		}
		if err := cw.Write(row); err != nil {
			return a4ferr.New("session.ReportCSV", a4ferr.KindInternal, "cannot write row", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func boolCSV(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func joinOrAll(agents []string) string {
	if len(agents) == 0 {
		return "all"
	}
	out := agents[0]
	for _, a := range agents[1:] {
		out += " " + a
	}
	return out
}
