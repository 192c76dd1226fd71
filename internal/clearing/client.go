// Package clearing implements the orchestrator for an external,
// Fossology-like clearing server, per spec.md §4.8: upload, agent
// scheduling, SPDX import, and report polling.
package clearing

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quay/zlog"

	"github.com/alien4friends/a4f-core/internal/a4ferr"
	"github.com/alien4friends/a4f-core/internal/httputil"
	"github.com/alien4friends/a4f-core/internal/identity"
	"github.com/alien4friends/a4f-core/internal/retry"
)

// AgentSet is the fixed list of agents scheduled after every upload, per
// spec.md §4.8.
var AgentSet = []string{"monk", "nomos", "ojo", "copyright", "ojo_decider"}

// JobStatus is one of the clearing server's job states.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// FossyReport is the per-upload report the report() operation returns.
type FossyReport struct {
	UploadID int               `json:"uploadId"`
	Status   JobStatus         `json:"status"`
	Folder   string            `json:"folder"`
	Licenses map[string]string `json:"licenses"`
}

// Client talks to the clearing server's REST surface from spec.md §6.
type Client struct {
	HTTP       *http.Client
	BaseURL    string
	User       string
	Password   string
	GroupID    string
	token      string
	PollPolicy retry.Policy
}

func New(baseURL, user, password, groupID string) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: 60 * time.Second},
		BaseURL:    baseURL,
		User:       user,
		Password:   password,
		GroupID:    groupID,
		PollPolicy: retry.Policy{MaxAttempts: 30, Base: 2 * time.Second, Cap: 60 * time.Second},
	}
}

// uploadName is the deterministic <name>@<version> subset of purl used as
// the upload's dedup key, per spec.md §4.8.
func uploadName(id identity.Identity) string {
	return fmt.Sprintf("%s@%s", id.Name, id.Version)
}

// FindExistingUpload queries the clearing server for an upload already
// registered under this identity's upload name, returning its reported
// payload sha1 alongside so the caller can decide whether it is safe to
// reuse.
func (c *Client) FindExistingUpload(ctx context.Context, id identity.Identity) (uploadID int, sha1Hash string, found bool, err error) {
	name := uploadName(id)
	req, err := c.newRequest(ctx, http.MethodGet, "/uploads?name="+name, nil)
	if err != nil {
		return 0, "", false, err
	}
	var out []struct {
		ID   int    `json:"id"`
		Name string `json:"uploadname"`
		Hash struct {
			SHA1 string `json:"sha1"`
		} `json:"hash"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return 0, "", false, err
	}
	for _, u := range out {
		if u.Name == name {
			return u.ID, u.Hash.SHA1, true, nil
		}
	}
	return 0, "", false, nil
}

// Upload submits the packed tar.xz payload under uploadName(id). folder
// names the destination clearing folder; description is optional context
// text. Per spec.md §4.8, an existing upload under the same name is reused
// only when its reported sha1 matches this payload's; a same-named upload
// with different content is uploaded fresh rather than silently reused.
func (c *Client) Upload(ctx context.Context, id identity.Identity, folder string, payload io.Reader, description string) (uploadID int, err error) {
	name := uploadName(id)
	ctx = zlog.ContextWithValues(ctx, "component", "clearing.Upload", "upload_name", name)

	data, err := io.ReadAll(payload)
	if err != nil {
		return 0, a4ferr.New("clearing.Upload", a4ferr.KindCorruptInput, "reading upload payload", err)
	}
	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])

	existing, existingHash, found, err := c.FindExistingUpload(ctx, id)
	if err != nil {
		return 0, err
	}
	if found && existingHash == hash {
		zlog.Debug(ctx).Int("upload_id", existing).Msg("reusing existing upload")
		return existing, nil
	}
	if found {
		zlog.Debug(ctx).Int("upload_id", existing).Str("existing_sha1", existingHash).Str("payload_sha1", hash).
			Msg("existing upload's hash does not match, uploading fresh")
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/uploads", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	req.Header.Set("uploadDescription", description)
	req.Header.Set("folderId", folder)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out struct {
		Message int `json:"message"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return 0, err
	}
	return out.Message, nil
}

// ScheduleAgents schedules the given agents against an upload.
func (c *Client) ScheduleAgents(ctx context.Context, uploadID int, agents []string) error {
	body, err := json.Marshal(map[string]any{
		"uploadId":     uploadID,
		"analysis":     agentFlags(agents),
		"decider":      map[string]bool{"ojo_decider": contains(agents, "ojo_decider")},
	})
	if err != nil {
		return a4ferr.New("clearing.ScheduleAgents", a4ferr.KindInternal, "marshal agent request", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/jobs", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doJSON(req, nil)
}

func agentFlags(agents []string) map[string]bool {
	out := make(map[string]bool, len(agents))
	for _, a := range agents {
		out[a] = true
	}
	return out
}

func contains(list []string, v string) bool {
	for _, l := range list {
		if l == v {
			return true
		}
	}
	return false
}

// ImportSPDX imports an RDF/XML SPDX document's concluded licenses as
// concluded decisions inside the clearing server, per spec.md §4.8.
func (c *Client) ImportSPDX(ctx context.Context, uploadID int, rdfxml io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/uploads/%d/imports/spdx", uploadID), rdfxml)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/rdf+xml")
	return c.doJSON(req, nil)
}

// MakeOjoDecisions finalizes ojo agent findings into clearing decisions.
func (c *Client) MakeOjoDecisions(ctx context.Context, uploadID int) error {
	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/uploads/%d/decisions/ojo", uploadID), nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Report polls job status until terminal, per spec.md §4.8's bounded
// exponential backoff with a cap.
func (c *Client) Report(ctx context.Context, uploadID int) (*FossyReport, error) {
	var report *FossyReport
	err := retry.Do(ctx, c.PollPolicy, func() error {
		status, err := c.jobStatus(ctx, uploadID)
		if err != nil {
			return err
		}
		if !status.Terminal() {
			return a4ferr.New("clearing.Report", a4ferr.KindServiceUnavailable, "job not yet terminal", nil)
		}
		if status == StatusFailed {
			return a4ferr.New("clearing.Report", a4ferr.KindNetwork, "upload job failed", nil)
		}
		r, err := c.summary(ctx, uploadID)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Client) jobStatus(ctx context.Context, uploadID int) (JobStatus, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/jobs?upload=%d", uploadID), nil)
	if err != nil {
		return "", err
	}
	var out []struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(req, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return StatusQueued, nil
	}
	return JobStatus(out[len(out)-1].Status), nil
}

func (c *Client) summary(ctx context.Context, uploadID int) (*FossyReport, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/uploads/%d/summary", uploadID), nil)
	if err != nil {
		return nil, err
	}
	var sum struct {
		Folder string `json:"folderName"`
	}
	if err := c.doJSON(req, &sum); err != nil {
		return nil, err
	}

	req2, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/uploads/%d/licenses", uploadID), nil)
	if err != nil {
		return nil, err
	}
	var lic []struct {
		FilePath string `json:"filePath"`
		License  string `json:"license"`
	}
	if err := c.doJSON(req2, &lic); err != nil {
		return nil, err
	}
	licenses := make(map[string]string, len(lic))
	for _, l := range lic {
		licenses[l.FilePath] = l.License
	}

	return &FossyReport{
		UploadID: uploadID,
		Status:   StatusCompleted,
		Folder:   sum.Folder,
		Licenses: licenses,
	}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, a4ferr.New("clearing.newRequest", a4ferr.KindNetwork, path, err)
	}
	req.SetBasicAuth(c.User, c.Password)
	if c.GroupID != "" {
		req.Header.Set("groupId", c.GroupID)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return a4ferr.New("clearing.doJSON", a4ferr.KindNetwork, req.URL.String(), err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp, http.StatusOK, http.StatusCreated, http.StatusAccepted); err != nil {
		kind := a4ferr.KindNetwork
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			kind = a4ferr.KindNotFound
		}
		return a4ferr.New("clearing.doJSON", kind, err.Error(), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return a4ferr.New("clearing.doJSON", a4ferr.KindCorruptInput, "malformed clearing server response", err)
	}
	return nil
}
