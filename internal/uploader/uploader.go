// Package uploader drives a single client-side upload: validate the file,
// obtain a one-time upload credential from the API, then stream the bytes
// to the presigned object-store URL while reporting progress.
package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// Kind is the declared media kind of the file being uploaded.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// Size ceilings per kind.
const (
	maxVideoBytes = 100 << 20
	maxImageBytes = 10 << 20
)

// State is the orchestrator's lifecycle phase. Transitions are strictly
// forward: Idle, Validating, RequestingCredential, Uploading, then exactly
// one of Succeeded, Aborted, or Failed.
type State int32

const (
	StateIdle State = iota
	StateValidating
	StateRequestingCredential
	StateUploading
	StateSucceeded
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateValidating:
		return "VALIDATING"
	case StateRequestingCredential:
		return "REQUESTING_CREDENTIAL"
	case StateUploading:
		return "UPLOADING"
	case StateSucceeded:
		return "SUCCEEDED"
	case StateAborted:
		return "ABORTED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ErrUploadInFlight is returned when Upload is called while another upload
// on the same instance has not finished.
var ErrUploadInFlight = errors.New("upload already in flight")

// ErrorKind classifies upload failures. The set is closed; callers switch
// on it to decide retry and messaging.
type ErrorKind string

const (
	ErrKindValidation   ErrorKind = "validation"
	ErrKindUnauthorized ErrorKind = "unauthorized"
	ErrKindNetwork      ErrorKind = "network"
	ErrKindServer       ErrorKind = "server"
	ErrKindAbort        ErrorKind = "abort"
)

// Error is the failure type returned by Upload. Every failure carries
// exactly one ErrorKind.
type Error struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

func newError(kind ErrorKind, msg string, err error) *Error {
	return &Error{Kind: kind, msg: msg, err: err}
}

// File describes the local file to upload. Size is the declared byte
// length; Content streams the bytes.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// Result is returned on a successful upload.
type Result struct {
	Token string
	Key   string
	URL   string
}

// ProgressFunc receives upload progress in percent. Values are
// monotonically non-decreasing within [0, 100].
type ProgressFunc func(percent float64)

// StateFunc receives each state transition.
type StateFunc func(state State)

// Config configures an Uploader.
type Config struct {
	// BaseURL is the API origin used for the credential request.
	BaseURL string

	// Token is the caller's identity token, sent as the token cookie.
	Token string

	// HTTPClient defaults to a client with a 30s timeout when nil.
	HTTPClient *http.Client

	OnProgress ProgressFunc
	OnState    StateFunc
}

// Uploader orchestrates uploads for one caller. One upload at a time per
// instance; a second concurrent Upload call fails with ErrUploadInFlight.
type Uploader struct {
	cfg      Config
	httpc    *http.Client
	inFlight atomic.Bool
	state    atomic.Int32
}

// New creates an Uploader in the Idle state.
func New(cfg Config) *Uploader {
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Uploader{cfg: cfg, httpc: httpc}
}

// State reports the current lifecycle phase.
func (u *Uploader) State() State {
	return State(u.state.Load())
}

func (u *Uploader) setState(s State) {
	u.state.Store(int32(s))
	if u.cfg.OnState != nil {
		u.cfg.OnState(s)
	}
}

// Upload runs the full pipeline for one file. Validation happens before
// any network traffic. Cancelling ctx mid-transfer aborts the upload;
// no progress events fire after an abort.
func (u *Uploader) Upload(ctx context.Context, kind Kind, file File) (*Result, error) {
	if !u.inFlight.CompareAndSwap(false, true) {
		return nil, ErrUploadInFlight
	}
	defer u.inFlight.Store(false)

	// A reused instance re-enters the lifecycle through Idle.
	if State(u.state.Load()) != StateIdle {
		u.setState(StateIdle)
	}

	u.setState(StateValidating)
	if err := validate(kind, file); err != nil {
		u.setState(StateFailed)
		return nil, err
	}

	u.setState(StateRequestingCredential)
	cred, err := u.requestCredential(ctx)
	if err != nil {
		return nil, u.finish(err)
	}

	u.setState(StateUploading)
	if err := u.put(ctx, cred, file); err != nil {
		return nil, u.finish(err)
	}

	u.setState(StateSucceeded)
	return &Result{
		Token: cred.Token,
		Key:   cred.Key,
		URL:   strings.SplitN(cred.UploadURL, "?", 2)[0],
	}, nil
}

// finish records the terminal state implied by the error's kind.
func (u *Uploader) finish(err error) error {
	var uploadErr *Error
	if errors.As(err, &uploadErr) && uploadErr.Kind == ErrKindAbort {
		u.setState(StateAborted)
	} else {
		u.setState(StateFailed)
	}
	return err
}

func validate(kind Kind, file File) error {
	if file.Content == nil {
		return newError(ErrKindValidation, "no file provided", nil)
	}

	var prefix string
	var limit int64
	switch kind {
	case KindVideo:
		prefix, limit = "video/", maxVideoBytes
	case KindImage:
		prefix, limit = "image/", maxImageBytes
	default:
		return newError(ErrKindValidation, fmt.Sprintf("unknown media kind %q", kind), nil)
	}

	if !strings.HasPrefix(file.ContentType, prefix) {
		return newError(ErrKindValidation,
			fmt.Sprintf("content type %q does not match kind %s", file.ContentType, kind), nil)
	}
	if file.Size <= 0 {
		return newError(ErrKindValidation, "file is empty", nil)
	}
	if file.Size > limit {
		return newError(ErrKindValidation,
			fmt.Sprintf("file size %d exceeds %d byte limit for %s", file.Size, limit, kind), nil)
	}
	return nil
}

type credential struct {
	Token     string `json:"token"`
	Signature string `json:"signature"`
	Expire    int64  `json:"expire"`
	UploadURL string `json:"upload_url"`
	Key       string `json:"key"`
}

func (u *Uploader) requestCredential(ctx context.Context) (*credential, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.cfg.BaseURL+"/v1/upload-credential", nil)
	if err != nil {
		return nil, newError(ErrKindServer, "build credential request", err)
	}
	req.AddCookie(&http.Cookie{Name: "token", Value: u.cfg.Token})

	resp, err := u.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(ErrKindAbort, "credential request cancelled", ctx.Err())
		}
		return nil, newError(ErrKindNetwork, "credential request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, newError(ErrKindUnauthorized, "credential request rejected", nil)
	case resp.StatusCode != http.StatusOK:
		return nil, newError(ErrKindServer,
			fmt.Sprintf("credential request returned status %d", resp.StatusCode), nil)
	}

	var cred credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return nil, newError(ErrKindServer, "malformed credential response", err)
	}
	if cred.UploadURL == "" || cred.Token == "" {
		return nil, newError(ErrKindServer, "credential response missing upload target", nil)
	}
	return &cred, nil
}

func (u *Uploader) put(ctx context.Context, cred *credential, file File) error {
	body := &progressReader{
		r:     file.Content,
		total: file.Size,
		emit:  u.cfg.OnProgress,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, cred.UploadURL, body)
	if err != nil {
		return newError(ErrKindServer, "build upload request", err)
	}
	req.ContentLength = file.Size
	req.Header.Set("Content-Type", file.ContentType)

	resp, err := u.httpc.Do(req)
	if err != nil {
		// The transport reads the body from its own goroutine; halting
		// keeps a late read from emitting past the terminal transition.
		body.halt()
		if ctx.Err() != nil {
			return newError(ErrKindAbort, "upload cancelled", ctx.Err())
		}
		return newError(ErrKindNetwork, "upload failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body.halt()
		return newError(ErrKindServer,
			fmt.Sprintf("object store returned status %d", resp.StatusCode), nil)
	}

	body.complete()
	return nil
}

// progressReader counts bytes as the transport consumes them and emits
// percent progress. Emitted values never decrease and never exceed 100.
// Once halted it stays silent, so no event can land after the upload has
// reached a terminal state.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   float64
	emit   ProgressFunc
	halted atomic.Bool
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.read += int64(n)
		p.report()
	}
	return n, err
}

// halt silences the reader. Called from the orchestrator's goroutine while
// the transport may still be draining the body on its own.
func (p *progressReader) halt() {
	p.halted.Store(true)
}

func (p *progressReader) report() {
	if p.emit == nil || p.total <= 0 || p.halted.Load() {
		return
	}
	percent := float64(p.read) / float64(p.total) * 100
	if percent > 100 {
		percent = 100
	}
	if percent <= p.last {
		return
	}
	p.last = percent
	p.emit(percent)
}

// complete emits the final 100 once the store has acknowledged the bytes.
func (p *progressReader) complete() {
	if p.emit == nil || p.last >= 100 {
		return
	}
	p.last = 100
	p.emit(100)
}
