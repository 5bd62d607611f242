// Package outbox provides the append-only artifact sink: emails, call
// requests, proposals and the notification log.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"lead_automation_backend/platform/apperr"
	"lead_automation_backend/platform/logger"
	"lead_automation_backend/platform/sanitize"
)

// Kind groups artifacts; every kind has its own directory or key prefix.
type Kind string

const (
	KindEmail        Kind = "emails"
	KindCallRequest  Kind = "call_requests"
	KindProposal     Kind = "proposals"
	KindNotification Kind = "notifications"
)

// NotificationLogName is the single append-only file of the notification stream.
const NotificationLogName = "notifications.log"

const maxNameAttempts = 16

var (
	// ErrWrite marks any failure to persist an artifact.
	ErrWrite = errors.New("outbox write failed")
	// ErrExists is returned by an ObjectStore when a key is already taken.
	ErrExists = errors.New("artifact already exists")
	// ErrNotFound is returned when reading an artifact that does not exist.
	ErrNotFound = errors.New("artifact not found")
)

// Kinds returns every artifact kind.
func Kinds() []Kind {
	return []Kind{KindEmail, KindCallRequest, KindProposal, KindNotification}
}

// ParseKind validates a raw kind.
func ParseKind(raw string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == raw {
			return k, nil
		}
	}
	return "", apperr.BadRequest(fmt.Sprintf("unknown artifact kind %q", raw))
}

// Artifact is one immutable document to persist.
type Artifact struct {
	Kind        Kind
	LeadID      string
	Label       string
	Ext         string
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Handle identifies a persisted artifact.
type Handle struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry is an object as reported by an ObjectStore listing.
type Entry struct {
	Name       string
	Location   string
	Size       int64
	ModifiedAt time.Time
}

// ObjectStore is the storage backend behind the sink. Create must fail with
// ErrExists instead of overwriting.
type ObjectStore interface {
	Create(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Append(ctx context.Context, key string, line []byte) error
	List(ctx context.Context, prefix string) ([]Entry, error)
	Read(ctx context.Context, key string) ([]byte, error)
}

// Sink assigns collision-free names and writes artifacts to an ObjectStore.
// Storage failures are returned as ErrWrite and never retried.
type Sink struct {
	store ObjectStore
	log   *logger.Logger
	now   func() time.Time
	seq   atomic.Uint64
}

// NewSink creates a sink over store.
func NewSink(store ObjectStore, log *logger.Logger) *Sink {
	return &Sink{
		store: store,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (s *Sink) SetClock(now func() time.Time) { s.now = now }

// Write persists a and returns its handle.
func (s *Sink) Write(ctx context.Context, a Artifact) (Handle, error) {
	if a.Kind == KindNotification {
		return Handle{}, apperr.BadRequest("notifications are appended, not written")
	}
	if _, err := ParseKind(string(a.Kind)); err != nil {
		return Handle{}, err
	}
	if len(a.Body) == 0 {
		return Handle{}, apperr.BadRequest("artifact body is empty")
	}

	ts := a.CreatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ext := strings.TrimPrefix(a.Ext, ".")
	if ext == "" {
		ext = "txt"
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = "text/plain"
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := artifactName(ts, s.seq.Add(1), a.LeadID, a.Label, ext)
		location, err := s.store.Create(ctx, objectKey(a.Kind, name), a.Body, contentType)
		if errors.Is(err, ErrExists) {
			continue
		}
		if err != nil {
			return Handle{}, writeError(a.Kind, err)
		}
		if s.log != nil {
			s.log.ArtifactWritten(string(a.Kind), name, a.LeadID)
		}
		return Handle{
			Kind:      a.Kind,
			Name:      name,
			Location:  location,
			Size:      int64(len(a.Body)),
			CreatedAt: ts,
		}, nil
	}
	return Handle{}, writeError(a.Kind, fmt.Errorf("no free artifact name after %d attempts", maxNameAttempts))
}

// AppendNotification adds one timestamped line to the notification log.
func (s *Sink) AppendNotification(ctx context.Context, leadID, message string) error {
	ref := strings.TrimSpace(leadID)
	if ref == "" {
		ref = "-"
	}
	line := fmt.Sprintf("%s | %s | %s\n", s.now().Format(time.RFC3339Nano), ref, sanitize.SingleLine(message))
	if err := s.store.Append(ctx, objectKey(KindNotification, NotificationLogName), []byte(line)); err != nil {
		return writeError(KindNotification, err)
	}
	return nil
}

// List returns the artifacts of kind in name (chronological) order.
func (s *Sink) List(ctx context.Context, kind Kind) ([]Handle, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, string(kind)+"/")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list "+string(kind), err)
	}
	out := make([]Handle, 0, len(entries))
	for _, e := range entries {
		out = append(out, Handle{
			Kind:      kind,
			Name:      e.Name,
			Location:  e.Location,
			Size:      e.Size,
			CreatedAt: e.ModifiedAt,
		})
	}
	return out, nil
}

// Read returns the content of a single artifact.
func (s *Sink) Read(ctx context.Context, kind Kind, name string) ([]byte, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if !isPlainName(name) {
		return nil, apperr.BadRequest("invalid artifact name")
	}
	data, err := s.store.Read(ctx, objectKey(kind, name))
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, "artifact "+name+" not found", err)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to read artifact", err)
	}
	return data, nil
}

// ReadNotifications returns the notification log, or an empty log when
// nothing was appended yet.
func (s *Sink) ReadNotifications(ctx context.Context) ([]byte, error) {
	data, err := s.Read(ctx, KindNotification, NotificationLogName)
	if errors.Is(err, ErrNotFound) {
		return []byte{}, nil
	}
	return data, err
}

func objectKey(kind Kind, name string) string {
	return string(kind) + "/" + name
}

func isPlainName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !strings.ContainsAny(name, `/\`)
}

func writeError(kind Kind, err error) error {
	return apperr.Wrap(apperr.KindInternal, "failed to write "+string(kind)+" artifact", fmt.Errorf("%w: %w", ErrWrite, err))
}
