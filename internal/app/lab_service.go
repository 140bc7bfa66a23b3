package app

import (
	"context"
	"fmt"
	"time"

	"photosynthesis-lab/internal/domain"
	"photosynthesis-lab/internal/engine"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SessionRepository abstracts where open workspaces are kept (in-memory, Redis, etc).
type SessionRepository interface {
	Put(ws *Workspace)
	Get(id string) (*Workspace, bool)
	Delete(id string)
	Len() int
}

// ContentRepository loads lab content (from cache/backing store).
type ContentRepository interface {
	GetContent(ctx context.Context, contentID string) (domain.Content, error)
}

// Options tune how workspaces are built. Zero values use real time, random
// ordering and the default durations.
type Options struct {
	Scheduler      engine.Scheduler
	Shuffler       engine.Shuffler
	Now            func() time.Time
	RunDuration    time.Duration
	IncorrectFlash time.Duration
	NewID          func() string
	Logger         logrus.FieldLogger

	// DefaultContentID is opened when a client does not name any content.
	DefaultContentID string
}

func (o Options) withDefaults() Options {
	if o.Scheduler == nil {
		o.Scheduler = engine.SystemScheduler()
	}
	if o.Shuffler == nil {
		o.Shuffler = engine.NewRandomShuffler()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.DefaultContentID == "" {
		o.DefaultContentID = domain.DefaultContentID
	}
	return o
}

// LabService contains the lab use cases: open a workspace, apply learner
// actions to it, stream its snapshots and close it.
type LabService struct {
	sessions SessionRepository
	contents ContentRepository
	opts     Options
	log      logrus.FieldLogger
}

func NewLabService(store SessionRepository, contents ContentRepository, opts Options) *LabService {
	opts = opts.withDefaults()
	return &LabService{
		sessions: store,
		contents: contents,
		opts:     opts,
		log:      opts.Logger.WithField("component", "lab_service"),
	}
}

// Open creates a workspace for the given content and returns its first snapshot.
func (s *LabService) Open(ctx context.Context, contentID string) (domain.LabSnapshot, error) {
	if contentID == "" {
		contentID = s.opts.DefaultContentID
	}
	content, err := s.contents.GetContent(ctx, contentID)
	if err != nil {
		return domain.LabSnapshot{}, err
	}

	ws := newWorkspace(s.opts.NewID(), content, s.opts)
	s.sessions.Put(ws)
	s.log.WithFields(logrus.Fields{
		"workspace_id": ws.ID(),
		"content_id":   contentID,
		"open":         s.sessions.Len(),
	}).Info("workspace opened")
	return ws.Snapshot(), nil
}

// Apply runs one learner action. The bool reports whether the action changed
// anything; an action whose preconditions are not met is not an error.
func (s *LabService) Apply(_ context.Context, workspaceID string, action domain.Action) (domain.LabSnapshot, bool, error) {
	ws, ok := s.sessions.Get(workspaceID)
	if !ok {
		return domain.LabSnapshot{}, false, domain.ErrWorkspaceNotFound
	}
	applied, err := ws.apply(action)
	if err != nil {
		return domain.LabSnapshot{}, false, err
	}
	s.log.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"action":       action.Name,
		"applied":      applied,
	}).Debug("action handled")
	return ws.Snapshot(), applied, nil
}

func (s *LabService) Snapshot(_ context.Context, workspaceID string) (domain.LabSnapshot, error) {
	ws, ok := s.sessions.Get(workspaceID)
	if !ok {
		return domain.LabSnapshot{}, domain.ErrWorkspaceNotFound
	}
	return ws.Snapshot(), nil
}

// Subscribe returns a channel that receives workspace snapshots, starting
// with the current one. The caller must invoke the returned cancel function
// to avoid leaks.
func (s *LabService) Subscribe(_ context.Context, workspaceID string) (<-chan domain.LabSnapshot, func(), error) {
	ws, ok := s.sessions.Get(workspaceID)
	if !ok {
		return nil, nil, domain.ErrWorkspaceNotFound
	}
	ch, cancel := ws.subscribe()
	return ch, cancel, nil
}

// Close stops the workspace timers, ends its subscriptions and forgets it.
func (s *LabService) Close(_ context.Context, workspaceID string) error {
	ws, ok := s.sessions.Get(workspaceID)
	if !ok {
		return domain.ErrWorkspaceNotFound
	}
	ws.close()
	s.sessions.Delete(workspaceID)
	s.log.WithFields(logrus.Fields{
		"workspace_id": workspaceID,
		"open":         s.sessions.Len(),
	}).Info("workspace closed")
	return nil
}

// Content returns the content a workspace can be opened with.
func (s *LabService) Content(ctx context.Context, contentID string) (domain.Content, error) {
	content, err := s.contents.GetContent(ctx, contentID)
	if err != nil {
		return domain.Content{}, fmt.Errorf("content %q: %w", contentID, err)
	}
	return content, nil
}
