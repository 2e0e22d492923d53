package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stagepass/stagepass/internal/domain"
	"github.com/stagepass/stagepass/pkg/logger"
)

type pendingSave struct {
	organizationID string
	template       *domain.Template
}

// Autosaver debounces editor saves: rapid successive edits to the same
// template collapse into a single UpdateTemplate call once the window
// elapses. A newer queued document always supersedes the pending one.
type Autosaver struct {
	service domain.TemplateService
	logger  logger.Logger
	window  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]*pendingSave // keyed by organizationID + template ID
	closed  bool
	onError func(organizationID string, template *domain.Template, err error)
}

func NewAutosaver(service domain.TemplateService, logger logger.Logger, window time.Duration) *Autosaver {
	if window <= 0 {
		window = 2 * time.Second
	}
	return &Autosaver{
		service: service,
		logger:  logger,
		window:  window,
		pending: make(map[string]*pendingSave),
	}
}

// OnError registers a callback invoked when a background save fails. Failed
// saves are reported, not retried.
func (a *Autosaver) OnError(fn func(organizationID string, template *domain.Template, err error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onError = fn
}

func saveKey(organizationID, templateID string) string {
	return organizationID + "/" + templateID
}

// Queue schedules a template save. Calling Queue again for the same
// template before the window elapses replaces the queued document and
// restarts the window.
func (a *Autosaver) Queue(organizationID string, template *domain.Template) error {
	if template == nil {
		return fmt.Errorf("autosave: template is required")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("autosave: autosaver is closed")
	}

	a.pending[saveKey(organizationID, template.ID)] = &pendingSave{
		organizationID: organizationID,
		template:       template,
	}

	if a.timer == nil {
		a.timer = time.AfterFunc(a.window, a.onTimer)
	} else {
		a.timer.Reset(a.window)
	}

	return nil
}

func (a *Autosaver) onTimer() {
	a.Flush(context.Background())
}

// Flush persists every pending save immediately.
func (a *Autosaver) Flush(ctx context.Context) {
	a.mu.Lock()
	batch := a.pending
	a.pending = make(map[string]*pendingSave)
	if a.timer != nil {
		a.timer.Stop()
	}
	onError := a.onError
	a.mu.Unlock()

	for _, save := range batch {
		if err := a.service.UpdateTemplate(ctx, save.organizationID, save.template); err != nil {
			a.logger.WithFields(map[string]interface{}{
				"template_id":     save.template.ID,
				"organization_id": save.organizationID,
			}).Error(fmt.Sprintf("Autosave failed: %v", err))
			if onError != nil {
				onError(save.organizationID, save.template, err)
			}
		}
	}
}

// Close flushes any pending save and rejects further Queue calls.
func (a *Autosaver) Close(ctx context.Context) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.Flush(ctx)
}
