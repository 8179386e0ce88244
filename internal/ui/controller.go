package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/dgnsrekt/speakwave/internal/session"
	"github.com/dgnsrekt/speakwave/internal/tts"
)

var (
	// ErrBusy is returned when a preview is requested while one is in flight.
	ErrBusy = errors.New("preview already in progress")
	// ErrStopped is returned when the event loop is not running.
	ErrStopped = errors.New("controller stopped")
)

// Pipeline runs the form's actions. *session.Session implements it.
type Pipeline interface {
	Preview(ctx context.Context, p session.Params) error
	Save(ctx context.Context, p session.SaveParams) (string, error)
}

// Snapshot is the form state as the interactive surface renders it.
type Snapshot struct {
	Form           Form          `json:"form"`
	PreviewEnabled bool          `json:"preview_enabled"`
	PreviewJobID   string        `json:"preview_job_id,omitempty"`
	Voices         []VoiceOption `json:"voices"`
}

// Events posted to the loop. Replies are buffered so the loop never blocks
// on a caller that has gone away.
type (
	previewEvent struct {
		form  Form
		reply chan result
	}
	saveEvent struct {
		form  Form
		reply chan result
	}
	snapshotEvent struct {
		reply chan Snapshot
	}
	previewDone struct {
		jobID string
		err   error
	}
)

type result struct {
	value string
	err   error
}

// Controller owns the form and the preview trigger. All state is touched
// only by the goroutine running Run.
type Controller struct {
	pipeline Pipeline
	voices   []tts.Voice
	defaults Form
	notifier Notifier
	logger   *slog.Logger

	events chan any
	done   chan struct{}
	wg     sync.WaitGroup

	// Loop-owned.
	form       Form
	previewJob string
}

// NewController creates a controller for the given voices. The form starts
// at defaults and returns to them after each save.
func NewController(pipeline Pipeline, voices []tts.Voice, defaults Form, notifier Notifier, logger *slog.Logger) *Controller {
	return &Controller{
		pipeline: pipeline,
		voices:   voices,
		defaults: defaults,
		notifier: notifier,
		logger:   logger,
		events:   make(chan any),
		done:     make(chan struct{}),
		form:     defaults,
	}
}

// Voices returns the voice selector entries.
func (c *Controller) Voices() []VoiceOption {
	return VoiceOptions(c.voices)
}

// Run processes events until ctx is done, then waits for an in-flight
// preview to finish. It must be called once.
func (c *Controller) Run(ctx context.Context) {
	defer func() {
		close(c.done)
		c.wg.Wait()
	}()

	c.logger.Info("event loop started", "voices", len(c.voices))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("event loop stopped")
			return
		case ev := <-c.events:
			c.handle(ctx, ev)
		}
	}
}

func (c *Controller) handle(ctx context.Context, ev any) {
	switch ev := ev.(type) {
	case previewEvent:
		id, err := c.startPreview(ctx, ev.form)
		ev.reply <- result{value: id, err: err}
	case saveEvent:
		path, err := c.save(ctx, ev.form)
		ev.reply <- result{value: path, err: err}
	case snapshotEvent:
		ev.reply <- c.snapshot()
	case previewDone:
		c.finishPreview(ev)
	default:
		c.logger.Warn("unknown event", "type", fmt.Sprintf("%T", ev))
	}
}

func (c *Controller) snapshot() Snapshot {
	return Snapshot{
		Form:           c.form,
		PreviewEnabled: c.previewJob == "",
		PreviewJobID:   c.previewJob,
		Voices:         VoiceOptions(c.voices),
	}
}

// startPreview disables the trigger and runs the preview off the loop.
// A request while disabled has no effect.
func (c *Controller) startPreview(ctx context.Context, form Form) (string, error) {
	if c.previewJob != "" {
		c.logger.Debug("preview ignored, one is in flight", "job_id", c.previewJob)
		return "", ErrBusy
	}

	c.form = form
	if err := form.Validate(len(c.voices)); err != nil {
		c.notify(LevelError, Message(err), "")
		return "", err
	}

	params := form.Params(c.voices)
	params.ID = uuid.New().String()
	c.previewJob = params.ID

	c.logger.Info("preview started", "job_id", params.ID, "text_length", len(params.Text))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.runPreview(ctx, params)
		select {
		case c.events <- previewDone{jobID: params.ID, err: err}:
		case <-c.done:
		}
	}()

	return params.ID, nil
}

// runPreview turns a panic in a collaborator into an error so the
// trigger is always re-enabled.
func (c *Controller) runPreview(ctx context.Context, p session.Params) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("preview panicked", "job_id", p.ID, "panic", r)
			err = fmt.Errorf("%w: internal error: %v", session.ErrPlayback, r)
		}
	}()
	return c.pipeline.Preview(ctx, p)
}

func (c *Controller) finishPreview(ev previewDone) {
	if ev.jobID != c.previewJob {
		c.logger.Warn("stale preview completion", "job_id", ev.jobID)
		return
	}
	c.previewJob = ""

	if ev.err != nil {
		c.logger.Error("preview failed", "job_id", ev.jobID, "error", ev.err)
		c.notify(LevelError, Message(ev.err), ev.jobID)
		return
	}
	c.logger.Info("preview completed", "job_id", ev.jobID)
	c.notify(LevelInfo, "Preview finished.", ev.jobID)
}

// save runs synchronously on the loop and resets the form on success.
func (c *Controller) save(ctx context.Context, form Form) (string, error) {
	c.form = form
	if err := form.Validate(len(c.voices)); err != nil {
		c.notify(LevelError, Message(err), "")
		return "", err
	}

	path, err := c.pipeline.Save(ctx, form.SaveParams(c.voices))
	if err != nil {
		c.notify(LevelError, Message(err), "")
		return "", err
	}

	c.form.Reset(c.defaults)
	c.notify(LevelInfo, "Saved to "+path, "")
	return path, nil
}

func (c *Controller) notify(level Level, msg, jobID string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(Notification{Level: level, Message: msg, JobID: jobID})
}

// post sends ev to the loop and waits for the reply.
func post[T any](ctx context.Context, c *Controller, ev any, reply chan T) (T, error) {
	var zero T
	select {
	case c.events <- ev:
	case <-c.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	select {
	case r := <-reply:
		return r, nil
	case <-c.done:
		// The loop may have replied just before it stopped.
		select {
		case r := <-reply:
			return r, nil
		default:
			return zero, ErrStopped
		}
	}
}

// Preview asks the loop to start a preview of form. It returns the job ID
// once the preview has started; the outcome arrives as a notification.
func (c *Controller) Preview(ctx context.Context, form Form) (string, error) {
	reply := make(chan result, 1)
	r, err := post(ctx, c, previewEvent{form: form, reply: reply}, reply)
	if err != nil {
		return "", err
	}
	return r.value, r.err
}

// Save asks the loop to save form and waits for the written path.
func (c *Controller) Save(ctx context.Context, form Form) (string, error) {
	reply := make(chan result, 1)
	r, err := post(ctx, c, saveEvent{form: form, reply: reply}, reply)
	if err != nil {
		return "", err
	}
	return r.value, r.err
}

// Snapshot returns the current form state.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	return post(ctx, c, snapshotEvent{reply: reply}, reply)
}
