// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package submit turns a validated section into a partial update, sends it
// to the backend and records the section as complete on success.
package submit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/schema"
	"github.com/monadic/lendops/pkg/wizard"
)

// ErrInFlight is returned when the section already has a pending submission.
var ErrInFlight = errors.New("submission already in progress for this section")

// Updater performs the backend partial update.
type Updater interface {
	UpdateRecord(ctx context.Context, resource, recordID string, body any) error
}

// Logger receives pipeline progress. The session logger satisfies it.
type Logger interface {
	Log(format string, args ...any)
}

// ValidationError blocks a submission whose rows fail the gate.
type ValidationError struct {
	Tab  string
	Errs field.ErrorList
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("section %s has %d invalid field(s): %v", e.Tab, len(e.Errs), e.Errs.ToAggregate())
}

// Request names what to submit.
type Request struct {
	Wizard   *schema.Wizard
	Engine   *form.Engine
	RecordID string
}

// Result describes a successful submission.
type Result struct {
	Tab      string
	Next     string
	Resource string
	RecordID string
	Payload  Payload
}

// Submission is a prepared, locked update waiting to be sent.
type Submission struct {
	Resource string
	RecordID string
	Section  *schema.Section
	Payload  Payload

	key    string
	engine *form.Engine
}

// Pipeline submits sections. One pipeline is shared by every section of a
// session so the in-flight guard and completion set span them all.
type Pipeline struct {
	updater    Updater
	completion *wizard.Completion
	log        Logger

	mu       sync.Mutex
	inFlight sets.Set[string]
}

// NewPipeline creates a pipeline. log may be nil.
func NewPipeline(updater Updater, completion *wizard.Completion, log Logger) *Pipeline {
	if completion == nil {
		completion = wizard.NewCompletion()
	}
	return &Pipeline{
		updater:    updater,
		completion: completion,
		log:        log,
		inFlight:   sets.New[string](),
	}
}

// Completion returns the completion set the pipeline writes to.
func (p *Pipeline) Completion() *wizard.Completion { return p.completion }

// Pending reports whether a submission for tab of resource/recordID is in flight.
func (p *Pipeline) Pending(resource, recordID, tab string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight.Has(flightKey(resource, recordID, tab))
}

// Hold locks e when the section it shows has a submission in flight for
// resource/recordID. Call it after re-loading a section; Release unlocks it.
func (p *Pipeline) Hold(e *form.Engine, resource, recordID string) bool {
	sec := e.Section()
	if sec == nil || !p.Pending(resource, recordID, sec.TabID) {
		return false
	}
	e.Lock()
	return true
}

// Prepare runs the validation gate, builds the payload, locks the engine
// and claims the section's in-flight slot. It must run on the goroutine
// that owns the engine.
func (p *Pipeline) Prepare(req Request) (*Submission, error) {
	if req.Wizard == nil || req.Engine == nil {
		return nil, errors.New("submit: wizard and engine are required")
	}
	sec := req.Engine.Section()
	if sec == nil {
		return nil, form.ErrNoSection
	}
	if req.RecordID == "" {
		return nil, errors.New("submit: no record id in the current location")
	}
	if errs := req.Engine.Validate(); len(errs) > 0 {
		p.logf("blocked %s: %d invalid field(s)", sec.TabID, len(errs))
		return nil, &ValidationError{Tab: sec.TabID, Errs: errs}
	}

	key := flightKey(req.Wizard.Resource, req.RecordID, sec.TabID)
	p.mu.Lock()
	if p.inFlight.Has(key) {
		p.mu.Unlock()
		return nil, ErrInFlight
	}
	p.inFlight.Insert(key)
	p.mu.Unlock()

	req.Engine.Lock()
	return &Submission{
		Resource: req.Wizard.Resource,
		RecordID: req.RecordID,
		Section:  sec,
		Payload:  BuildPayload(sec, req.Engine.Rows()),
		key:      key,
		engine:   req.Engine,
	}, nil
}

// Send issues the update. On success the section is marked submitted
// before Send returns, even if the screen that started it is gone. Send
// does not touch the engine and is safe to call from a background goroutine.
func (p *Pipeline) Send(ctx context.Context, sub *Submission) (*Result, error) {
	defer func() {
		p.mu.Lock()
		p.inFlight.Delete(sub.key)
		p.mu.Unlock()
	}()

	p.logf("PATCH %s/%s %s (%d entries)", sub.Resource, sub.RecordID, sub.Section.BackendKey, len(sub.Payload.Entries()))
	if err := p.updater.UpdateRecord(ctx, sub.Resource, sub.RecordID, sub.Payload); err != nil {
		p.logf("failed %s: %v", sub.Section.TabID, err)
		return nil, fmt.Errorf("submit %s: %w", sub.Section.TabID, err)
	}

	p.completion.MarkSubmitted(sub.Section.TabID)
	p.logf("submitted %s", sub.Section.TabID)
	return &Result{
		Tab:      sub.Section.TabID,
		Next:     sub.Section.NextTabID,
		Resource: sub.Resource,
		RecordID: sub.RecordID,
		Payload:  sub.Payload,
	}, nil
}

// Release unlocks the engine if it still shows the submitted section.
func (p *Pipeline) Release(sub *Submission) {
	if sub.engine.Section() == sub.Section {
		sub.engine.Unlock()
	}
}

// Submit prepares, sends and releases in one call. There is no retry.
func (p *Pipeline) Submit(ctx context.Context, req Request) (*Result, error) {
	sub, err := p.Prepare(req)
	if err != nil {
		return nil, err
	}
	defer p.Release(sub)
	return p.Send(ctx, sub)
}

func (p *Pipeline) logf(format string, args ...any) {
	if p.log != nil {
		p.log.Log(format, args...)
	}
}

func flightKey(resource, recordID, tab string) string {
	return resource + "/" + recordID + "#" + tab
}
