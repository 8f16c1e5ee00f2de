// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadic/lendops/pkg/form"
	"github.com/monadic/lendops/pkg/schema"
	"github.com/monadic/lendops/pkg/wizard"
)

type call struct {
	resource, recordID string
	body               any
}

type fakeUpdater struct {
	mu    sync.Mutex
	calls []call
	err   error
	gate  chan struct{}
}

func (f *fakeUpdater) UpdateRecord(_ context.Context, resource, recordID string, body any) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{resource, recordID, body})
	return f.err
}

type recordingLog struct{ lines []string }

func (l *recordingLog) Log(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func incomeWizard() *schema.Wizard {
	return &schema.Wizard{
		ID:       "bre",
		Route:    "/nbfc/{id}/bre",
		Resource: "bre-config",
		Sections: []schema.Section{
			{
				TabID:           "income",
				BackendKey:      "income_rules",
				MandatoryColumn: schema.MandatoryEditable,
				NextTabID:       "banking",
				Descriptors: []schema.ParameterDescriptor{
					{Key: "income", Name: "Income", Kind: schema.KindMoney, Mandatory: true},
				},
			},
			{
				TabID:      "banking",
				BackendKey: "banking_rules",
				Weightage:  true,
				Descriptors: []schema.ParameterDescriptor{
					{Key: "abb", Name: "Average bank balance", Kind: schema.KindMoney},
					{Key: "bounces", Name: "Bounces", Kind: schema.KindNumber},
				},
			},
		},
	}
}

func loadedEngine(t *testing.T, w *schema.Wizard, tab string) *form.Engine {
	t.Helper()
	e := form.NewEngine(nil)
	sec := w.Section(tab)
	require.NotNil(t, sec)
	e.Load(sec)
	return e
}

func TestBuildPayloadMoneyScenario(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "income")
	require.NoError(t, e.SetInput(0, "75000"))
	assert.Equal(t, "₹75,000", e.Display(0))

	data, err := json.Marshal(BuildPayload(e.Section(), e.Rows()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"income_rules":[{"key":"income","value":"75000","is_mandatory":true}]}`, string(data))
}

func TestBuildPayloadWeightage(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "banking")
	require.NoError(t, e.SetInput(1, "3"))
	require.NoError(t, e.SetWeightage(1, "150"))

	p := BuildPayload(e.Section(), e.Rows())
	entries := p["banking_rules"]
	require.Len(t, entries, 2)
	assert.Equal(t, "abb", entries[0].Key)
	assert.Nil(t, entries[0].Value)
	require.NotNil(t, entries[0].Weightage)
	assert.Equal(t, 0.0, *entries[0].Weightage)
	assert.Equal(t, 3.0, entries[1].Value)
	assert.Equal(t, 100.0, *entries[1].Weightage)
}

func TestSubmitBlockedByValidation(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "income")
	up := &fakeUpdater{}
	p := NewPipeline(up, nil, nil)

	_, err := p.Submit(context.Background(), Request{Wizard: w, Engine: e, RecordID: "42"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "income", verr.Tab)
	require.Len(t, verr.Errs, 1)
	assert.Equal(t, "income_rules[income].value", verr.Errs[0].Field)
	assert.Empty(t, up.calls, "updater must not be invoked")
	assert.False(t, p.Completion().IsSubmitted("income"))
	assert.False(t, e.Locked())
}

func TestSubmitSuccessMarksThenAdvances(t *testing.T) {
	w := incomeWizard()
	completion := wizard.NewCompletion()
	loc, err := wizard.ParseLocation("/nbfc/42/bre#income")
	require.NoError(t, err)
	ctrl := wizard.NewController(w, loc, completion)

	e := loadedEngine(t, w, ctrl.Active())
	require.NoError(t, e.SetInput(0, "75,000"))

	up := &fakeUpdater{}
	log := &recordingLog{}
	p := NewPipeline(up, completion, log)

	res, err := p.Submit(context.Background(), Request{Wizard: w, Engine: e, RecordID: "42"})
	require.NoError(t, err)
	assert.Equal(t, "income", res.Tab)
	assert.Equal(t, "banking", res.Next)

	require.Len(t, up.calls, 1)
	assert.Equal(t, "bre-config", up.calls[0].resource)
	assert.Equal(t, "42", up.calls[0].recordID)
	assert.True(t, completion.IsSubmitted("income"))
	assert.Equal(t, "income", ctrl.Active(), "controller moves only when told")

	ctrl.Advance(res.Tab)
	assert.Equal(t, "banking", ctrl.Active())
	assert.Equal(t, "banking", loc.Fragment())
	assert.True(t, ctrl.Indicator("income"))
	assert.False(t, e.Locked())
	assert.NotEmpty(t, log.lines)
}

func TestSubmitFailureLeavesStateUnchanged(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "income")
	require.NoError(t, e.SetInput(0, "5000"))
	boom := errors.New("backend down")
	p := NewPipeline(&fakeUpdater{err: boom}, nil, nil)

	_, err := p.Submit(context.Background(), Request{Wizard: w, Engine: e, RecordID: "42"})
	require.ErrorIs(t, err, boom)
	assert.False(t, p.Completion().IsSubmitted("income"))
	assert.False(t, e.Locked())
	assert.Equal(t, "₹5,000", e.Display(0), "row kept for retry")
	assert.False(t, p.Pending("bre-config", "42", "income"))
}

func TestSubmitInFlightGuard(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "income")
	require.NoError(t, e.SetInput(0, "5000"))
	up := &fakeUpdater{gate: make(chan struct{})}
	p := NewPipeline(up, nil, nil)

	sub, err := p.Prepare(Request{Wizard: w, Engine: e, RecordID: "42"})
	require.NoError(t, err)
	assert.True(t, e.Locked())
	assert.ErrorIs(t, e.SetInput(0, "1"), form.ErrLocked)
	assert.True(t, p.Pending("bre-config", "42", "income"))

	// Leaving and returning to the section reloads the rows, and Hold puts
	// the lock back while the submission is pending.
	e.Load(w.Section("banking"))
	assert.False(t, p.Hold(e, "bre-config", "42"))
	assert.False(t, e.Locked())
	e.Load(w.Section("income"))
	assert.False(t, e.Locked())
	assert.True(t, p.Hold(e, "bre-config", "42"))
	assert.True(t, e.Locked())
	assert.ErrorIs(t, e.SetInput(0, "9000"), form.ErrLocked)

	other := form.NewEngine(nil)
	other.Load(w.Section("income"))
	require.NoError(t, other.SetInput(0, "9000"))
	_, err = p.Prepare(Request{Wizard: w, Engine: other, RecordID: "42"})
	assert.ErrorIs(t, err, ErrInFlight)
	assert.True(t, p.Hold(other, "bre-config", "42"))

	done := make(chan error, 1)
	go func() {
		_, err := p.Send(context.Background(), sub)
		done <- err
	}()
	close(up.gate)
	require.NoError(t, <-done)
	p.Release(sub)
	assert.False(t, e.Locked())
	assert.False(t, p.Pending("bre-config", "42", "income"))
	assert.False(t, p.Hold(e, "bre-config", "42"))
	assert.False(t, e.Locked())
}

func TestLateSuccessAfterSectionSwitch(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "income")
	require.NoError(t, e.SetInput(0, "5000"))
	p := NewPipeline(&fakeUpdater{}, nil, nil)

	sub, err := p.Prepare(Request{Wizard: w, Engine: e, RecordID: "42"})
	require.NoError(t, err)
	e.Load(w.Section("banking"))

	_, err = p.Send(context.Background(), sub)
	require.NoError(t, err)
	p.Release(sub)
	assert.True(t, p.Completion().IsSubmitted("income"))
	assert.Equal(t, "banking", e.Section().TabID)
}

func TestPrepareRequiresRecordID(t *testing.T) {
	w := incomeWizard()
	e := loadedEngine(t, w, "income")
	p := NewPipeline(&fakeUpdater{}, nil, nil)
	_, err := p.Prepare(Request{Wizard: w, Engine: e})
	assert.Error(t, err)

	_, err = p.Prepare(Request{Wizard: w, Engine: form.NewEngine(nil), RecordID: "1"})
	assert.ErrorIs(t, err, form.ErrNoSection)
}
