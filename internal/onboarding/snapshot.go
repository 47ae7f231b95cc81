package onboarding

import (
	"fmt"

	pkgerrors "CareOnboard/pkg/errors"
)

// Snapshot 向导的可序列化快照，用于会话存储
type Snapshot struct {
	Current Step   `json:"current"`
	States  States `json:"states"`
	Record  Record `json:"record"`
}

func (w *Wizard) Snapshot() Snapshot {
	return Snapshot{
		Current: w.current,
		States:  w.states.Clone(),
		Record:  w.record.Clone(),
	}
}

// Restore 从快照重建向导。闸门未验证时只能恢复到 phone。
func Restore(gate PhoneGate, submitter Submitter, snap Snapshot) (*Wizard, error) {
	if !snap.Current.Valid() {
		return nil, fmt.Errorf("%w: %q", pkgerrors.OnboardingStepInvalid, snap.Current)
	}
	if snap.Current.After(StepPhone) && (gate == nil || !gate.Verified()) {
		return nil, fmt.Errorf("%w: snapshot at %s without verified phone", pkgerrors.OnboardingStepLocked, snap.Current)
	}

	w := New(gate, submitter)
	w.current = snap.Current
	for _, step := range Steps() {
		st, ok := snap.States.For(step)
		if !ok {
			continue
		}
		if err := w.states.Replace(st); err != nil {
			return nil, err
		}
	}
	if snap.Record != nil {
		w.record = snap.Record.Clone()
	}
	// 当前步之前的每一步都已合并进记录
	for _, step := range Steps() {
		if !snap.Current.After(step) {
			break
		}
		if !w.record.Has(step) {
			return nil, fmt.Errorf("%w: snapshot at %s missing %s fields", pkgerrors.OnboardingStepInvalid, snap.Current, step)
		}
	}
	return w, nil
}
