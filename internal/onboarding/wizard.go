package onboarding

import (
	"context"
	"fmt"

	pkgerrors "CareOnboard/pkg/errors"
)

// PhoneGate 向导对手机验证的唯一依赖
type PhoneGate interface {
	Verified() bool
	PhoneNumber() string
}

// Submitter 向导完成时接收最终记录
type Submitter interface {
	Submit(ctx context.Context, rec Record) error
}

// SubmitterFunc 把函数适配为 Submitter
type SubmitterFunc func(ctx context.Context, rec Record) error

func (f SubmitterFunc) Submit(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// Wizard 引导流程控制器。持有当前步骤、各步表单和聚合记录，
// 非并发安全，调用方需保证同一会话串行访问。
type Wizard struct {
	current   Step
	states    States
	record    Record
	gate      PhoneGate
	submitter Submitter
}

// New 创建向导，submitter 可为 nil
func New(gate PhoneGate, submitter Submitter) *Wizard {
	return &Wizard{
		current:   StepPhone,
		states:    NewStates(),
		record:    Record{},
		gate:      gate,
		submitter: submitter,
	}
}

func (w *Wizard) Current() Step { return w.current }

func (w *Wizard) Completed() bool { return w.current == StepCompleted }

// States 返回表单副本
func (w *Wizard) States() States { return w.states.Clone() }

// Record 返回记录副本
func (w *Wizard) Record() Record { return w.record.Clone() }

func (w *Wizard) Progress() Progress { return progressOf(w.current) }

// Set 整体替换某一步的表单，不影响聚合记录
func (w *Wizard) Set(st StepState) error {
	if w.Completed() {
		return pkgerrors.WizardCompleted
	}
	if st == nil {
		return pkgerrors.OnboardingStepInvalid
	}
	if err := w.states.Replace(st); err != nil {
		return fmt.Errorf("%w: %s is not editable", err, st.Step())
	}
	return nil
}

// Advance 校验当前步骤并合并进记录，然后前进一步。
// phone 步骤要求闸门已验证；idproof 完成时先交给 Submitter，成功才进入 completed。
func (w *Wizard) Advance(ctx context.Context) (Step, error) {
	if w.Completed() {
		return w.current, pkgerrors.WizardCompleted
	}

	st, err := w.currentState()
	if err != nil {
		return w.current, err
	}
	if err := st.Validate(); err != nil {
		return w.current, err
	}

	rec, err := Reduce(w.record, CompletionOf(st))
	if err != nil {
		return w.current, err
	}

	next, _ := w.current.Next()
	if next == StepCompleted && w.submitter != nil {
		if err := w.submitter.Submit(ctx, rec.Clone()); err != nil {
			return w.current, fmt.Errorf("submit application: %w", err)
		}
	}

	w.record = rec
	w.current = next
	return w.current, nil
}

// GoBack 回到上一步，不回滚记录。details 不能回到 phone，验证只发生一次。
func (w *Wizard) GoBack() (Step, error) {
	if w.Completed() {
		return w.current, pkgerrors.WizardCompleted
	}
	prev, ok := w.current.Prev()
	if !ok {
		return w.current, fmt.Errorf("%w: no step before %s", pkgerrors.OnboardingStepInvalid, w.current)
	}
	if prev == StepPhone {
		return w.current, fmt.Errorf("%w: phone already verified", pkgerrors.OnboardingStepLocked)
	}
	w.current = prev
	return w.current, nil
}

func (w *Wizard) currentState() (StepState, error) {
	if w.current == StepPhone {
		if w.gate == nil || !w.gate.Verified() {
			return nil, fmt.Errorf("%w: phone not verified", pkgerrors.OnboardingStepLocked)
		}
		return PhoneState{PhoneNumber: w.gate.PhoneNumber()}, nil
	}
	st, ok := w.states.For(w.current)
	if !ok {
		return nil, fmt.Errorf("%w: %s", pkgerrors.OnboardingStepInvalid, w.current)
	}
	return st, nil
}
