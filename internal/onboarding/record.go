package onboarding

import (
	"fmt"

	pkgerrors "CareOnboard/pkg/errors"
)

// Record 聚合记录：字段名 -> 值，只增不减
type Record map[string]any

// Completion 某一步完成时携带的字段
type Completion struct {
	Step   Step
	Fields map[string]any
}

// CompletionOf 从容器生成完成事件
func CompletionOf(st StepState) Completion {
	return Completion{Step: st.Step(), Fields: st.Fields()}
}

// fieldOwners 字段归属表，每个字段只属于一个步骤
var fieldOwners = buildOwners(
	PhoneState{},
	UserDetails{},
	Wages{},
	Education{},
	Shifts{},
	Skills{},
	PersonalInfo{},
	Testimonial{},
	IDProof{},
)

func buildOwners(states ...StepState) map[string]Step {
	owners := make(map[string]Step)
	for _, st := range states {
		for name := range st.Fields() {
			if other, ok := owners[name]; ok {
				panic(fmt.Sprintf("onboarding: field %q declared by both %s and %s", name, other, st.Step()))
			}
			owners[name] = st.Step()
		}
	}
	return owners
}

// OwnerOf 返回字段所属步骤
func OwnerOf(field string) (Step, bool) {
	st, ok := fieldOwners[field]
	return st, ok
}

// Reduce 把一次完成事件合并进记录，返回新记录，入参不被修改。
// 字段必须归属于完成的那一步，重复提交只覆盖本步字段。
func Reduce(rec Record, c Completion) (Record, error) {
	if !c.Step.Valid() || c.Step == StepCompleted {
		return rec, fmt.Errorf("%w: %q", pkgerrors.OnboardingStepInvalid, c.Step)
	}
	for name := range c.Fields {
		owner, ok := fieldOwners[name]
		if !ok || owner != c.Step {
			return rec, fmt.Errorf("%w: %q submitted by %s", pkgerrors.FieldCollision, name, c.Step)
		}
	}

	out := make(Record, len(rec)+len(c.Fields))
	for k, v := range rec {
		out[k] = v
	}
	for k, v := range c.Fields {
		out[k] = v
	}
	return out, nil
}

// Clone 浅拷贝
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Has 某一步的全部字段都已合并
func (r Record) Has(step Step) bool {
	found := false
	for name, owner := range fieldOwners {
		if owner != step {
			continue
		}
		if _, ok := r[name]; !ok {
			return false
		}
		found = true
	}
	return found
}
