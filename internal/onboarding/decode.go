package onboarding

import (
	"bytes"
	"encoding/json"
	"fmt"

	pkgerrors "CareOnboard/pkg/errors"
)

// DecodeState 把某一步的 JSON 表单解码成对应容器，未知字段报错。
// 手机号步骤只能由验证闸门写入，不接受外部表单。
func DecodeState(step Step, data []byte) (StepState, error) {
	var st StepState
	switch step {
	case StepDetails:
		st = &UserDetails{}
	case StepWages:
		st = &Wages{}
	case StepEducation:
		st = &Education{}
	case StepShifts:
		st = &Shifts{}
	case StepSkills:
		st = &Skills{}
	case StepPersonal:
		st = &PersonalInfo{}
	case StepTestimonial:
		st = &Testimonial{}
	case StepIDProof:
		st = &IDProof{}
	default:
		return nil, pkgerrors.OnboardingStepInvalid
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(st); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", pkgerrors.InvalidRequest, step, err)
	}
	return deref(st), nil
}

// deref 容器方法都是值接收者，存值类型
func deref(st StepState) StepState {
	switch v := st.(type) {
	case *UserDetails:
		return *v
	case *Wages:
		return *v
	case *Education:
		return *v
	case *Shifts:
		return *v
	case *Skills:
		return *v
	case *PersonalInfo:
		return *v
	case *Testimonial:
		return *v
	case *IDProof:
		return *v
	}
	return st
}
