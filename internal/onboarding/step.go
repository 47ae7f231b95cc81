package onboarding

import (
	"fmt"

	pkgerrors "CareOnboard/pkg/errors"
)

// Step 引导步骤，全序决定前进方向，completed 为终态
type Step string

const (
	StepPhone       Step = "phone"
	StepDetails     Step = "details"
	StepWages       Step = "wages"
	StepEducation   Step = "education"
	StepShifts      Step = "shifts"
	StepSkills      Step = "skills"
	StepPersonal    Step = "personal"
	StepTestimonial Step = "testimonial"
	StepIDProof     Step = "idproof"
	StepCompleted   Step = "completed"
)

var stepOrder = []Step{
	StepPhone,
	StepDetails,
	StepWages,
	StepEducation,
	StepShifts,
	StepSkills,
	StepPersonal,
	StepTestimonial,
	StepIDProof,
	StepCompleted,
}

var stepLabels = map[Step]string{
	StepPhone:       "Phone",
	StepDetails:     "Details",
	StepWages:       "Wages",
	StepEducation:   "Education",
	StepShifts:      "Shifts",
	StepSkills:      "Skills",
	StepPersonal:    "Personal",
	StepTestimonial: "Testimonial",
	StepIDProof:     "ID Proof",
	StepCompleted:   "Completed",
}

// Steps 返回全部步骤（含 completed）
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

func ParseStep(s string) (Step, error) {
	step := Step(s)
	if !step.Valid() {
		return "", fmt.Errorf("%w: %q", pkgerrors.OnboardingStepInvalid, s)
	}
	return step, nil
}

func (s Step) Valid() bool {
	return s.Index() >= 0
}

// Index 在全序中的位置，非法步骤返回 -1
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) Label() string {
	return stepLabels[s]
}

// Next 下一步，completed 没有下一步
func (s Step) Next() (Step, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stepOrder) {
		return "", false
	}
	return stepOrder[i+1], true
}

// Prev 上一步，phone 没有上一步
func (s Step) Prev() (Step, bool) {
	i := s.Index()
	if i <= 0 {
		return "", false
	}
	return stepOrder[i-1], true
}

// After 是否严格位于 other 之后
func (s Step) After(other Step) bool {
	return s.Index() > other.Index()
}

// StepInfo 进度条上的一格
type StepInfo struct {
	ID    Step   `json:"id"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// Progress 进度投影，Total 不计 completed
type Progress struct {
	Current Step       `json:"current_step"`
	Index   int        `json:"index"`
	Total   int        `json:"total"`
	Steps   []StepInfo `json:"steps"`
}

func progressOf(current Step) Progress {
	formSteps := stepOrder[:len(stepOrder)-1]
	infos := make([]StepInfo, 0, len(formSteps))
	for _, st := range formSteps {
		infos = append(infos, StepInfo{
			ID:    st,
			Label: st.Label(),
			Done:  current.After(st),
		})
	}

	return Progress{
		Current: current,
		Index:   current.Index(),
		Total:   len(formSteps),
		Steps:   infos,
	}
}
