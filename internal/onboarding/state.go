package onboarding

import (
	"strings"

	pkgerrors "CareOnboard/pkg/errors"
	"CareOnboard/utils"
)

// StepState 单步的本地表单，字段默认零值，只有附件可以为 nil
type StepState interface {
	Step() Step
	// Validate 必填字段缺失时返回 *errors.ValidationError
	Validate() error
	// Fields 合并进聚合记录的字段，key 由本步独占
	Fields() map[string]any
}

// Attachment 用户上传的文件句柄，内容不做解析
type Attachment struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"preview_url"`
}

// PhoneState 由验证闸门产出，只携带已规范化的手机号
type PhoneState struct {
	PhoneNumber string `json:"phoneNumber"`
}

func (PhoneState) Step() Step { return StepPhone }

func (p PhoneState) Validate() error {
	if strings.TrimSpace(p.PhoneNumber) == "" {
		return pkgerrors.NewValidationError(string(StepPhone), "phoneNumber")
	}
	return nil
}

func (p PhoneState) Fields() map[string]any {
	return map[string]any{"phoneNumber": p.PhoneNumber}
}

type UserDetails struct {
	FullName     string      `json:"fullName"`
	JobLocation  string      `json:"jobLocation"`
	Gender       string      `json:"gender"`
	ProfilePhoto *Attachment `json:"profilePhoto"`
	PreviewURL   string      `json:"previewUrl"`
	Agency       string      `json:"agency"`
}

func (UserDetails) Step() Step { return StepDetails }

func (d UserDetails) Validate() error {
	return required(StepDetails,
		field("fullName", d.FullName),
		field("jobLocation", d.JobLocation),
		field("gender", d.Gender),
		field("agency", d.Agency),
	)
}

func (d UserDetails) Fields() map[string]any {
	return map[string]any{
		"fullName":     d.FullName,
		"jobLocation":  d.JobLocation,
		"gender":       d.Gender,
		"profilePhoto": d.ProfilePhoto,
		"previewUrl":   d.PreviewURL,
		"agency":       d.Agency,
	}
}

// Wages 三档期望薪资，单位卢比
type Wages struct {
	LessThan5Hours int `json:"lessThan5Hours"`
	Hours12        int `json:"hours12"`
	Hours24        int `json:"hours24"`
}

func (Wages) Step() Step { return StepWages }

func (w Wages) Validate() error {
	return required(StepWages,
		positive("lessThan5Hours", w.LessThan5Hours),
		positive("hours12", w.Hours12),
		positive("hours24", w.Hours24),
	)
}

func (w Wages) Fields() map[string]any {
	return map[string]any{
		"lessThan5Hours": w.LessThan5Hours,
		"hours12":        w.Hours12,
		"hours24":        w.Hours24,
	}
}

type Education struct {
	Qualification      string      `json:"qualification"`
	Certificate        *Attachment `json:"certificate"`
	CertificatePreview string      `json:"certificatePreview"`
	Experience         int         `json:"experience"`
	MaritalStatus      string      `json:"maritalStatus"`
	Languages          []string    `json:"languages"`
}

func (Education) Step() Step { return StepEducation }

func (e Education) Validate() error {
	return required(StepEducation,
		field("qualification", e.Qualification),
		check("experience", e.Experience >= 0),
		field("maritalStatus", e.MaritalStatus),
		check("languages", len(e.Languages) > 0),
	)
}

func (e Education) Fields() map[string]any {
	return map[string]any{
		"qualification":      e.Qualification,
		"certificate":        e.Certificate,
		"certificatePreview": e.CertificatePreview,
		"experience":         e.Experience,
		"maritalStatus":      e.MaritalStatus,
		"languages":          cloneStrings(e.Languages),
	}
}

type Shifts struct {
	PreferredShifts []string `json:"preferredShifts"`
}

func (Shifts) Step() Step { return StepShifts }

func (s Shifts) Validate() error {
	return required(StepShifts, check("preferredShifts", len(s.PreferredShifts) > 0))
}

func (s Shifts) Fields() map[string]any {
	return map[string]any{"preferredShifts": cloneStrings(s.PreferredShifts)}
}

type Skills struct {
	JobRole  string   `json:"jobRole"`
	Services []string `json:"services"`
}

func (Skills) Step() Step { return StepSkills }

func (s Skills) Validate() error {
	return required(StepSkills,
		field("jobRole", s.JobRole),
		check("services", len(s.Services) > 0),
	)
}

func (s Skills) Fields() map[string]any {
	return map[string]any{
		"jobRole":  s.JobRole,
		"services": cloneStrings(s.Services),
	}
}

type PersonalInfo struct {
	FoodPreference string `json:"foodPreference"`
	Smoking        string `json:"smoking"`
	CarryFood      string `json:"carryFood"`
	AdditionalInfo string `json:"additionalInfo"`
}

func (PersonalInfo) Step() Step { return StepPersonal }

func (p PersonalInfo) Validate() error {
	return required(StepPersonal,
		field("foodPreference", p.FoodPreference),
		field("smoking", p.Smoking),
		field("carryFood", p.CarryFood),
	)
}

func (p PersonalInfo) Fields() map[string]any {
	return map[string]any{
		"foodPreference": p.FoodPreference,
		"smoking":        p.Smoking,
		"carryFood":      p.CarryFood,
		"additionalInfo": p.AdditionalInfo,
	}
}

// Testimonial 往期客户的推荐，录音可选
type Testimonial struct {
	Recording     *Attachment `json:"recording"`
	CustomerName  string      `json:"customerName"`
	CustomerPhone string      `json:"customerPhone"`
}

func (Testimonial) Step() Step { return StepTestimonial }

func (t Testimonial) Validate() error {
	return required(StepTestimonial,
		field("customerName", t.CustomerName),
		field("customerPhone", t.CustomerPhone),
	)
}

func (t Testimonial) Fields() map[string]any {
	return map[string]any{
		"recording":     t.Recording,
		"customerName":  t.CustomerName,
		"customerPhone": t.CustomerPhone,
	}
}

type IDProof struct {
	AadharNumber string      `json:"aadharNumber"`
	AadharFront  *Attachment `json:"aadharFront"`
	AadharBack   *Attachment `json:"aadharBack"`
	PanNumber    string      `json:"panNumber"`
	PanCard      *Attachment `json:"panCard"`
}

func (IDProof) Step() Step { return StepIDProof }

func (p IDProof) Validate() error {
	return required(StepIDProof,
		check("aadharNumber", utils.ValidateAadhaar(p.AadharNumber)),
		check("aadharFront", p.AadharFront != nil),
		check("aadharBack", p.AadharBack != nil),
		check("panNumber", utils.ValidatePAN(strings.ToUpper(p.PanNumber))),
	)
}

func (p IDProof) Fields() map[string]any {
	return map[string]any{
		"aadharNumber": p.AadharNumber,
		"aadharFront":  p.AadharFront,
		"aadharBack":   p.AadharBack,
		"panNumber":    strings.ToUpper(p.PanNumber),
		"panCard":      p.PanCard,
	}
}

// States 各步本地表单的集合，向导开始时全部按默认值创建
type States struct {
	Details     UserDetails  `json:"details"`
	Wages       Wages        `json:"wages"`
	Education   Education    `json:"education"`
	Shifts      Shifts       `json:"shifts"`
	Skills      Skills       `json:"skills"`
	Personal    PersonalInfo `json:"personal"`
	Testimonial Testimonial  `json:"testimonial"`
	IDProof     IDProof      `json:"idproof"`
}

func NewStates() States {
	return States{
		Education: Education{Languages: []string{}},
		Shifts:    Shifts{PreferredShifts: []string{}},
		Skills:    Skills{Services: []string{}},
	}
}

// For 取某一步的表单，phone 与 completed 不归这里管
func (s States) For(step Step) (StepState, bool) {
	switch step {
	case StepDetails:
		return s.Details, true
	case StepWages:
		return s.Wages, true
	case StepEducation:
		return s.Education, true
	case StepShifts:
		return s.Shifts, true
	case StepSkills:
		return s.Skills, true
	case StepPersonal:
		return s.Personal, true
	case StepTestimonial:
		return s.Testimonial, true
	case StepIDProof:
		return s.IDProof, true
	default:
		return nil, false
	}
}

// Replace 整体替换某一步的表单，集合字段去重并保证非 nil
func (s *States) Replace(st StepState) error {
	switch v := st.(type) {
	case UserDetails:
		s.Details = v
	case Wages:
		s.Wages = v
	case Education:
		v.Languages = uniqueStrings(v.Languages)
		s.Education = v
	case Shifts:
		v.PreferredShifts = uniqueStrings(v.PreferredShifts)
		s.Shifts = v
	case Skills:
		v.Services = uniqueStrings(v.Services)
		s.Skills = v
	case PersonalInfo:
		s.Personal = v
	case Testimonial:
		s.Testimonial = v
	case IDProof:
		s.IDProof = v
	default:
		return pkgerrors.OnboardingStepInvalid
	}
	return nil
}

// Clone 深拷贝，切片不与原值共享
func (s States) Clone() States {
	out := s
	out.Education.Languages = cloneStrings(s.Education.Languages)
	out.Shifts.PreferredShifts = cloneStrings(s.Shifts.PreferredShifts)
	out.Skills.Services = cloneStrings(s.Skills.Services)
	return out
}

type requirement struct {
	name string
	ok   bool
}

func field(name, value string) requirement {
	return requirement{name: name, ok: strings.TrimSpace(value) != ""}
}

func positive(name string, value int) requirement {
	return requirement{name: name, ok: value > 0}
}

func check(name string, ok bool) requirement {
	return requirement{name: name, ok: ok}
}

func required(step Step, reqs ...requirement) error {
	var missing []string
	for _, r := range reqs {
		if !r.ok {
			missing = append(missing, r.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.NewValidationError(string(step), missing...)
}

func uniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
