package onboarding

// Summary 完成页的只读视图
type Summary struct {
	PhoneNumber     string   `json:"phone_number"`
	FullName        string   `json:"full_name"`
	Agency          string   `json:"agency"`
	JobLocation     string   `json:"job_location"`
	Gender          string   `json:"gender"`
	PhotoPreview    string   `json:"photo_preview,omitempty"`
	Wages           Wages    `json:"wages"`
	Qualification   string   `json:"qualification"`
	Experience      int      `json:"experience"`
	Languages       []string `json:"languages"`
	PreferredShifts []string `json:"preferred_shifts"`
	JobRole         string   `json:"job_role"`
	Services        []string `json:"services"`
}

// Summarize 由记录和各步表单投影出摘要，不修改任何状态
func Summarize(rec Record, states States) Summary {
	phone, _ := rec["phoneNumber"].(string)

	photo := states.Details.PreviewURL
	if photo == "" && states.Details.ProfilePhoto != nil {
		photo = states.Details.ProfilePhoto.PreviewURL
	}

	return Summary{
		PhoneNumber:     phone,
		FullName:        states.Details.FullName,
		Agency:          states.Details.Agency,
		JobLocation:     states.Details.JobLocation,
		Gender:          states.Details.Gender,
		PhotoPreview:    photo,
		Wages:           states.Wages,
		Qualification:   states.Education.Qualification,
		Experience:      states.Education.Experience,
		Languages:       cloneStrings(states.Education.Languages),
		PreferredShifts: cloneStrings(states.Shifts.PreferredShifts),
		JobRole:         states.Skills.JobRole,
		Services:        cloneStrings(states.Skills.Services),
	}
}

// Summary 仅在完成后可用
func (w *Wizard) Summary() (Summary, bool) {
	if !w.Completed() {
		return Summary{}, false
	}
	return Summarize(w.record, w.states), true
}
