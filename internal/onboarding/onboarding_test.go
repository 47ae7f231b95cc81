package onboarding

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "CareOnboard/pkg/errors"
)

type fakeGate struct {
	verified bool
	phone    string
}

func (g *fakeGate) Verified() bool      { return g.verified }
func (g *fakeGate) PhoneNumber() string { return g.phone }

func verifiedGate() *fakeGate {
	return &fakeGate{verified: true, phone: "+919999999999"}
}

func attachment(id string) *Attachment {
	return &Attachment{ID: id, FileName: id + ".jpg", ContentType: "image/jpeg", Size: 10, PreviewURL: "/uploads/" + id}
}

// minimalStates 每一步的最小合法数据
func minimalStates() []StepState {
	return []StepState{
		UserDetails{FullName: "Asha Rao", JobLocation: "Pune", Gender: "female", Agency: "CareFirst"},
		Wages{LessThan5Hours: 500, Hours12: 900, Hours24: 1500},
		Education{Qualification: "GNM", Experience: 3, MaritalStatus: "single", Languages: []string{"Hindi", "English"}},
		Shifts{PreferredShifts: []string{"day"}},
		Skills{JobRole: "nurse", Services: []string{"elder care"}},
		PersonalInfo{FoodPreference: "veg", Smoking: "no", CarryFood: "yes"},
		Testimonial{CustomerName: "R. Mehta", CustomerPhone: "9876500000"},
		IDProof{AadharNumber: "123412341234", PanNumber: "ABCDE1234F", AadharFront: attachment("front"), AadharBack: attachment("back")},
	}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestStepOrder(t *testing.T) {
	steps := Steps()
	require.Len(t, steps, 10)
	assert.Equal(t, StepPhone, steps[0])
	assert.Equal(t, StepCompleted, steps[9])

	next, ok := StepIDProof.Next()
	assert.True(t, ok)
	assert.Equal(t, StepCompleted, next)

	_, ok = StepCompleted.Next()
	assert.False(t, ok)
	_, ok = StepPhone.Prev()
	assert.False(t, ok)

	_, err := ParseStep("payment")
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)

	st, err := ParseStep("idproof")
	require.NoError(t, err)
	assert.Equal(t, "ID Proof", st.Label())
}

func TestOwnershipIsDisjoint(t *testing.T) {
	owner, ok := OwnerOf("phoneNumber")
	assert.True(t, ok)
	assert.Equal(t, StepPhone, owner)

	owner, ok = OwnerOf("languages")
	assert.True(t, ok)
	assert.Equal(t, StepEducation, owner)

	_, ok = OwnerOf("unknown")
	assert.False(t, ok)
}

func TestReduceRejectsForeignFields(t *testing.T) {
	rec := Record{"fullName": "Asha"}

	_, err := Reduce(rec, Completion{Step: StepWages, Fields: map[string]any{"fullName": "Other"}})
	assert.ErrorIs(t, err, pkgerrors.FieldCollision)

	_, err = Reduce(rec, Completion{Step: StepWages, Fields: map[string]any{"bonus": 1}})
	assert.ErrorIs(t, err, pkgerrors.FieldCollision)

	_, err = Reduce(rec, Completion{Step: StepCompleted})
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)

	assert.Equal(t, Record{"fullName": "Asha"}, rec)
}

func TestReduceOverwritesOwnFieldsOnly(t *testing.T) {
	rec, err := Reduce(Record{}, CompletionOf(Wages{LessThan5Hours: 1, Hours12: 2, Hours24: 3}))
	require.NoError(t, err)
	rec, err = Reduce(rec, CompletionOf(Shifts{PreferredShifts: []string{"night"}}))
	require.NoError(t, err)

	again, err := Reduce(rec, CompletionOf(Wages{LessThan5Hours: 10, Hours12: 20, Hours24: 30}))
	require.NoError(t, err)

	assert.Equal(t, 10, again["lessThan5Hours"])
	assert.Equal(t, []string{"night"}, again["preferredShifts"])
	assert.Equal(t, 1, rec["lessThan5Hours"], "input record must not change")
}

func TestAdvanceAccumulatesUnionOfCompletedSteps(t *testing.T) {
	w := New(verifiedGate(), nil)
	_, err := w.Advance(context.Background())
	require.NoError(t, err)

	want := map[string]any{"phoneNumber": "+919999999999"}
	for _, st := range minimalStates() {
		require.NoError(t, w.Set(st))
		_, err := w.Advance(context.Background())
		require.NoError(t, err, "advance %s", st.Step())

		for k, v := range st.Fields() {
			want[k] = v
		}
		assert.Equal(t, keys(want), keys(w.Record()), "after %s", st.Step())
	}
	assert.Equal(t, StepCompleted, w.Current())
}

func TestAdvanceFromPhoneRequiresVerifiedGate(t *testing.T) {
	gate := &fakeGate{}
	w := New(gate, nil)

	_, err := w.Advance(context.Background())
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepLocked)
	assert.Equal(t, StepPhone, w.Current())
	assert.Empty(t, w.Record())

	gate.verified, gate.phone = true, "+919876543210"
	step, err := w.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepDetails, step)
	assert.Equal(t, "+919876543210", w.Record()["phoneNumber"])
}

func TestAdvanceReportsMissingFields(t *testing.T) {
	w := New(verifiedGate(), nil)
	_, err := w.Advance(context.Background())
	require.NoError(t, err)

	require.NoError(t, w.Set(UserDetails{FullName: "Asha"}))
	_, err = w.Advance(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgerrors.ValidationFailed)

	var verr *pkgerrors.ValidationError
	require.True(t, stderrors.As(err, &verr))
	assert.Equal(t, "details", verr.Step)
	assert.Equal(t, []string{"jobLocation", "gender", "agency"}, verr.Missing)
	assert.Equal(t, StepDetails, w.Current())
	assert.NotContains(t, w.Record(), "fullName")
}

func TestStepValidation(t *testing.T) {
	cases := []struct {
		name    string
		state   StepState
		missing []string
	}{
		{"wages zero", Wages{Hours12: 100}, []string{"lessThan5Hours", "hours24"}},
		{"education negative experience", Education{Qualification: "BSc", Experience: -1, MaritalStatus: "married", Languages: []string{"Tamil"}}, []string{"experience"}},
		{"education no languages", Education{Qualification: "BSc", MaritalStatus: "married"}, []string{"languages"}},
		{"shifts empty", Shifts{}, []string{"preferredShifts"}},
		{"skills", Skills{Services: []string{"x"}}, []string{"jobRole"}},
		{"personal", PersonalInfo{Smoking: "no"}, []string{"foodPreference", "carryFood"}},
		{"testimonial", Testimonial{CustomerName: "A"}, []string{"customerPhone"}},
		{"idproof bad numbers", IDProof{AadharNumber: "1234", PanNumber: "abc", AadharFront: attachment("f"), AadharBack: attachment("b")}, []string{"aadharNumber", "panNumber"}},
		{"idproof missing scans", IDProof{AadharNumber: "123412341234", PanNumber: "abcde1234f"}, []string{"aadharFront", "aadharBack"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.state.Validate()
			var verr *pkgerrors.ValidationError
			require.True(t, stderrors.As(err, &verr))
			assert.Equal(t, tc.missing, verr.Missing)
		})
	}

	for _, st := range minimalStates() {
		assert.NoError(t, st.Validate(), st.Step())
	}
}

func TestGoBackKeepsRecordAndValues(t *testing.T) {
	w := New(verifiedGate(), nil)
	ctx := context.Background()
	_, err := w.Advance(ctx)
	require.NoError(t, err)

	states := minimalStates()
	require.NoError(t, w.Set(states[0]))
	_, err = w.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Set(states[1]))
	_, err = w.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, StepEducation, w.Current())

	before := w.Record()
	step, err := w.GoBack()
	require.NoError(t, err)
	assert.Equal(t, StepWages, step)
	assert.Equal(t, before, w.Record())
	assert.Equal(t, states[1], w.States().Wages)

	step, err = w.GoBack()
	require.NoError(t, err)
	assert.Equal(t, StepDetails, step)
	assert.Equal(t, states[0], w.States().Details)

	_, err = w.GoBack()
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepLocked)
	assert.Equal(t, StepDetails, w.Current())
}

func TestGoBackFromPhone(t *testing.T) {
	w := New(&fakeGate{}, nil)
	_, err := w.GoBack()
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)
}

func TestSetDeduplicatesSets(t *testing.T) {
	w := New(verifiedGate(), nil)
	require.NoError(t, w.Set(Education{Languages: []string{"Hindi", " Hindi", "", "Marathi"}}))
	assert.Equal(t, []string{"Hindi", "Marathi"}, w.States().Education.Languages)

	assert.ErrorIs(t, w.Set(PhoneState{PhoneNumber: "+91"}), pkgerrors.OnboardingStepInvalid)
}

func TestCompletionSubmitsOnceAndLocks(t *testing.T) {
	var submitted []Record
	sub := SubmitterFunc(func(_ context.Context, rec Record) error {
		submitted = append(submitted, rec)
		return nil
	})

	w := New(verifiedGate(), sub)
	ctx := context.Background()
	_, err := w.Advance(ctx)
	require.NoError(t, err)
	for _, st := range minimalStates() {
		require.NoError(t, w.Set(st))
		_, err = w.Advance(ctx)
		require.NoError(t, err)
	}

	require.True(t, w.Completed())
	require.Len(t, submitted, 1)
	assert.Equal(t, "+919999999999", submitted[0]["phoneNumber"])
	assert.Equal(t, "ABCDE1234F", submitted[0]["panNumber"])

	_, err = w.Advance(ctx)
	assert.ErrorIs(t, err, pkgerrors.WizardCompleted)
	_, err = w.GoBack()
	assert.ErrorIs(t, err, pkgerrors.WizardCompleted)
	assert.ErrorIs(t, w.Set(Wages{}), pkgerrors.WizardCompleted)
	assert.Len(t, submitted, 1)
}

func TestSubmitFailureKeepsIDProofStep(t *testing.T) {
	boom := stderrors.New("broker down")
	w := New(verifiedGate(), SubmitterFunc(func(context.Context, Record) error { return boom }))
	ctx := context.Background()
	_, err := w.Advance(ctx)
	require.NoError(t, err)

	for _, st := range minimalStates() {
		require.NoError(t, w.Set(st))
		_, err = w.Advance(ctx)
	}
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StepIDProof, w.Current())
	assert.NotContains(t, w.Record(), "aadharNumber")
}

func TestSnapshotRoundTrip(t *testing.T) {
	gate := verifiedGate()
	w := New(gate, nil)
	ctx := context.Background()
	_, err := w.Advance(ctx)
	require.NoError(t, err)
	states := minimalStates()
	require.NoError(t, w.Set(states[0]))
	_, err = w.Advance(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Set(states[2]))

	raw, err := json.Marshal(w.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))

	restored, err := Restore(gate, nil, snap)
	require.NoError(t, err)
	assert.Equal(t, StepWages, restored.Current())
	assert.Equal(t, states[0], restored.States().Details)
	assert.Equal(t, states[2], restored.States().Education)
	assert.Equal(t, "Asha Rao", restored.Record()["fullName"])

	_, err = Restore(&fakeGate{}, nil, snap)
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepLocked)

	_, err = Restore(gate, nil, Snapshot{Current: "nowhere"})
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)

	// 记录里缺了已走过步骤的字段
	broken := snap
	broken.Record = snap.Record.Clone()
	delete(broken.Record, "fullName")
	_, err = Restore(gate, nil, broken)
	assert.ErrorIs(t, err, pkgerrors.OnboardingStepInvalid)
}

func TestSummary(t *testing.T) {
	w := New(verifiedGate(), nil)
	_, ok := w.Summary()
	assert.False(t, ok)

	ctx := context.Background()
	_, err := w.Advance(ctx)
	require.NoError(t, err)
	for _, st := range minimalStates() {
		require.NoError(t, w.Set(st))
		_, err = w.Advance(ctx)
		require.NoError(t, err)
	}

	sum, ok := w.Summary()
	require.True(t, ok)
	assert.Equal(t, "+919999999999", sum.PhoneNumber)
	assert.Equal(t, "Asha Rao", sum.FullName)
	assert.Equal(t, 900, sum.Wages.Hours12)
	assert.Equal(t, []string{"Hindi", "English"}, sum.Languages)
	assert.Equal(t, "nurse", sum.JobRole)
}

func TestProgress(t *testing.T) {
	w := New(verifiedGate(), nil)
	_, err := w.Advance(context.Background())
	require.NoError(t, err)

	p := w.Progress()
	assert.Equal(t, StepDetails, p.Current)
	assert.Equal(t, 1, p.Index)
	assert.Equal(t, 9, p.Total)
	assert.True(t, p.Steps[0].Done)
	assert.False(t, p.Steps[1].Done)
}
