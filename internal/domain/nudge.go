package domain

// NudgeStep identifies which funnel step a nudge targets.
type NudgeStep int

const (
	NudgeStepNone NudgeStep = iota
	NudgeStep1
	NudgeStep2
	NudgeStep3
)

// String returns the wire name of the step ("step1".."step3").
func (s NudgeStep) String() string {
	switch s {
	case NudgeStep1:
		return "step1"
	case NudgeStep2:
		return "step2"
	case NudgeStep3:
		return "step3"
	default:
		return "none"
	}
}

// ParseNudgeStep maps the wire name back to a step. Unknown names map to
// NudgeStepNone.
func ParseNudgeStep(s string) NudgeStep {
	switch s {
	case "step1":
		return NudgeStep1
	case "step2":
		return NudgeStep2
	case "step3":
		return NudgeStep3
	default:
		return NudgeStepNone
	}
}

// NudgeTag is the de-duplication marker recorded once a scheduled nudge is
// sent. The tag set on the end user is the authoritative guard for the sweep.
type NudgeTag string

const (
	TagNudgeStep1 NudgeTag = "nudge_step1"
	TagNudgeStep2 NudgeTag = "nudge_step2"
	TagNudgeStep3 NudgeTag = "nudge_step3"
)

// Tag returns the de-duplication tag for a step, "" for NudgeStepNone.
func (s NudgeStep) Tag() NudgeTag {
	switch s {
	case NudgeStep1:
		return TagNudgeStep1
	case NudgeStep2:
		return TagNudgeStep2
	case NudgeStep3:
		return TagNudgeStep3
	default:
		return ""
	}
}

// TagSet is the set of nudge tags already sent to an end user. Append-only.
type TagSet []NudgeTag

// Contains reports whether the set holds the given tag.
func (s TagSet) Contains(t NudgeTag) bool {
	for _, v := range s {
		if v == t {
			return true
		}
	}
	return false
}

// Strings converts the set for the storage boundary.
func (s TagSet) Strings() []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = string(v)
	}
	return out
}

// TagSetFromStrings validates raw storage values into a TagSet, dropping
// empties and duplicates.
func TagSetFromStrings(raw []string) TagSet {
	var out TagSet
	for _, v := range raw {
		if v == "" {
			continue
		}
		tag := NudgeTag(v)
		if !out.Contains(tag) {
			out = append(out, tag)
		}
	}
	return out
}

// Selection is the outcome of evaluating one end user: which nudge (if any)
// applies, with the resolved email content. Tag is empty for manual-mode
// selections, which are never recorded against the tag set.
type Selection struct {
	Step    NudgeStep
	Subject string
	Body    string
	Tag     NudgeTag
}

// None reports whether no nudge was selected.
func (s Selection) None() bool { return s.Step == NudgeStepNone }
