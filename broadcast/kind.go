package broadcast

// Kind is the mutation a broadcast announces.
type Kind int

const (
	KindReport Kind = iota
	KindDeactivate
	KindReactivate
	KindAddScreenshot
	KindReplaceScreenshot
	KindUpdateExplanation
)

func (k Kind) String() string {
	switch k {
	case KindReport:
		return "report"
	case KindDeactivate:
		return "deactivate"
	case KindReactivate:
		return "reactivate"
	case KindAddScreenshot:
		return "add_screenshot"
	case KindReplaceScreenshot:
		return "replace_screenshot"
	case KindUpdateExplanation:
		return "update_explanation"
	}
	return "unknown"
}

// Notification is the one-line message sent with every broadcast of this
// kind. Unknown kinds get a generic line instead of failing.
func (k Kind) Notification() string {
	switch k {
	case KindReport:
		return "A bad actor has been reported."
	case KindDeactivate:
		return "A bad actor has been deactivated."
	case KindReactivate:
		return "A bad actor has been reactivated."
	case KindAddScreenshot:
		return "A screenshot proof has been added to a bad actor entry."
	case KindReplaceScreenshot:
		return "A screenshot has been replaced for a bad actor."
	case KindUpdateExplanation:
		return "The explanation for a bad actor has been updated."
	}
	return "A bad actor entry has been updated."
}

// EmbedColor picks the embed color for this kind: red for new danger,
// yellow for evidence updates, green for the rest.
func (k Kind) EmbedColor() int {
	switch k {
	case KindReport, KindReactivate:
		return 0xff0000
	case KindUpdateExplanation, KindReplaceScreenshot:
		return 0xffff00
	}
	return 0x65ff00
}
