package model

// IssueKind classifies a recorded problem by how far its effect reaches.
type IssueKind int

const (
	// KindWarning is informational: a missing optional asset or a
	// metadata finding. Nothing was skipped.
	KindWarning IssueKind = iota

	// KindPage means one page was skipped and left untouched on disk.
	KindPage

	// KindStage means a stage lost part of its work but continued.
	KindStage

	// KindFatal means the run stopped.
	KindFatal
)

// String returns a human-readable representation of the kind.
func (k IssueKind) String() string {
	switch k {
	case KindWarning:
		return "WARNING"
	case KindPage:
		return "PAGE"
	case KindStage:
		return "STAGE"
	case KindFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so JSON output carries the name.
func (k IssueKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *IssueKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "WARNING":
		*k = KindWarning
	case "PAGE":
		*k = KindPage
	case "STAGE":
		*k = KindStage
	case "FATAL":
		*k = KindFatal
	default:
		*k = KindWarning
	}
	return nil
}

// Issue is one entry of the run's error list.
type Issue struct {
	// Page is the page name, or the asset/file the issue is about.
	// Empty for run-wide issues.
	Page string `json:"page,omitempty"`

	// Stage is the pipeline step that recorded the issue.
	Stage string `json:"stage"`

	// Kind is the reach of the issue.
	Kind IssueKind `json:"kind"`

	// Reason is a short description an operator can act on.
	Reason string `json:"reason"`
}

// String formats the issue for text reports.
func (i Issue) String() string {
	s := "[" + i.Kind.String() + "] " + i.Stage
	if i.Page != "" {
		s += " " + i.Page
	}
	return s + ": " + i.Reason
}
