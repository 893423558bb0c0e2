package models

// WarningCode classifies a non-fatal conversion problem.
type WarningCode string

const (
	WarnUnsupportedObject WarningCode = "unsupported_object"
	WarnDanglingBinding   WarningCode = "dangling_binding"
	WarnMissingImage      WarningCode = "missing_image"
)

// ConversionWarning records a per-object problem that did not abort the
// conversion (the object was skipped or the binding cleared).
type ConversionWarning struct {
	Code     WarningCode `json:"code"`
	ObjectID string      `json:"objectId,omitempty"`
	Message  string      `json:"message"`
}

// ConversionResult summarizes one conversion run.
type ConversionResult struct {
	ElementCount int                 `json:"elementCount"`
	ImageCount   int                 `json:"imageCount"`
	Warnings     []ConversionWarning `json:"warnings"`
	OutputSize   int64               `json:"outputSize"`
	DurationMs   int64               `json:"durationMs"`
}
