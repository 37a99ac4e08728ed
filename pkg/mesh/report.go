package mesh

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Severity classifies a validation finding.
type Severity int

const (
	SeverityError   Severity = iota // mesh unusable
	SeverityWarning                 // usable but suspect
	SeverityInfo                    // statistics
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Finding codes produced by Validate.
const (
	CodeNoVertices         = "NO_VERTICES"
	CodeNoIndices          = "NO_INDICES"
	CodeIndicesNotTriples  = "INDICES_NOT_TRIPLES"
	CodeIndexOutOfRange    = "INDEX_OUT_OF_RANGE"
	CodeDegenerateTriangle = "DEGENERATE_TRIANGLE"
	CodeNonManifoldEdge    = "NON_MANIFOLD_EDGE"
	CodeNormalCount        = "NORMAL_COUNT_MISMATCH"
	CodeUVCount            = "UV_COUNT_MISMATCH"
	CodeUnnormalizedNormal = "UNNORMALIZED_NORMAL"
	CodeDuplicateVertex    = "DUPLICATE_VERTEX"
	CodeUnusedVertex       = "UNUSED_VERTEX"
	CodeLargeTriangle      = "LARGE_TRIANGLE"
	CodeSmallTriangle      = "SMALL_TRIANGLE"
	CodeExtremeVertex      = "EXTREME_VERTEX"
	CodeStats              = "STATS"
)

// Finding is a single validation message.
type Finding struct {
	Severity Severity
	Code     string
	Message  string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s: %s", f.Severity, f.Code, f.Message)
}

// Stats holds the derived statistics computed during validation.
type Stats struct {
	VertexCount   int
	TriangleCount int
	BoundsMin     v3.Vec
	BoundsMax     v3.Vec
	SurfaceArea   float64
	MeanArea      float64
	HasNormals    bool
	HasUVs        bool
}

// Report is the outcome of one Validate call. It is ephemeral: created
// per call and never retained by the mesh it describes.
type Report struct {
	Findings []Finding
	Stats    Stats
}

// IsValid returns true if the report contains no errors.
func (r *Report) IsValid() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// IsPerfect returns true if the report contains no errors and no warnings.
func (r *Report) IsPerfect() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError || f.Severity == SeverityWarning {
			return false
		}
	}
	return true
}

// Messages returns the messages of all findings with the given severity,
// in report order.
func (r *Report) Messages(s Severity) []string {
	var msgs []string
	for _, f := range r.Findings {
		if f.Severity == s {
			msgs = append(msgs, f.Message)
		}
	}
	return msgs
}

// ErrorMessages returns all error messages.
func (r *Report) ErrorMessages() []string { return r.Messages(SeverityError) }

// WarningMessages returns all warning messages.
func (r *Report) WarningMessages() []string { return r.Messages(SeverityWarning) }

// InfoMessages returns all info messages.
func (r *Report) InfoMessages() []string { return r.Messages(SeverityInfo) }

// Summary returns a one-line count of findings per severity.
func (r *Report) Summary() string {
	var errs, warns, infos int
	for _, f := range r.Findings {
		switch f.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		case SeverityInfo:
			infos++
		}
	}
	return fmt.Sprintf("errors: %d, warnings: %d, info: %d", errs, warns, infos)
}

func (r *Report) add(s Severity, code, format string, args ...interface{}) {
	r.Findings = append(r.Findings, Finding{
		Severity: s,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}
