package directory

import "strings"

// Known center categories.
const (
	TypeDiagnosticCenter = "Diagnostic Center"
	TypeScanCenter       = "Scan Center"
	TypeLab              = "Lab"
	TypeHospital         = "Hospital"
)

// InferCenterType infers a category from the search keyword, falling back
// to the listing name. Marker priority: diagnostic > scan > lab > hospital.
// Returns "" when neither string carries a marker.
func InferCenterType(keyword, name string) string {
	if t := typeFromMarkers(keyword); t != "" {
		return t
	}
	return typeFromMarkers(name)
}

func typeFromMarkers(s string) string {
	lowered := strings.ToLower(s)
	switch {
	case strings.Contains(lowered, "diagnostic"):
		return TypeDiagnosticCenter
	case strings.Contains(lowered, "scan"):
		return TypeScanCenter
	case strings.Contains(lowered, "lab") || strings.Contains(lowered, "laboratory"):
		return TypeLab
	case strings.Contains(lowered, "hospital"):
		return TypeHospital
	}
	return ""
}
