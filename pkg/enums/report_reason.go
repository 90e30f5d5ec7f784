package enums

import "slices"

// ReportReason lists the accepted abuse report reasons.
type ReportReason string

const (
	ReportReasonAdult     ReportReason = "adult"
	ReportReasonViolent   ReportReason = "violent"
	ReportReasonHarass    ReportReason = "harass"
	ReportReasonHateful   ReportReason = "hateful"
	ReportReasonHarmful   ReportReason = "harmful"
	ReportReasonAbuse     ReportReason = "abuse"
	ReportReasonTerrorism ReportReason = "terrorism"
	ReportReasonSpam      ReportReason = "spam"
	ReportReasonMislead   ReportReason = "mislead"
)

var validReportReasons = []ReportReason{
	ReportReasonAdult,
	ReportReasonViolent,
	ReportReasonHarass,
	ReportReasonHateful,
	ReportReasonHarmful,
	ReportReasonAbuse,
	ReportReasonTerrorism,
	ReportReasonSpam,
	ReportReasonMislead,
}

// IsValid reports whether the value matches a known report reason.
func (v ReportReason) IsValid() bool {
	return slices.Contains(validReportReasons, v)
}

// ParseReportReason converts raw input into ReportReason.
func ParseReportReason(value string) (ReportReason, error) {
	return parse(validReportReasons, "report reason", value)
}
