package leads

import "strings"

var statusLabels = map[Status]string{
	StatusNew:       "New",
	StatusContacted: "Contacted",
	StatusResponded: "Responded",
	StatusQualified: "Qualified",
	StatusConverted: "Converted",
	StatusLost:      "Lost",
	StatusInvalid:   "Invalid",
}

var sourceLabels = map[Source]string{
	SourceFacebook:  "Facebook",
	SourceInstagram: "Instagram",
	SourceWalkIn:    "Walk-in",
	SourceReferral:  "Referral",
	SourceEmail:     "Email",
	SourceWebsite:   "Website",
	SourcePhone:     "Phone",
	SourceManual:    "Manual",
	SourceUnknown:   "Unknown",
}

// StatusLabel returns the human-readable label for a status. Unrecognized
// values fall back to the capitalized raw value so upstream additions don't
// render as blanks.
func StatusLabel(s Status) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return capitalize(string(s))
}

// SourceLabel returns the human-readable label for an acquisition channel,
// with the same capitalized-raw fallback as StatusLabel.
func SourceLabel(s Source) string {
	if l, ok := sourceLabels[s]; ok {
		return l
	}
	return capitalize(string(s))
}

// KnownSource reports whether s is part of the fixed source enumeration.
func KnownSource(s Source) bool {
	_, ok := sourceLabels[s]
	return ok
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
