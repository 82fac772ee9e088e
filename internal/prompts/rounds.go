package prompts

import (
	"fmt"
	"strings"
)

// RoundType selects the kind of interview round and its starter prompt.
type RoundType int

const (
	RoundUnknown RoundType = iota
	RoundDSA
	RoundSystemDesign
	RoundTechnical
	RoundProjects
	RoundInternships
	RoundHR
)

var roundNames = map[RoundType]string{
	RoundDSA:          "DSA",
	RoundSystemDesign: "System Design",
	RoundTechnical:    "Technical",
	RoundProjects:     "Projects",
	RoundInternships:  "Internships",
	RoundHR:           "HR",
}

var roundSlugs = map[RoundType]string{
	RoundDSA:          "dsa",
	RoundSystemDesign: "system-design",
	RoundTechnical:    "technical",
	RoundProjects:     "projects",
	RoundInternships:  "internships",
	RoundHR:           "hr",
}

// RoundTypes lists the supported rounds in display order.
func RoundTypes() []RoundType {
	return []RoundType{RoundDSA, RoundSystemDesign, RoundTechnical, RoundProjects, RoundInternships, RoundHR}
}

func (r RoundType) String() string {
	if name, ok := roundNames[r]; ok {
		return name
	}
	return "unknown"
}

// Slug is the identifier used in forms, flags and config files.
func (r RoundType) Slug() string {
	return roundSlugs[r]
}

func (r RoundType) Valid() bool {
	_, ok := roundNames[r]
	return ok
}

// ParseRoundType accepts a display name ("System Design") or a slug
// ("system-design", "system_design"), case-insensitively.
func ParseRoundType(s string) (RoundType, error) {
	key := normalizeRound(s)
	for _, r := range RoundTypes() {
		if key == normalizeRound(r.String()) || key == normalizeRound(r.Slug()) {
			return r, nil
		}
	}
	return RoundUnknown, fmt.Errorf("unknown interview round: %q", s)
}

func normalizeRound(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}

func (r RoundType) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown interview round: %d", int(r))
	}
	return []byte(r.Slug()), nil
}

func (r *RoundType) UnmarshalText(text []byte) error {
	parsed, err := ParseRoundType(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Companies offered by the setup form.
var Companies = []string{"Google", "Amazon", "Microsoft", "Startup"}

// Designations are the recruiter personas offered by the setup form.
var Designations = []string{"HR Recruiter", "Technical Recruiter", "Hiring Manager", "Engineering Manager"}
