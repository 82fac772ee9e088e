package prompts

import (
	"fmt"
	"strings"

	_ "embed"
)

// JudgeSystem is the system instruction of the evaluation request.
const JudgeSystem = "You are a senior technical interviewer."

var (
	//go:embed templates/system.md
	systemTemplate string
	//go:embed templates/judge.md
	judgeTemplate string
	//go:embed templates/dsa.md
	dsaTemplate string
	//go:embed templates/system_design.md
	systemDesignTemplate string
	//go:embed templates/technical.md
	technicalTemplate string
	//go:embed templates/projects.md
	projectsTemplate string
	//go:embed templates/internships.md
	internshipsTemplate string
	//go:embed templates/hr.md
	hrTemplate string
)

// StarterInput carries the already truncated documents and the interviewer persona.
type StarterInput struct {
	Resume         string
	JobDescription string
	Designation    string
	Company        string
}

// Builder renders the starter instruction of a round.
type Builder func(in StarterInput) string

var builders = map[RoundType]Builder{
	RoundDSA:          fromTemplate(dsaTemplate),
	RoundSystemDesign: fromTemplate(systemDesignTemplate),
	RoundTechnical:    fromTemplate(technicalTemplate),
	RoundProjects:     fromTemplate(projectsTemplate),
	RoundInternships:  fromTemplate(internshipsTemplate),
	RoundHR:           fromTemplate(hrTemplate),
}

// System returns the interviewer system instruction.
func System() string {
	return strings.TrimSpace(systemTemplate)
}

// Starter renders the first user instruction for the given round.
func Starter(round RoundType, in StarterInput) (string, error) {
	build, ok := builders[round]
	if !ok {
		return "", fmt.Errorf("no prompt for interview round %q", round)
	}
	return build(in), nil
}

// Judge renders the evaluation instruction around the rendered transcript.
func Judge(resume, jobDescription, transcript string) string {
	return render(judgeTemplate, map[string]string{
		"RESUME":          resume,
		"JOB_DESCRIPTION": jobDescription,
		"TRANSCRIPT":      transcript,
	})
}

func fromTemplate(template string) Builder {
	return func(in StarterInput) string {
		return render(template, map[string]string{
			"RESUME":          in.Resume,
			"JOB_DESCRIPTION": in.JobDescription,
			"DESIGNATION":     orDefault(in.Designation, Designations[0]),
			"COMPANY":         orDefault(in.Company, Companies[len(Companies)-1]),
		})
	}
}

// render replaces {{KEY}} placeholders in a single pass so substituted
// values are never scanned for placeholders again.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.TrimSpace(strings.NewReplacer(pairs...).Replace(template))
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
