package generator

import (
	"fmt"
	"strings"
)

// regionRules are appended to every prompt so the model applies the target
// market's conventions instead of defaulting to a US resume.
var regionRules = map[string]string{
	"Kenya/UK": "Use British spelling and DD/MM/YYYY dates. Title the document 'Curriculum Vitae'. Include a Referees section. A personal details block (nationality, languages) is acceptable.",
	"USA":      "Use American spelling and MM/DD/YYYY dates. Keep it to a one-page Resume. Do NOT include photo, age, marital status or other personal details. Optimize wording for ATS keyword matching.",
	"Canada":   "Use Canadian/American spelling. Follow the North American resume format: no photo, no personal details, achievement-oriented bullet points.",
	"Europass": "Follow the Europass CV structure: personal information, work experience, education and training, then language and digital skills sections.",
}

// BuildPrompt composes the single-turn instruction for a real generation.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Act as a professional Resume Writer.\n")
	fmt.Fprintf(&b, "Write a %s style resume for a %s role. Visual Style: %s.\n\n", req.Region, req.Category, req.Style)
	fmt.Fprintf(&b, "REGIONAL FORMATTING RULES: %s\n\n", regionRules[req.Region])
	fmt.Fprintf(&b, "USER EXPERIENCE: %s\n", req.CandidateHistory)
	if strings.TrimSpace(req.JobDescription) != "" {
		fmt.Fprintf(&b, "JOB DESCRIPTION: %s\n", req.JobDescription)
	}
	b.WriteString("\nReturn ONLY the resume text. No conversational filler.")
	return b.String()
}

// BuildSamplePrompt composes the instruction for a demo showcase document.
func BuildSamplePrompt(category, region, style string) string {
	return fmt.Sprintf(
		"Generate a realistic, text-heavy, ATS-optimized %s resume for a senior %s professional. Visual Style: %s. %s No placeholders.",
		region, category, style, regionRules[region],
	)
}
