package analysis

import (
	"fmt"
	"strings"

	"greenintellect-backend/internal/companies"
)

// CompanyPrompt builds the greenwashing analysis request for a scored company.
func CompanyPrompt(c companies.Company) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please provide a comprehensive greenwashing analysis for %s, a company in the %s industry. Here are their sustainability scores:\n\n", c.Name, c.Industry)

	b.WriteString("**Company Details:**\n")
	fmt.Fprintf(&b, "- Company: %s\n", c.Name)
	fmt.Fprintf(&b, "- Industry: %s\n", c.Industry)
	fmt.Fprintf(&b, "- Report Year: %d\n", c.ReportYear)
	fmt.Fprintf(&b, "- Overall Greenwashing Score: %d/100\n", c.OverallScore)
	fmt.Fprintf(&b, "- Net Action Direction: %s\n\n", c.NetActionDirection)

	b.WriteString("**Individual Scores:**\n")
	fmt.Fprintf(&b, "- Focus Score: %d/100 (measures clarity of environmental focus and commitment)\n", c.FocusScore)
	fmt.Fprintf(&b, "- Environment Score: %d/100 (evaluates actual environmental impact and initiatives)\n", c.EnvironmentScore)
	fmt.Fprintf(&b, "- Claims Score: %d/100 (assesses accuracy and verifiability of environmental claims)\n", c.ClaimsScore)
	fmt.Fprintf(&b, "- Actions Score: %d/100 (analyzes real actions taken to achieve environmental goals)\n\n", c.ActionsScore)

	b.WriteString("**Analysis Required:**\n\n")
	b.WriteString("1. **Overall Assessment**\n")
	fmt.Fprintf(&b, "   - Explain why %s has an overall score of %d/100\n", c.Name, c.OverallScore)
	fmt.Fprintf(&b, "   - Classify this as %s greenwashing risk and explain why\n\n", companies.RiskLevel(c.OverallScore))

	b.WriteString("2. **Individual Score Analysis**\n")
	fmt.Fprintf(&b, "   - Break down what each score means for %s\n", c.Name)
	b.WriteString("   - Identify the strongest and weakest areas\n")
	fmt.Fprintf(&b, "   - Explain how these scores relate to typical %s industry practices\n\n", c.Industry)

	b.WriteString("3. **Greenwashing Risk Assessment**\n")
	fmt.Fprintf(&b, "   - Based on the %s net action direction, assess the likelihood of greenwashing\n", c.NetActionDirection)
	b.WriteString("   - Provide specific red flags or positive indicators\n")
	b.WriteString("   - Compare against industry benchmarks\n\n")

	b.WriteString("4. **Investment Recommendations**\n")
	b.WriteString("   - Provide clear guidance for investors and stakeholders\n")
	b.WriteString("   - Highlight key areas to monitor\n")
	fmt.Fprintf(&b, "   - Suggest questions to ask %s about their sustainability practices\n\n", c.Name)

	b.WriteString("5. **Industry Context**\n")
	fmt.Fprintf(&b, "   - How does %s compare to other %s companies?\n", c.Name, c.Industry)
	fmt.Fprintf(&b, "   - What are the unique sustainability challenges in %s?\n\n", c.Industry)

	b.WriteString("Please provide specific, actionable insights and avoid generic statements. Use the company name throughout the analysis to make it personalized.")
	return b.String()
}

// ReportPrompt asks for an analysis of text extracted from an uploaded report.
func ReportPrompt(companyName string, reportYear int, excerpt string, truncated bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please provide a comprehensive greenwashing analysis of the %d sustainability report published by %s.\n\n", reportYear, companyName)
	b.WriteString("**Analysis Required:**\n\n")
	b.WriteString("1. **Overall Assessment**: summarize the report's environmental commitments and classify the greenwashing risk as LOW, MODERATE or HIGH.\n")
	b.WriteString("2. **Claims Review**: list specific environmental claims and whether the report provides verifiable evidence for each.\n")
	b.WriteString("3. **Actions vs. Statements**: contrast concrete actions and measured outcomes against aspirational language.\n")
	b.WriteString("4. **Red Flags and Positive Indicators**: vague terminology, missing baselines, selective disclosure, third-party assurance.\n")
	b.WriteString("5. **Investor Questions**: questions stakeholders should ask the company.\n\n")
	b.WriteString("**Report Text")
	if truncated {
		b.WriteString(" (excerpt)")
	}
	b.WriteString(":**\n\n")
	b.WriteString(excerpt)
	return b.String()
}
