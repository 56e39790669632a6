package scoring

import (
	"fmt"

	"github.com/turtacn/EntityRisk-Intelligence/internal/domain/search"
)

// Prompt field bounds. Snippets may come from the corpus gateway, so the
// snippet bound here matches the wider corpus limit; the context is the
// originating query and stays short.
const (
	promptTitleLen   = 200
	promptURLLen     = 500
	promptSnippetLen = 1000
	promptContextLen = 500
)

const promptTemplate = `Analyze this search result for comprehensive entity screening and risk assessment:

Title: %s
URL: %s
Content: %s
Search Context: %s

Provide a detailed risk analysis in JSON format:
{
    "summary": "concise summary of the content (max 150 words)",
    "risk_assessment": {
        "overall_risk_score": 0.75,
        "risk_level": "HIGH",
        "financial_crimes_risk": 0.8,
        "corruption_risk": 0.6,
        "regulatory_risk": 0.7,
        "reputational_risk": 0.9
    },
    "key_findings": [
        "Specific finding 1 with evidence",
        "Specific finding 2 with evidence",
        "Specific finding 3 with evidence"
    ],
    "risk_factors": [
        "Factor 1: Description and impact",
        "Factor 2: Description and impact"
    ],
    "compliance_concerns": [
        "Concern 1: Regulatory implication",
        "Concern 2: Legal implication"
    ],
    "source_credibility": {
        "credibility_score": 0.9,
        "source_type": "government/news/academic/legal",
        "publication_date": "estimated date if available"
    },
    "relevance_score": 0.85,
    "confidence_level": 0.8
}

Risk scoring guidelines:
- 0.0-0.3: LOW risk
- 0.4-0.6: MEDIUM risk
- 0.7-0.8: HIGH risk
- 0.9-1.0: CRITICAL risk

Focus on financial crimes, corruption, regulatory violations, and reputational issues.`

// BuildPrompt renders the per-result analysis prompt with every field
// truncated to its bound so one oversized result cannot blow the token
// budget.
func BuildPrompt(result search.Result, queryContext string) string {
	return fmt.Sprintf(promptTemplate,
		search.Truncate(result.Title, promptTitleLen),
		search.Truncate(result.URL, promptURLLen),
		search.Truncate(result.Snippet, promptSnippetLen),
		search.Truncate(queryContext, promptContextLen),
	)
}
