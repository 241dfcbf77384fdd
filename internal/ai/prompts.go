package ai

import "hirescore/internal/config"

// DefaultSystemPrompt is the single system instruction shared by all four
// analysis kinds.
const DefaultSystemPrompt = `You are an experienced recruiting-evaluation consultant. You assess candidates against explicit, weighted evaluation criteria using only the information provided.

Your principles:
- Base every judgement on the supplied candidate, company, and job data; never invent facts
- Score strictly against the listed criteria and their weights
- Be candid about uncertainty; express it through the confidence fields
- Respond ONLY with a JSON object in the exact form requested - no prose, no markdown, nothing outside the JSON`

// InstructionSet holds the per-kind instruction headers that open each
// user prompt. The data sections and JSON schema footer are assembled
// around these.
type InstructionSet struct {
	Evaluation string
	Matching   string
	Questions  string
	Turnover   string
}

// DefaultInstructions provides the built-in instruction headers.
var DefaultInstructions = InstructionSet{
	Evaluation: `Assess the overall fit of the following candidate for the position. Weigh the evaluation criteria by their listed weights, consider the company context, and produce a single recommended score with your reasoning, key strengths, risk factors, and recommendations for the hiring team.`,

	Matching: `Assess how well the following candidate satisfies each evaluation criterion individually. For every criterion, give a matching score, your confidence, concrete evidence from the candidate data, concerns, and recommendations. Then summarize the overall match.`,

	Questions: `Design interview questions for the following candidate. Each question should target specific evaluation criteria, probe areas the existing material leaves unclear, and state what insight the interviewer should expect to gain.`,

	Turnover: `Estimate the risk that the following candidate, if hired, leaves the company within one year. Consider motivation signals, career trajectory, and fit with the company culture described below. Identify the concrete factors driving your estimate and what the company could do to mitigate them.`,
}

// systemPrompt returns the active system instruction, preferring a
// file override when one is loaded.
func systemPrompt() string {
	if o := config.GetPromptOverrides().System; o != "" {
		return o
	}
	return DefaultSystemPrompt
}

// instructionsFor returns the active instruction header for a kind,
// preferring a file override when one is loaded.
func instructionsFor(kind Kind) string {
	overrides := config.GetPromptOverrides()
	switch kind {
	case KindEvaluation:
		return resolvePrompt(overrides.Evaluation, DefaultInstructions.Evaluation)
	case KindMatching:
		return resolvePrompt(overrides.Matching, DefaultInstructions.Matching)
	case KindQuestions:
		return resolvePrompt(overrides.Questions, DefaultInstructions.Questions)
	case KindTurnover:
		return resolvePrompt(overrides.Turnover, DefaultInstructions.Turnover)
	default:
		return ""
	}
}

// resolvePrompt selects the override when present, the default otherwise.
func resolvePrompt(loadedFromFile, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	return fromDefault
}

// Requested JSON schemas, one per kind. Rendered verbatim at the end of
// each prompt so the model returns exactly the fields the parser and the
// rest of the system expect.
const (
	evaluationSchema = `{
  "recommendedScore": <integer 1-5>,
  "confidence": <number 0-1>,
  "reasoning": "<string>",
  "strengths": ["<string>", ...],
  "riskFactors": ["<string>", ...],
  "recommendations": ["<string>", ...]
}`

	matchingSchema = `{
  "overallMatchingScore": <integer 1-5>,
  "overallConfidence": <number 0-1>,
  "overallReasoning": "<string>",
  "criteriaAnalysis": [
    {
      "criterionId": "<string, the id listed above>",
      "criterionName": "<string>",
      "matchingScore": <integer 1-5>,
      "confidence": <number 0-1>,
      "reasoning": "<string>",
      "evidences": ["<string>", ...],
      "concerns": ["<string>", ...],
      "recommendations": ["<string>", ...]
    }
  ],
  "strengths": ["<string>", ...],
  "weaknesses": ["<string>", ...],
  "recommendations": ["<string>", ...],
  "riskFactors": ["<string>", ...]
}`

	questionsSchema = `{
  "questions": [
    {
      "question": "<string>",
      "purpose": "<string>",
      "targetCriteria": ["<criterion id>", ...],
      "expectedInsights": ["<string>", ...]
    }
  ]
}`

	turnoverSchema = `{
  "riskLevel": "low" | "medium" | "high",
  "riskScore": <number 0-1>,
  "factors": ["<string>", ...],
  "recommendations": ["<string>", ...]
}`
)

// schemaFor returns the requested response schema for a kind.
func schemaFor(kind Kind) string {
	switch kind {
	case KindEvaluation:
		return evaluationSchema
	case KindMatching:
		return matchingSchema
	case KindQuestions:
		return questionsSchema
	case KindTurnover:
		return turnoverSchema
	default:
		return ""
	}
}
