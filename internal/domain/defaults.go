package domain

// Built-in fallback criteria per job type. These are the last resort of
// the resolution order and are never persisted.

func scoreScale(labels, descriptions [ScoreLevels]string) []ScoreDescription {
	out := make([]ScoreDescription, 0, ScoreLevels)
	for i := 0; i < ScoreLevels; i++ {
		out = append(out, ScoreDescription{
			Score:       i + 1,
			Label:       labels[i],
			Description: descriptions[i],
		})
	}
	return out
}

var defaultJobTypeConfigs = map[string]JobTypeConfig{
	"engineer": {
		ID:          "engineer",
		Name:        "Software Engineer",
		Description: "Designs, builds and operates the product and its infrastructure.",
		Criteria: []EvaluationCriterion{
			{
				ID:          "logical_thinking",
				Name:        "Logical Thinking",
				Description: "Breaks problems down, reasons from evidence and explains trade-offs clearly.",
				Category:    CategoryCapability,
				Weight:      11,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Struggles to structure a problem; conclusions do not follow from stated reasons.",
						"Can follow a given structure but needs guidance to decompose unfamiliar problems.",
						"Independently decomposes problems and justifies decisions with evidence.",
						"Reframes ambiguous problems, anticipates second-order effects and articulates trade-offs.",
					},
				),
			},
			{
				ID:          "technical_expertise",
				Name:        "Technical Expertise",
				Description: "Depth and currency of engineering skills relevant to the role.",
				Category:    CategoryCapability,
				Weight:      15,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Lacks working knowledge of the core technologies for the role.",
						"Covers the basics but has not applied them beyond guided work.",
						"Has shipped and operated production systems with the relevant stack.",
						"Recognized depth; has led technical direction or mentored others in the area.",
					},
				),
			},
			{
				ID:          "learning_agility",
				Name:        "Learning Agility",
				Description: "Picks up new domains and tools quickly and applies them.",
				Category:    CategoryOrientation,
				Weight:      12,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Shows little evidence of learning outside assigned tasks.",
						"Learns when prompted but rarely seeks new material independently.",
						"Regularly and deliberately acquires new skills and applies them at work.",
						"Demonstrates rapid mastery of unfamiliar domains with concrete outcomes.",
					},
				),
			},
			{
				ID:          "collaboration",
				Name:        "Collaboration",
				Description: "Works effectively across functions and gives/receives feedback well.",
				Category:    CategoryValues,
				Weight:      10,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Prefers to work alone; feedback is deflected or ignored.",
						"Cooperates within the team but avoids cross-functional work.",
						"Builds productive relationships and incorporates feedback readily.",
						"Actively raises the whole team's output; sought out as a partner.",
					},
				),
			},
		},
		InterviewProcess: "Screening, technical interview, team interview, final interview with the hiring manager.",
	},
	"sales": {
		ID:          "sales",
		Name:        "Sales",
		Description: "Owns revenue targets and customer relationships.",
		Criteria: []EvaluationCriterion{
			{
				ID:          "customer_orientation",
				Name:        "Customer Orientation",
				Description: "Understands customer problems and builds durable trust.",
				Category:    CategoryValues,
				Weight:      14,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Talks product features without probing the customer's problem.",
						"Listens but struggles to convert customer needs into proposals.",
						"Consistently uncovers needs and tailors proposals to them.",
						"Customers treat them as a trusted advisor; expands accounts through trust.",
					},
				),
			},
			{
				ID:          "drive_for_results",
				Name:        "Drive for Results",
				Description: "Sets ambitious targets and persists through setbacks.",
				Category:    CategoryOrientation,
				Weight:      13,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Gives up when the first approach fails; targets are aspirational only.",
						"Meets targets when conditions are favorable.",
						"Reliably hits targets and adjusts tactics when blocked.",
						"Consistently exceeds targets and raises the bar for the team.",
					},
				),
			},
			{
				ID:          "communication",
				Name:        "Communication",
				Description: "Explains complex value propositions simply and negotiates well.",
				Category:    CategoryCapability,
				Weight:      11,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Explanations are hard to follow; loses the room in negotiations.",
						"Communicates adequately in routine settings.",
						"Adapts the message to the audience and holds their own in negotiation.",
						"Exceptional storyteller and negotiator; wins difficult rooms.",
					},
				),
			},
		},
		InterviewProcess: "Screening, role-play interview, field-manager interview, final interview.",
	},
	"corporate": {
		ID:          "corporate",
		Name:        "Corporate Staff",
		Description: "Back-office roles: HR, finance, legal and operations.",
		Criteria: []EvaluationCriterion{
			{
				ID:          "accuracy",
				Name:        "Accuracy and Reliability",
				Description: "Produces correct, dependable work under deadlines.",
				Category:    CategoryCapability,
				Weight:      13,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Frequent errors that others must catch.",
						"Mostly accurate but needs review on complex work.",
						"Work can be relied on without review; deadlines are kept.",
						"Builds checks that raise the accuracy of the whole function.",
					},
				),
			},
			{
				ID:          "process_improvement",
				Name:        "Process Improvement",
				Description: "Questions existing procedure and improves it.",
				Category:    CategoryOrientation,
				Weight:      10,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Follows procedure without asking whether it still makes sense.",
						"Flags problems but leaves fixing them to others.",
						"Identifies and implements improvements within their own scope.",
						"Drives improvements that change how adjacent teams work.",
					},
				),
			},
			{
				ID:          "integrity",
				Name:        "Integrity",
				Description: "Handles sensitive information and conflicts of interest correctly.",
				Category:    CategoryValues,
				Weight:      12,
				ScoreDescriptions: scoreScale(
					[ScoreLevels]string{"Insufficient", "Developing", "Solid", "Exceptional"},
					[ScoreLevels]string{
						"Careless with confidential information or rules.",
						"Follows the rules when reminded.",
						"Judgment on sensitive matters can be trusted without supervision.",
						"Sets the ethical standard others follow.",
					},
				),
			},
		},
		InterviewProcess: "Screening, department interview, final interview.",
	},
}

// DefaultJobTypeConfig returns the built-in config for the job type.
// Unknown job types fall back to the engineer config so the evaluation
// flow always has criteria to score against.
func DefaultJobTypeConfig(jobType string) JobTypeConfig {
	if cfg, ok := defaultJobTypeConfigs[jobType]; ok {
		return cfg
	}
	return defaultJobTypeConfigs["engineer"]
}

// DefaultJobTypes lists the job types with built-in configs.
func DefaultJobTypes() []string {
	return []string{"engineer", "sales", "corporate"}
}
