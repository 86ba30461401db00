package gemini

import (
	"google.golang.org/genai"

	"github.com/Avinashhmavii/TIME-AI-Coach/internal/ai"
)

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func boolSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeBoolean, Description: description}
}

func scoringSchema() *genai.Schema {
	minScore := float64(ai.MinScore)
	maxScore := float64(ai.MaxScore)

	properties := make(map[string]*genai.Schema, len(ai.Categories))
	for _, category := range ai.Categories {
		properties[string(category)] = &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"score":         {Type: genai.TypeInteger, Minimum: &minScore, Maximum: &maxScore},
				"justification": stringSchema("One line explaining the score."),
			},
			Required: []string{"score", "justification"},
		}
	}

	return &genai.Schema{
		Type:        genai.TypeObject,
		Description: "Scores for the latest answer. Omit when the interview is ending on request.",
		Properties:  properties,
	}
}

var agentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"contentFeedback": stringSchema("Feedback on the substance of the answer, including how it aligns with the resume."),
		"toneFeedback":    stringSchema("Feedback on the tone of the answer."),
		"clarityFeedback": stringSchema("Feedback on the clarity of the answer."),
		"visualFeedback":  stringSchema("Feedback on visual presentation based on the snapshot, empty without one."),
		"scoring":         scoringSchema(),
		"nextQuestion":    stringSchema("The next question, or the closing remark when the interview is over."),
		"isInterviewOver": boolSchema("True when this reply concludes the interview."),
	},
	Required: []string{"nextQuestion", "isInterviewOver"},
}

var iceBreakerSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"question": stringSchema("A single friendly ice-breaker message ending with a readiness question."),
	},
	Required: []string{"question"},
}

var resumeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isResume":          boolSchema("Whether the document appears to be a resume."),
		"skills":            {Type: genai.TypeArray, Items: stringSchema("A key skill.")},
		"experienceSummary": stringSchema("Summary of relevant experience."),
	},
	Required: []string{"isResume", "skills", "experienceSummary"},
}

var validatorSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"isValid": boolSchema("Whether the text is appropriate."),
		"reason":  stringSchema("Why the text is not appropriate, without repeating it."),
	},
	Required: []string{"isValid"},
}

var questionsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"questions": {
			Type:        genai.TypeArray,
			Description: "Interview questions tailored to the job role, company and resume.",
			Items:       stringSchema("One interview question."),
		},
	},
	Required: []string{"questions"},
}
