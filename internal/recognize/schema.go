package recognize

import (
	"strconv"

	"github.com/google/generative-ai-go/genai"

	"github.com/sheetscan/sheetscan/internal/domain"
)

// Extraction prompts, one per variant. The oracle is held to the response
// schema, so the prompts only establish task framing.
const (
	promptInfo = `Extract the handwritten registration fields from this scanned info sheet.
Read every field exactly as written. Use an empty string for any field that is blank or unreadable.
The date must be formatted YYYY-MM-DD. Respond with JSON only, matching the response schema.`

	promptVibe = `Extract the filled bubbles from this scanned vibe sheet.
For each of the 14 questions report the selected value, or null when no bubble is filled.
Also transcribe the free-text statement at the bottom verbatim; use an empty string when blank.
Respond with JSON only, matching the response schema.`

	promptStats = `Extract the handwritten answers from this scanned stats sheet.
For each of the 15 questions report the answer exactly as written, or an empty string when blank.
Respond with JSON only, matching the response schema.`

	promptAuto = `This is a scan of one of three answer-sheet layouts: an info sheet
(registration fields), a vibe sheet (14 bubble questions plus a free-text statement), or a
stats sheet (15 handwritten answers). First decide which layout it is, then extract its
fields into the matching payload object. Fill in only the payload for the detected layout.
Respond with JSON only, matching the response schema.`
)

func confidenceSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeNumber,
		Description: "Overall extraction confidence between 0 and 1",
	}
}

func infoSchema() *genai.Schema {
	props := map[string]*genai.Schema{
		"firstName":       {Type: genai.TypeString},
		"lastName":        {Type: genai.TypeString},
		"parentName":      {Type: genai.TypeString},
		"schoolName":      {Type: genai.TypeString},
		"date":            {Type: genai.TypeString, Description: "YYYY-MM-DD"},
		"grade":           {Type: genai.TypeString},
		"city":            {Type: genai.TypeString},
		"phoneNumber":     {Type: genai.TypeString},
		"email":           {Type: genai.TypeString},
		"studentId":       {Type: genai.TypeString},
		"confidenceScore": confidenceSchema(),
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   []string{"firstName", "studentId", "confidenceScore"},
	}
}

func vibeSchema() *genai.Schema {
	answers := make(map[string]*genai.Schema, domain.VibeQuestionCount)
	required := make([]string, 0, domain.VibeQuestionCount)
	for i := 1; i <= domain.VibeQuestionCount; i++ {
		key := "q" + strconv.Itoa(i)
		answers[key] = &genai.Schema{Type: genai.TypeInteger, Nullable: true}
		required = append(required, key)
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answers": {
				Type:       genai.TypeObject,
				Properties: answers,
				Required:   required,
			},
			"handwrittenStatement": {Type: genai.TypeString},
			"studentId":            {Type: genai.TypeString},
			"confidenceScore":      confidenceSchema(),
		},
		Required: []string{"answers", "studentId", "confidenceScore"},
	}
}

func statsSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, domain.StatsQuestionCount+2)
	required := make([]string, 0, domain.StatsQuestionCount+2)
	for i := 1; i <= domain.StatsQuestionCount; i++ {
		key := "q" + strconv.Itoa(i)
		props[key] = &genai.Schema{Type: genai.TypeString}
		required = append(required, key)
	}
	props["studentId"] = &genai.Schema{Type: genai.TypeString}
	props["confidenceScore"] = confidenceSchema()
	required = append(required, "studentId", "confidenceScore")
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   required,
	}
}

func autoSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"variant": {
				Type: genai.TypeString,
				Enum: []string{string(domain.VariantInfo), string(domain.VariantVibe), string(domain.VariantStats)},
			},
			"info":  infoSchema(),
			"vibe":  vibeSchema(),
			"stats": statsSchema(),
		},
		Required: []string{"variant"},
	}
}

// schemaForHint returns the prompt and response schema for a variant hint.
// An empty hint requests auto-detection.
func schemaForHint(hint domain.SheetVariant) (string, *genai.Schema) {
	switch hint {
	case domain.VariantInfo:
		return promptInfo, infoSchema()
	case domain.VariantVibe:
		return promptVibe, vibeSchema()
	case domain.VariantStats:
		return promptStats, statsSchema()
	default:
		return promptAuto, autoSchema()
	}
}
