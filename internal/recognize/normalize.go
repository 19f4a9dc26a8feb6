package recognize

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sheetscan/sheetscan/internal/domain"
)

// Oracle wire payloads. Only the vibe sheet needs a dedicated shape: its
// answers arrive as a nested group that must be flattened into the flat
// per-question fields the assembler expects.
type vibePayload struct {
	Answers              map[string]*int `json:"answers"`
	HandwrittenStatement *string         `json:"handwrittenStatement"`
	StudentID            string          `json:"studentId"`
}

type autoPayload struct {
	Variant string          `json:"variant"`
	Info    json.RawMessage `json:"info"`
	Vibe    json.RawMessage `json:"vibe"`
	Stats   json.RawMessage `json:"stats"`
}

type confidencePayload struct {
	ConfidenceScore float64 `json:"confidenceScore"`
}

// decodeOutcome turns a raw oracle response into a normalized outcome. hint
// selects the expected payload shape; an empty hint means the response is the
// auto-detect envelope and carries the detected variant itself.
func decodeOutcome(raw []byte, hint domain.SheetVariant) (domain.RecognitionOutcome, error) {
	if hint == "" {
		var env autoPayload
		if err := json.Unmarshal(raw, &env); err != nil {
			return domain.RecognitionOutcome{}, domain.RecognitionError("oracle returned malformed auto-detect payload", err)
		}
		variant, err := domain.ParseVariant(env.Variant)
		if err != nil {
			return domain.RecognitionOutcome{}, domain.RecognitionError("oracle returned unknown variant tag", err)
		}
		var inner json.RawMessage
		switch variant {
		case domain.VariantInfo:
			inner = env.Info
		case domain.VariantVibe:
			inner = env.Vibe
		case domain.VariantStats:
			inner = env.Stats
		}
		if len(inner) == 0 {
			return domain.RecognitionOutcome{}, domain.RecognitionError(
				fmt.Sprintf("oracle detected %s but returned no %s payload", variant, variant), nil)
		}
		return decodeOutcome(inner, variant)
	}

	var conf confidencePayload
	if err := json.Unmarshal(raw, &conf); err != nil {
		return domain.RecognitionOutcome{}, domain.RecognitionError("oracle returned malformed payload", err)
	}

	fields, err := decodeFields(raw, hint)
	if err != nil {
		return domain.RecognitionOutcome{}, err
	}
	if err := fields.Validate(); err != nil {
		return domain.RecognitionOutcome{}, domain.RecognitionError("oracle payload failed validation", err)
	}

	return domain.RecognitionOutcome{
		Variant:    hint,
		Fields:     fields,
		Confidence: clampConfidence(conf.ConfidenceScore),
	}, nil
}

func decodeFields(raw []byte, variant domain.SheetVariant) (domain.FieldSet, error) {
	switch variant {
	case domain.VariantInfo:
		var fields domain.InfoFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, domain.RecognitionError("oracle returned malformed info payload", err)
		}
		repairInfo(&fields)
		return &fields, nil

	case domain.VariantVibe:
		var payload vibePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, domain.RecognitionError("oracle returned malformed vibe payload", err)
		}
		return flattenVibe(payload), nil

	case domain.VariantStats:
		var fields domain.StatsFields
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, domain.RecognitionError("oracle returned malformed stats payload", err)
		}
		return &fields, nil

	default:
		return nil, domain.RecognitionError(fmt.Sprintf("unknown variant %q", variant), nil)
	}
}

// repairInfo applies the single-name fallback: sheets signed with one name
// leave the secondary name field blank, so it is set to the primary name.
// This is intentional policy, not a bug workaround.
func repairInfo(fields *domain.InfoFields) {
	if fields.LastName == "" {
		fields.LastName = fields.FirstName
	}
}

// flattenVibe converts the oracle's nested answer group into the flat
// per-question field set, defaulting the free-text statement to an empty
// string when absent.
func flattenVibe(payload vibePayload) *domain.VibeFields {
	fields := &domain.VibeFields{StudentID: payload.StudentID}
	for i := 0; i < domain.VibeQuestionCount; i++ {
		fields.Answers[i] = payload.Answers["q"+strconv.Itoa(i+1)]
	}
	if payload.HandwrittenStatement != nil {
		fields.HandwrittenStatement = *payload.HandwrittenStatement
	}
	return fields
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
