package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// classificationResponse mirrors the JSON schema the prompt instructs the
// model to emit
type classificationResponse struct {
	PrimaryCategory     string                 `json:"primary_category"`
	Confidence          *float64               `json:"confidence"`
	SecondaryCategories []string               `json:"secondary_categories"`
	Reasoning           string                 `json:"reasoning"`
	ExtractedEntities   map[string]interface{} `json:"extracted_entities"`
	RecommendedAction   string                 `json:"recommended_action"`
	Priority            string                 `json:"priority"`
}

// ExtractFencedBlock returns the content of the first triple-backtick fenced
// block (optionally labeled json), or the input unchanged when no complete
// fence is present.
func ExtractFencedBlock(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	rest := strings.TrimPrefix(text[start+3:], "json")
	end := strings.Index(rest, "```")
	if end < 0 {
		return text
	}
	return strings.TrimSpace(rest[:end])
}

// ParseClassificationResponse parses the model's textual reply into a
// ClassificationResult. Every parse failure is absorbed into the guaranteed
// low-confidence fallback; this function never returns an error.
func ParseClassificationResponse(responseText string) *ClassificationResult {
	result, err := parseStrict(responseText)
	if err != nil {
		return FallbackResult(err)
	}
	return result
}

func parseStrict(responseText string) (*ClassificationResult, error) {
	payload := ExtractFencedBlock(responseText)

	var resp classificationResponse
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	if resp.PrimaryCategory == "" {
		return nil, fmt.Errorf("missing primary_category")
	}
	primary, err := ParseCategory(resp.PrimaryCategory)
	if err != nil {
		return nil, err
	}

	confidence := 0.5
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}

	secondary := make([]Category, 0, len(resp.SecondaryCategories))
	for _, s := range resp.SecondaryCategories {
		c, err := ParseCategory(s)
		if err != nil {
			return nil, err
		}
		secondary = append(secondary, c)
	}

	return NewClassificationResult(
		primary,
		confidence,
		secondary,
		resp.Reasoning,
		resp.ExtractedEntities,
		resp.RecommendedAction,
		NormalizePriority(resp.Priority),
	)
}

// FallbackResult builds the guaranteed low-confidence result returned when
// response parsing fails. This is the sole error-absorption boundary of the
// classification pipeline.
func FallbackResult(cause error) *ClassificationResult {
	result, _ := NewClassificationResult(
		CategoryGeneralInquiry,
		0.3,
		nil,
		fmt.Sprintf("Failed to parse classification response: %v", cause),
		nil,
		"Manual review required",
		PriorityNormal,
	)
	return result
}
