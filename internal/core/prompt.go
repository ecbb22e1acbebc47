package core

import (
	"fmt"
	"strings"
)

const systemPromptHeader = `You are an expert email classification agent for Penta Fine Ingredients, a company specializing in fine chemical ingredients.

Your job is to classify incoming customer service emails into one of the following categories:

%s

For each email, you must:
1. Analyze the email subject and body carefully
2. Determine the primary intent of the email
3. Extract any relevant entities (product names, order numbers, quantities, etc.)
4. Assign a confidence score (0.0 to 1.0)
5. Identify any secondary categories if applicable
6. Suggest a priority level (low, normal, high, urgent)
7. Provide a recommended action or routing

Consider:
- Product inquiries about chemical ingredients, specifications, or applications
- Quote requests may include specific quantities or technical requirements
- Regulatory compliance questions are common in the chemical industry
- Technical support may involve formulation questions or usage guidance

Be thorough in your analysis and provide clear reasoning for your classification.`

const userPromptFormat = `Please classify this customer service email:

Subject: %s

Body:
%s
%s
Provide your response in the following JSON format:
{
    "primary_category": "category_name",
    "confidence": 0.95,
    "secondary_categories": ["other_category"],
    "reasoning": "Detailed explanation of why you chose this classification",
    "extracted_entities": {
        "product_names": ["Product A", "Product B"],
        "order_number": "12345",
        "quantity": "500 kg",
        "other_info": "any other relevant extracted information"
    },
    "recommended_action": "Route to sales team for quote preparation",
    "priority": "normal"
}`

// BuildSystemPrompt assembles the classification system prompt: the full
// category taxonomy plus a condensed summary of any retrieval context.
func BuildSystemPrompt(retrieval *RetrievalContext) string {
	var descriptions []string
	for _, c := range AllCategories() {
		descriptions = append(descriptions, fmt.Sprintf("- %s: %s", c, c.Description()))
	}
	prompt := fmt.Sprintf(systemPromptHeader, strings.Join(descriptions, "\n"))

	if ctxText := formatRetrievalContext(retrieval); ctxText != "" {
		prompt += "\n\nRelevant Context:\n" + ctxText
	}
	return prompt
}

// formatRetrievalContext condenses retrieval hits into a short prompt section:
// labels and confidences of similar queries, names of relevant products.
func formatRetrievalContext(retrieval *RetrievalContext) string {
	if retrieval.Empty() {
		return ""
	}

	var parts []string
	if len(retrieval.SimilarQueries) > 0 {
		parts = append(parts, "Similar past queries:")
		for i, rec := range retrieval.SimilarQueries {
			if i >= 2 {
				break
			}
			label := metadataString(rec.Metadata, "classification")
			confidence := metadataFloat(rec.Metadata, "confidence")
			parts = append(parts, fmt.Sprintf("  - Category: %s (confidence: %.2f)", label, confidence))
		}
	}

	if len(retrieval.RelevantProducts) > 0 {
		if len(parts) > 0 {
			parts = append(parts, "")
		}
		parts = append(parts, "Relevant products:")
		for i, rec := range retrieval.RelevantProducts {
			if i >= 3 {
				break
			}
			parts = append(parts, fmt.Sprintf("  - %s", metadataString(rec.Metadata, "name")))
		}
	}

	return strings.Join(parts, "\n")
}

// BuildUserPrompt assembles the per-email user prompt with the fixed JSON
// response instructions
func BuildUserPrompt(email *Email) string {
	sender := ""
	if email.Sender != "" {
		sender = fmt.Sprintf("\nSender: %s\n", email.Sender)
	}
	return fmt.Sprintf(userPromptFormat, email.Subject, email.Body, sender)
}

func metadataString(meta map[string]interface{}, key string) string {
	if meta == nil {
		return ""
	}
	if v, ok := meta[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func metadataFloat(meta map[string]interface{}, key string) float64 {
	if meta == nil {
		return 0
	}
	switch v := meta[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}
