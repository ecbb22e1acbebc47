package tools

import (
	"context"

	"github.com/penta/llm-email-classifier/internal/core"
)

// NewDefaultRegistry builds the registry of stock tools. The order,
// inventory and shipping tools are placeholders for the real business
// systems; search_knowledge_base runs against the live knowledge store when
// one is supplied.
func NewDefaultRegistry(kb core.KnowledgeStore) *Registry {
	r := NewRegistry()

	r.Register(Definition{
		Name:        "lookup_order",
		Description: "Look up an order by order ID or customer email",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"order_id": map[string]interface{}{
					"type":        "string",
					"description": "The order ID to look up",
				},
				"customer_email": map[string]interface{}{
					"type":        "string",
					"description": "Customer email address",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"status":         "example",
				"message":        "This is a placeholder. Integrate with your order management system.",
				"order_id":       args["order_id"],
				"customer_email": args["customer_email"],
			}, nil
		},
	})

	r.Register(Definition{
		Name:        "check_product_availability",
		Description: "Check if a product is available and get current pricing",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"product_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the product",
				},
				"product_id": map[string]interface{}{
					"type":        "string",
					"description": "Product ID or SKU",
				},
			},
			"required": []string{"product_name"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"status":       "example",
				"message":      "This is a placeholder. Integrate with your inventory system.",
				"product_name": args["product_name"],
				"product_id":   args["product_id"],
				"available":    true,
				"in_stock":     1000,
			}, nil
		},
	})

	r.Register(Definition{
		Name:        "get_shipping_quote",
		Description: "Get a shipping quote for a location and quantity",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"destination": map[string]interface{}{
					"type":        "string",
					"description": "Destination address or zip code",
				},
				"weight": map[string]interface{}{
					"type":        "number",
					"description": "Weight in pounds",
				},
				"quantity": map[string]interface{}{
					"type":        "number",
					"description": "Quantity of items",
				},
			},
			"required": []string{"destination"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			return map[string]interface{}{
				"status":         "example",
				"message":        "This is a placeholder. Integrate with your shipping system.",
				"destination":    args["destination"],
				"estimated_cost": "$25.00",
				"estimated_days": "3-5 business days",
			}, nil
		},
	})

	r.Register(Definition{
		Name:        "search_knowledge_base",
		Description: "Search the company knowledge base for information",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query",
				},
			},
			"required": []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
			query, _ := args["query"].(string)
			if kb == nil || query == "" {
				return map[string]interface{}{"query": query, "results": []interface{}{}}, nil
			}
			retrieval := kb.Context(ctx, query)
			results := make([]interface{}, 0, len(retrieval.RelevantProducts))
			for _, rec := range retrieval.RelevantProducts {
				results = append(results, map[string]interface{}{
					"document": rec.Document,
					"metadata": rec.Metadata,
				})
			}
			return map[string]interface{}{"query": query, "results": results}, nil
		},
	})

	return r
}
