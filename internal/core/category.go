package core

import "fmt"

// Category is one label from the fixed classification taxonomy.
// The set is closed: the only way a string becomes a Category is
// ParseCategory, and unknown strings are rejected there.
type Category string

const (
	CategoryQuoteRequest         Category = "quote_request"
	CategoryOrderPlacement       Category = "order_placement"
	CategoryOrderInquiry         Category = "order_inquiry"
	CategoryProductInquiry       Category = "product_inquiry"
	CategoryTechnicalSupport     Category = "technical_support"
	CategoryShippingInquiry      Category = "shipping_inquiry"
	CategoryBillingInquiry       Category = "billing_inquiry"
	CategoryComplaint            Category = "complaint"
	CategoryRegulatoryCompliance Category = "regulatory_compliance"
	CategorySampleRequest        Category = "sample_request"
	CategoryGeneralInquiry       Category = "general_inquiry"
	CategorySpam                 Category = "spam"
)

var categoryDescriptions = map[Category]string{
	CategoryQuoteRequest:         "Customer requesting a price quote for one or more products",
	CategoryOrderPlacement:       "Customer placing a new order or ready to purchase",
	CategoryOrderInquiry:         "Customer asking about status, tracking, or details of an existing order",
	CategoryProductInquiry:       "Customer asking questions about product specifications, availability, or information",
	CategoryTechnicalSupport:     "Customer needs technical help with product application, formulation, or usage",
	CategoryShippingInquiry:      "Customer asking about shipping options, costs, delivery times, or logistics",
	CategoryBillingInquiry:       "Customer has questions about invoices, payments, or account balance",
	CategoryComplaint:            "Customer expressing dissatisfaction or reporting an issue",
	CategoryRegulatoryCompliance: "Questions about certifications, regulatory compliance, safety data sheets, or documentation",
	CategorySampleRequest:        "Customer requesting product samples for testing or evaluation",
	CategoryGeneralInquiry:       "General questions about the company, policies, or other topics",
	CategorySpam:                 "Unsolicited, irrelevant, or marketing emails not related to customer service",
}

// categoryOrder fixes the order categories appear in prompts and listings.
var categoryOrder = []Category{
	CategoryQuoteRequest,
	CategoryOrderPlacement,
	CategoryOrderInquiry,
	CategoryProductInquiry,
	CategoryTechnicalSupport,
	CategoryShippingInquiry,
	CategoryBillingInquiry,
	CategoryComplaint,
	CategoryRegulatoryCompliance,
	CategorySampleRequest,
	CategoryGeneralInquiry,
	CategorySpam,
}

// ErrUnknownCategory is returned when a string does not name a known category
var ErrUnknownCategory = fmt.Errorf("unknown category")

// ParseCategory converts a string label into a Category
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryDescriptions[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Description returns the human-readable description of the category
func (c Category) Description() string {
	if desc, ok := categoryDescriptions[c]; ok {
		return desc
	}
	return "Unknown category"
}

// String returns the wire label of the category
func (c Category) String() string {
	return string(c)
}

// AllCategories returns every category in stable prompt order
func AllCategories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}
