package domain

import "strings"

// Category is the triage category assigned to an inbound customer email.
type Category string

const (
	CategoryOrder        Category = "order"         // purchase request
	CategoryInquiry      Category = "inquiry"       // product question, no purchase intent
	CategoryOrderInquiry Category = "order_inquiry" // purchase plus product questions
	CategoryComplaint    Category = "complaint"     // complaint about an order or product
	CategoryStatus       Category = "status"        // asking about an existing order
	CategoryUnknown      Category = "unknown"       // could not be classified
)

// ParseCategory maps free-form classifier output onto a Category.
// Anything unrecognized becomes CategoryUnknown.
func ParseCategory(s string) Category {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryOrder:
		return CategoryOrder
	case CategoryInquiry:
		return CategoryInquiry
	case CategoryOrderInquiry:
		return CategoryOrderInquiry
	case CategoryComplaint:
		return CategoryComplaint
	case CategoryStatus:
		return CategoryStatus
	default:
		return CategoryUnknown
	}
}

// IsValid reports whether c is one of the six defined categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryOrder, CategoryInquiry, CategoryOrderInquiry,
		CategoryComplaint, CategoryStatus, CategoryUnknown:
		return true
	}
	return false
}

// HasProducts reports whether the category routes through product resolution.
func (c Category) HasProducts() bool {
	return c == CategoryOrder || c == CategoryInquiry || c == CategoryOrderInquiry
}

// OrderStatus describes how much of a requested quantity was allocated.
type OrderStatus string

const (
	OrderStatusNone    OrderStatus = "none"    // nothing allocated (out of stock or unresolved)
	OrderStatusPartial OrderStatus = "partial" // some but not all units allocated
	OrderStatusFilled  OrderStatus = "filled"  // full requested quantity allocated
)

// ProductIDLength is the length of a well-formed catalog product id.
const ProductIDLength = 7

// Product is a product reference inside a customer message. It starts out
// loosely specified (often just a name or description extracted from free
// text) and is progressively enriched by resolution and allocation.
// An empty ProductID means the reference is unresolved.
type Product struct {
	ProductID   string      `json:"product_id"`
	Name        string      `json:"product_name"`
	Description string      `json:"product_description"`
	Quantity    int         `json:"quantity"`
	Filled      int         `json:"filled"`
	Unfilled    int         `json:"unfilled"`
	OrderStatus OrderStatus `json:"order_status"`
	Price       int         `json:"price"`
}

// Resolved reports whether the reference is bound to a catalog id.
func (p Product) Resolved() bool {
	return p.ProductID != ""
}

// DedupKey returns the identity used for duplicate detection: the product id
// when present, otherwise the normalized (name, description) pair.
func (p Product) DedupKey() string {
	if p.ProductID != "" {
		return "id:" + p.ProductID
	}
	return "nd:" + strings.ToLower(strings.TrimSpace(p.Name)) + "\x00" +
		strings.ToLower(strings.TrimSpace(p.Description))
}

// VerificationResult holds one flag per verified field group. The zero value
// is all-false, which doubles as the conservative failure result.
type VerificationResult struct {
	Name             bool `json:"name"`
	Title            bool `json:"title"`
	Category         bool `json:"category"`
	Occasion         bool `json:"occasion"`
	ProductsPurchase bool `json:"products_purchase"`
	ProductsInquiry  bool `json:"products_inquiry"`
}

// CustomerMessage is the per-email working record. It is created once per
// inbound request and advanced through the pipeline by copy-on-write: every
// stage receives a snapshot and returns a new one, so a stage failure can
// always fall back to its input unchanged.
type CustomerMessage struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Title     string   `json:"title"`
	Occasion  string   `json:"occasion"`
	Questions []string `json:"questions"`
	Category  Category `json:"category"`

	ProductsPurchase        []Product `json:"products_purchase"`
	ProductsInquiry         []Product `json:"products_inquiry"`
	ProductsRecommendations []Product `json:"products_recommendations"`

	Response string   `json:"response"`
	History  []string `json:"history"`
}

// NewCustomerMessage creates the initial record for one inbound email with
// all derived fields at their defaults.
func NewCustomerMessage(id, subject, body string) *CustomerMessage {
	return &CustomerMessage{
		ID:       id,
		Subject:  subject,
		Body:     body,
		Category: CategoryUnknown,
	}
}

// Clone returns a deep copy of the message. Slices are copied so mutations of
// the clone never leak into the snapshot a previous stage returned.
func (m *CustomerMessage) Clone() *CustomerMessage {
	out := *m
	out.Questions = append([]string(nil), m.Questions...)
	out.ProductsPurchase = append([]Product(nil), m.ProductsPurchase...)
	out.ProductsInquiry = append([]Product(nil), m.ProductsInquiry...)
	out.ProductsRecommendations = append([]Product(nil), m.ProductsRecommendations...)
	out.History = append([]string(nil), m.History...)
	return &out
}

// AppendResponse sets the response text and records it in the history log.
func (m *CustomerMessage) AppendResponse(text string) {
	m.Response = text
	m.History = append(m.History, text)
}
