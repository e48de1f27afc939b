package domain

import "testing"

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"order":          CategoryOrder,
		"  ORDER  ":      CategoryOrder,
		"inquiry":        CategoryInquiry,
		"order_inquiry":  CategoryOrderInquiry,
		"complaint":      CategoryComplaint,
		"status":         CategoryStatus,
		"unknown":        CategoryUnknown,
		"":               CategoryUnknown,
		"refund please":  CategoryUnknown,
		"order inquiry":  CategoryUnknown,
		"ORDER_INQUIRY":  CategoryOrderInquiry,
	}
	for input, want := range cases {
		if got := ParseCategory(input); got != want {
			t.Errorf("ParseCategory(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestCategoryHasProducts(t *testing.T) {
	withProducts := []Category{CategoryOrder, CategoryInquiry, CategoryOrderInquiry}
	for _, c := range withProducts {
		if !c.HasProducts() {
			t.Errorf("expected %s to have products", c)
		}
	}
	without := []Category{CategoryComplaint, CategoryStatus, CategoryUnknown}
	for _, c := range without {
		if c.HasProducts() {
			t.Errorf("expected %s to not have products", c)
		}
	}
}

func TestDedupKey(t *testing.T) {
	withID := Product{ProductID: "ABC1234", Name: "Vase"}
	sameID := Product{ProductID: "ABC1234", Name: "Different Name"}
	if withID.DedupKey() != sameID.DedupKey() {
		t.Error("expected id-bearing references with the same id to collide")
	}

	byText := Product{Name: "Red Vase", Description: "ceramic vase"}
	sameText := Product{Name: "  red vase ", Description: "CERAMIC VASE"}
	if byText.DedupKey() != sameText.DedupKey() {
		t.Error("expected case and whitespace differences to collide")
	}

	other := Product{Name: "Red Vase", Description: "glass vase"}
	if byText.DedupKey() == other.DedupKey() {
		t.Error("expected references with different descriptions to be distinct")
	}

	// An id-bearing reference never collides with a text-only one, even when
	// the text fields match.
	if withID.DedupKey() == (Product{Name: "Vase"}).DedupKey() {
		t.Error("expected id and text identities to be disjoint")
	}
}

func TestCloneIsDeep(t *testing.T) {
	msg := NewCustomerMessage("e-1", "subject", "body")
	msg.Questions = []string{"q1"}
	msg.ProductsPurchase = []Product{{ProductID: "ABC1234", Quantity: 2}}
	msg.History = []string{"first reply"}

	clone := msg.Clone()
	clone.Questions[0] = "changed"
	clone.ProductsPurchase[0].Quantity = 99
	clone.History = append(clone.History, "second reply")

	if msg.Questions[0] != "q1" {
		t.Error("clone mutation leaked into original questions")
	}
	if msg.ProductsPurchase[0].Quantity != 2 {
		t.Error("clone mutation leaked into original products")
	}
	if len(msg.History) != 1 {
		t.Error("clone mutation leaked into original history")
	}
}

func TestAppendResponse(t *testing.T) {
	msg := NewCustomerMessage("e-1", "s", "b")
	msg.AppendResponse("first")
	msg.AppendResponse("second")

	if msg.Response != "second" {
		t.Errorf("expected latest response, got %q", msg.Response)
	}
	if len(msg.History) != 2 || msg.History[0] != "first" {
		t.Errorf("expected full history, got %v", msg.History)
	}
}

func TestNewCustomerMessageDefaults(t *testing.T) {
	msg := NewCustomerMessage("e-1", "s", "b")
	if msg.Category != CategoryUnknown {
		t.Errorf("expected unknown category, got %s", msg.Category)
	}
	if msg.Response != "" || len(msg.History) != 0 {
		t.Error("expected empty response state")
	}
}
