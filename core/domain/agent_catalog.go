package domain

// CatalogEntry is one product record in the catalog. Stock is the only field
// mutated after load, and only through the catalog index's allocation path.
type CatalogEntry struct {
	ProductID   string    `json:"product_id" bson:"product_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Stock       int       `json:"stock" bson:"stock"`
	Price       int       `json:"price" bson:"price"`
	Embedding   []float32 `json:"-" bson:"embedding,omitempty"`
}

// PromptTemplate is a stored prompt document, looked up by name. Content may
// contain {placeholder} markers substituted at call time.
type PromptTemplate struct {
	Name    string `bson:"prompt_name"`
	Role    string `bson:"role"`
	Content string `bson:"content"`
}
