package searchapi

// Document is the unit of storage and retrieval.
// The identifier is supplied by the caller and never checked for uniqueness.
type Document struct {
	Identifier string
	Attributes *Attributes
}

func NewDocument(identifier string, attrs *Attributes) *Document {
	if attrs == nil {
		attrs = NewAttributes()
	}
	return &Document{
		Identifier: identifier,
		Attributes: attrs,
	}
}
