package ops

// Comparison operators understood by both the Firestore query API and the in-memory store.
const (
	Equal        string = "=="
	NotEqual     string = "!="
	Greater      string = ">"
	GreaterEqual string = ">="
	Less         string = "<"
	LessEqual    string = "<="
)
