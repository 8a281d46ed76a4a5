package filter

type Where struct {
	Path  string
	Op    string
	Value interface{}
}
