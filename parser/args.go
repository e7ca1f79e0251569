package parser

// Args holds parsed values keyed by declared name.  Absent optional
// arguments without a default are not present.
type Args map[string]any

// Has reports whether name was supplied or defaulted.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// String returns the value as a string or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Float returns a JSON number or 0.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// Int truncates a JSON number.
func (a Args) Int(name string) int {
	return int(a.Float(name))
}

// Bool returns a JSON boolean or false.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}
