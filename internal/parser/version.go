package parser

// layout pairs a decoder with the first version it applies to.
type layout[F any] struct {
	since  uint16
	decode F
}

// pickLayout returns the decoder of the newest layout whose since is not
// above v. Tables are sorted by since, ascending.
func pickLayout[F any](table []layout[F], v uint16) (F, bool) {
	for i := len(table) - 1; i >= 0; i-- {
		if table[i].since <= v {
			return table[i].decode, true
		}
	}
	var zero F
	return zero, false
}
