package handles

// GateState is Draft until the mock server for a pact starts, then Frozen.
type GateState int

const (
	Draft GateState = iota
	Frozen
)

func (s GateState) String() string {
	if s == Frozen {
		return "frozen"
	}
	return "draft"
}

// Gate tracks whether a pact may still be changed. Mutations are always
// applied; the gate only reports whether they will take effect.
type Gate struct {
	state GateState
}

func (g *Gate) State() GateState {
	return g.state
}

func (g *Gate) IsFrozen() bool {
	return g.state == Frozen
}

func (g *Gate) Freeze() {
	g.state = Frozen
}

// Mutate applies fn and reports whether the pact was still a draft when the
// call was made.
func (g *Gate) Mutate(fn func()) bool {
	frozen := g.IsFrozen()
	fn()
	return !frozen
}
