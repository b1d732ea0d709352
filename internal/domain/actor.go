package domain

// Actor identifies who performs a state-changing operation. Identity and role
// come from the external identity provider; the core only stamps them.
type Actor struct {
	ID   string
	Name string
	Role string
}

// System is the privileged actor used by data-repair tooling. It is the only
// actor allowed through the validation-ledger maintenance path.
var System = Actor{ID: "system", Name: "system", Role: "system"}

// IsSystem reports whether the actor carries elevated maintenance privilege.
func (a Actor) IsSystem() bool {
	return a.Role == "system"
}
