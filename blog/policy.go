package blog

// Viewer is the identity acting on a request. The zero value is anonymous.
type Viewer struct {
	ID       uint
	Username string
}

// Anonymous returns the viewer of an unauthenticated request.
func Anonymous() Viewer { return Viewer{} }

// Authenticated reports whether the viewer is a signed-in user.
func (v Viewer) Authenticated() bool { return v.ID != 0 }

// Owned is a record with a single author.
type Owned interface {
	OwnerID() uint
}

// CanModify reports whether v may update or delete r: only its author can.
func CanModify(v Viewer, r Owned) bool {
	return v.Authenticated() && v.ID == r.OwnerID()
}
