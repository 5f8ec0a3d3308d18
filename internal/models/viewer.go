package models

// Viewer identifies who is looking at a page. The zero value is anonymous.
type Viewer struct {
	ID uint
}

// Anonymous returns the viewer of an unauthenticated request.
func Anonymous() Viewer { return Viewer{} }

// ViewerOf returns the viewer for a signed-in user id.
func ViewerOf(userID uint) Viewer { return Viewer{ID: userID} }

// Authenticated reports whether the viewer is signed in.
func (v Viewer) Authenticated() bool { return v.ID != 0 }

// Is reports whether the viewer is the given user.
func (v Viewer) Is(userID uint) bool { return v.Authenticated() && v.ID == userID }
