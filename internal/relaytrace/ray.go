package relaytrace

// Ray is a paraxial ray in the meridional plane: height H above the optical
// axis (m) and angle Theta to the axis (rad). Values are never mutated; every
// propagation step returns a new Ray.
type Ray struct {
	H     Real
	Theta Real
}
