package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/impulse/collision"
	"github.com/pthm-cable/impulse/components"
	"github.com/pthm-cable/impulse/geom"
)

// Slop is the penetration depth left uncorrected to avoid jitter.
const Slop = 0.01

// Participant is one side of a collision: the body and the transform it moves.
type Participant struct {
	Body      *RigidBody
	Transform *components.Transform
}

func (p *Participant) present() bool {
	return p != nil && p.Body != nil
}

func (p *Participant) movable() bool {
	return p.present() && !p.Body.Static
}

// ResolveCollision applies positional correction, a normal impulse and
// friction for one manifold. a owns m.ShapeA and b owns m.ShapeB; either may
// be nil for immovable geometry. Bodies already separating are left untouched.
// It reports whether an impulse was applied.
func ResolveCollision(m *collision.Manifold, a, b *Participant) bool {
	aNone, bNone := !a.present(), !b.present()
	if aNone && bNone {
		return false
	}

	var invA, invB float64
	if !aNone {
		invA = a.Body.invMass
	}
	if !bNone {
		invB = b.Body.invMass
	}
	if invA == 0 && invB == 0 {
		switch {
		case aNone:
			invB = 1
		case bNone:
			invA = 1
		default:
			invA, invB = 1, 1
		}
	}
	invSys := 1 / (invA + invB)

	correction := r2.Scale(math.Max(m.Penetration-Slop, 0)*invSys, m.Normal)

	rv := r2.Sub(pointVelocity(a, aNone, m.ContactA), pointVelocity(b, bNone, m.ContactB))
	velAlongNormal := r2.Dot(rv, m.Normal)
	if velAlongNormal > 0 {
		return false
	}

	var e, iA, iB float64
	if !aNone {
		e = a.Body.Bounciness
		c := r2.Cross(m.ContactA, m.Normal)
		iA = c * c * a.Body.invMoment
	}
	if !bNone {
		e = math.Max(e, b.Body.Bounciness)
		c := r2.Cross(m.ContactB, m.Normal)
		iB = c * c * b.Body.invMoment
	}

	j := -(1 + e) * velAlongNormal / (invA + invB + iA + iB)
	impulse := r2.Scale(j, m.Normal)

	if a.movable() && a.Transform != nil {
		a.Transform.Position = r2.Add(a.Transform.Position, r2.Scale(invA*a.Body.PosCorrection, correction))
	}
	if b.movable() && b.Transform != nil {
		b.Transform.Position = r2.Sub(b.Transform.Position, r2.Scale(invB*b.Body.PosCorrection, correction))
	}
	applyImpulse(a, b, invA, invB, m, impulse)

	var mu float64
	switch {
	case aNone:
		mu = b.Body.Friction * b.Body.Friction
	case bNone:
		mu = a.Body.Friction * a.Body.Friction
	default:
		mu = math.Min(a.Body.Friction*a.Body.Friction, b.Body.Friction*b.Body.Friction)
	}
	if mu == 0 {
		return true
	}

	tangent := r2.Sub(rv, r2.Scale(velAlongNormal, m.Normal))
	if r2.Norm(tangent) == 0 {
		return true
	}
	tangent = r2.Unit(tangent)

	jt := -r2.Dot(rv, tangent) * invSys
	var friction r2.Vec
	if math.Abs(jt) < j*mu {
		friction = r2.Scale(jt, tangent)
	} else {
		friction = r2.Scale(-j*mu, tangent)
	}
	applyImpulse(a, b, invA, invB, m, friction)
	return true
}

// pointVelocity is the velocity of the body at lever arm r, zero when absent.
func pointVelocity(p *Participant, none bool, r r2.Vec) r2.Vec {
	if none {
		return r2.Vec{}
	}
	return r2.Sub(p.Body.Velocity, geom.Perpendicular(r, p.Body.AngularVelocity))
}

// applyImpulse pushes A along the impulse and B against it.
func applyImpulse(a, b *Participant, invA, invB float64, m *collision.Manifold, impulse r2.Vec) {
	if a.movable() {
		a.Body.Velocity = r2.Add(a.Body.Velocity, r2.Scale(invA, impulse))
		a.Body.AngularVelocity += r2.Cross(m.ContactA, impulse) * a.Body.invMoment
	}
	if b.movable() {
		b.Body.Velocity = r2.Sub(b.Body.Velocity, r2.Scale(invB, impulse))
		b.Body.AngularVelocity -= r2.Cross(m.ContactB, impulse) * b.Body.invMoment
	}
}
