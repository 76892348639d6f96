package collision

// Collide tests s against other. On overlap, the collision is resolved
// physically through the owners' host unless either shape is a trigger or
// neither owner has a body. Callbacks then fire in order: cb, s.Callback,
// other.Callback. It returns the manifold, or nil when there is no overlap.
func (s *Shape) Collide(other *Shape, cb func(*Manifold)) *Manifold {
	m := Overlap(s, other)
	if m == nil {
		return nil
	}

	if !s.Trigger && !other.Trigger && (s.hasBody() || other.hasBody()) {
		host := s.host
		if host == nil {
			host = other.host
		}
		host.Resolve(m)
	}

	if cb != nil {
		cb(m)
	}
	if s.Callback != nil {
		s.Callback(m)
	}
	if other.Callback != nil {
		other.Callback(m)
	}
	return m
}
