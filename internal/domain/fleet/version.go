package fleet

// VersionToken carries the vehicle version a caller observed before
// asking for a state change. Compare-and-swap updates use it to reject
// writes against a vehicle that changed in the meantime.
//
// A caller that never read the vehicle can pass AnyVersion; the
// repository then reads the current version inside the transaction and
// swaps against that, so the write is still atomic but not protected
// against the caller's own staleness.
type VersionToken struct {
	version int
	present bool
}

// VersionOf builds a token pinning the given observed version
func VersionOf(version int) VersionToken {
	return VersionToken{version: version, present: true}
}

// AnyVersion builds a token that accepts whatever version is current
func AnyVersion() VersionToken {
	return VersionToken{}
}

// Get returns the pinned version and whether one was pinned
func (t VersionToken) Get() (int, bool) {
	return t.version, t.present
}
