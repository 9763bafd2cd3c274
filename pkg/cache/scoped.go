package cache

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// This is useful when several galleries or deployments share one Redis
// instance and must not see each other's entries.
//
// Example usage:
//
//	// Keys for one deployment
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "justified:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ProbeKey generates a prefixed key for probe results.
func (k *ScopedKeyer) ProbeKey(path string, opts ProbeKeyOpts) string {
	return k.prefix + k.inner.ProbeKey(path, opts)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(itemsHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

// ResponseKey generates a prefixed key for HTTP responses.
func (k *ScopedKeyer) ResponseKey(requestHash string) string {
	return k.prefix + k.inner.ResponseKey(requestHash)
}
