package cache

// Keyer builds cache keys.
type Keyer interface {
	// AssetKey keys the raw bytes of ref as served by origin. origin
	// distinguishes sources (asset directory, bucket, remote URL) that
	// may use the same refs.
	AssetKey(origin, ref string) string
	// ArtifactKey keys a rendered artifact of a scene whose inputs hash
	// to sceneHash.
	ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts holds the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	MaxCanvas int    `json:"max_canvas"`
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// AssetKey implements Keyer.
func (DefaultKeyer) AssetKey(origin, ref string) string {
	return hashKey("asset", origin, ref)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sceneHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, so several deployments can
// share one cache backend without seeing each other's entries.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "studio-a:")
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

// AssetKey generates a prefixed asset key.
func (k *ScopedKeyer) AssetKey(origin, ref string) string {
	return k.prefix + k.inner.AssetKey(origin, ref)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(sceneHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(sceneHash, opts)
}
