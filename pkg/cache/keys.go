package cache

import "time"

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// ProbeKey identifies the decoded header of an image file.
	ProbeKey(path string, opts ProbeKeyOpts) string
	// LayoutKey identifies a packed layout of a set of items.
	LayoutKey(itemsHash string, opts LayoutKeyOpts) string
	// ArtifactKey identifies a rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
	// ResponseKey identifies an HTTP response body.
	ResponseKey(requestHash string) string
}

// ProbeKeyOpts holds the file attributes a probe result depends on.
type ProbeKeyOpts struct {
	Size    int64
	ModTime time.Time
}

// LayoutKeyOpts holds every packing input besides the items themselves.
type LayoutKeyOpts struct {
	Width     float64 `json:"width"`
	RowHeight float64 `json:"row_height"`
	Gap       float64 `json:"gap"`
	MaxPerRow int     `json:"max_per_row,omitempty"`
	Policy    string  `json:"policy,omitempty"`
	GrowthCap float64 `json:"growth_cap,omitempty"`
}

// ArtifactKeyOpts holds the render options an artifact depends on.
type ArtifactKeyOpts struct {
	Format string  `json:"format"`
	Title  string  `json:"title,omitempty"`
	Labels bool    `json:"labels,omitempty"`
	Images bool    `json:"images,omitempty"`
	Scale  float64 `json:"scale,omitempty"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ProbeKey hashes the path together with size and modification time.
func (k *DefaultKeyer) ProbeKey(path string, opts ProbeKeyOpts) string {
	return hashKey("probe", path, opts.Size, opts.ModTime.UnixNano())
}

// LayoutKey hashes the items hash together with all packing options.
func (k *DefaultKeyer) LayoutKey(itemsHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", itemsHash, opts)
}

// ArtifactKey hashes the layout hash together with all render options.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

// ResponseKey prefixes an already hashed request.
func (k *DefaultKeyer) ResponseKey(requestHash string) string {
	return "response:" + requestHash
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
