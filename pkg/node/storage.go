package node

// StorageLocation is one configured segment-cache location. The resolution
// core only cares about presence in the list; sizing is passed through to
// the service descriptor untouched.
type StorageLocation struct {
	Path             string  `json:"path"`
	MaxSize          int64   `json:"max_size"`
	FreeSpacePercent float64 `json:"free_space_percent"`
}

// IsSegmentCacheConfigured reports whether a segment cache is configured.
// Emptiness of the location list is the sole signal.
func IsSegmentCacheConfigured(locations []StorageLocation) bool {
	return len(locations) > 0
}
