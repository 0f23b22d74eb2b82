package node

import "sync"

// ProcessingCapacity is opaque capacity metadata carried into the service
// descriptor. The resolver never inspects it.
type ProcessingCapacity struct {
	NumThreads      int `json:"num_threads"`
	NumMergeBuffers int `json:"num_merge_buffers"`
	BufferSize      int `json:"buffer_size"`
}

// ServiceDescriptor is the validated record of the capability this node
// offers and whether it should be advertised to the cluster. Immutable once
// built; a single instance exists per process.
type ServiceDescriptor struct {
	Role         Role               `json:"role"`
	Discoverable bool               `json:"discoverable"`
	Capacity     ProcessingCapacity `json:"capacity"`
	// MaxSize is the summed capacity of all cache locations.
	MaxSize int64 `json:"max_size"`
}

// CapabilityResolver turns the raw configuration inputs into the node's
// service descriptor. Resolution is lazy and happens at most once per
// process; every caller observes the identical descriptor or the identical
// error, including under concurrent first access.
type CapabilityResolver struct {
	role      Role
	locations []StorageLocation
	capacity  ProcessingCapacity

	once sync.Once
	desc *ServiceDescriptor
	err  error
}

// NewCapabilityResolver captures the configuration inputs. Nothing is
// validated until the first Resolve call.
func NewCapabilityResolver(role Role, locations []StorageLocation, capacity ProcessingCapacity) *CapabilityResolver {
	// Copy so later mutation of the caller's slice cannot leak into the
	// memoized result.
	locs := make([]StorageLocation, len(locations))
	copy(locs, locations)
	return &CapabilityResolver{role: role, locations: locs, capacity: capacity}
}

// Resolve returns the node service descriptor, building and validating it on
// first call. A failure is memoized the same way a success is: the process
// is expected to abort on it, and re-asking never re-validates.
func (r *CapabilityResolver) Resolve() (*ServiceDescriptor, error) {
	r.once.Do(func() {
		r.desc, r.err = r.build()
	})
	return r.desc, r.err
}

func (r *CapabilityResolver) build() (*ServiceDescriptor, error) {
	if !r.role.Bound() {
		return nil, missingRole("node capability descriptor")
	}
	configured := IsSegmentCacheConfigured(r.locations)
	if r.role.RequiresSegmentCache() && !configured {
		// This role is unusable without local storage; fail fast rather
		// than silently becoming non-discoverable.
		return nil, cacheNotConfigured(r.role)
	}
	var maxSize int64
	for _, loc := range r.locations {
		maxSize += loc.MaxSize
	}
	return &ServiceDescriptor{
		Role:         r.role,
		Discoverable: configured,
		Capacity:     r.capacity,
		MaxSize:      maxSize,
	}, nil
}
