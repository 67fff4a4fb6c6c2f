package store

// EndpointCooldown records the last accepted run of a guarded endpoint,
// one row per logical endpoint name. Acquisition is a single
// conditional upsert so the minimum-interval check holds across
// process replicas.
type EndpointCooldown struct {
	Name      string
	LastRunTs int64
}

// TryAcquireEndpointCooldown attempts to take the cooldown slot for
// Name at NowTs. The acquire succeeds only if no previous run exists
// or the previous run is at or before CutoffTs.
type TryAcquireEndpointCooldown struct {
	Name     string
	NowTs    int64
	CutoffTs int64
}
