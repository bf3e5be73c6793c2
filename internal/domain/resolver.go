package domain

// ResolverWorkload is the derived capacity record for a resolver. It is
// recomputed from ticket assignments on every workload read, never persisted
// on its own.
type ResolverWorkload struct {
	UserID        string
	Name          string
	ActiveTickets int
	CurrentFloor  string
	IsAvailable   bool
	Score         int
}
