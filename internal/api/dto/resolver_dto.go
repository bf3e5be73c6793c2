package dto

// ResolverResponse is one resolver's workload record.
type ResolverResponse struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	ActiveTickets int    `json:"active_tickets"`
	CurrentFloor  string `json:"current_floor"`
	IsAvailable   bool   `json:"is_available"`
	Score         int    `json:"score"`
}

// WorkloadBucketResponse is one histogram band of the distribution chart.
type WorkloadBucketResponse struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// WorkloadResponse bundles the resolver list and its distribution.
type WorkloadResponse struct {
	Resolvers    []ResolverResponse       `json:"resolvers"`
	Distribution []WorkloadBucketResponse `json:"distribution"`
}
