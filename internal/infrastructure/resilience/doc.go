/*
Package resilience provides a circuit breaker for calls to dependencies
that may be unreachable, such as a remote item catalog.

# Usage

	breaker := resilience.New("catalog", resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	err := breaker.Execute(ctx, func(ctx context.Context) error {
		return client.Get(ctx, id)
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open

Each transition starts a new generation; outcomes of calls admitted in an
earlier generation are ignored.
*/
package resilience
