package order

type Status string

const (
	StatusPendingSecure      Status = "pending_secure"
	StatusSecured            Status = "secured"
	StatusAwaitingAllocation Status = "awaiting_manufacturing_allocation"
	StatusDispatched         Status = "dispatched"
	StatusRefunded           Status = "refunded"
	// StatusArchived exists for legacy rows only; no operation writes it.
	StatusArchived Status = "archived"
)

// transitions is the single source of truth for legal moves. The generic
// update path, dispatch and refund all derive their write guards from it.
// The three pre-dispatch states are mutually reachable so the admin can
// correct mistakes; dispatched and refunded are reachable only through
// their dedicated operations because they carry mandatory side effects.
var transitions = map[Status][]Status{
	StatusPendingSecure:      {StatusSecured, StatusAwaitingAllocation, StatusRefunded},
	StatusSecured:            {StatusPendingSecure, StatusAwaitingAllocation, StatusRefunded},
	StatusAwaitingAllocation: {StatusPendingSecure, StatusSecured, StatusDispatched, StatusRefunded},
	StatusDispatched:         {},
	StatusRefunded:           {},
	StatusArchived:           {},
}

// genericTargets is what the generic status-update operation may write.
// Dispatched and refunded are intentionally excluded even for authorized
// callers.
var genericTargets = map[Status]struct{}{
	StatusPendingSecure:      {},
	StatusSecured:            {},
	StatusAwaitingAllocation: {},
}

func GenericTarget(s Status) bool {
	_, ok := genericTargets[s]
	return ok
}

func CanTransition(from, to Status) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// sources lists every status a legal transition to target may start from.
// Conditional writes re-check this set in the UPDATE itself so a stale read
// can never smuggle in an illegal move.
func sources(target Status) []Status {
	var out []Status
	for from, tos := range transitions {
		for _, t := range tos {
			if t == target {
				out = append(out, from)
				break
			}
		}
	}
	return out
}
