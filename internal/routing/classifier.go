package routing

// Classify derives the priority a work request should carry from its
// variant detail. The result is advisory: callers decide whether to apply
// it to the stored request. Requests without a detail, including unknown
// future variants, classify as NORMAL rather than failing.
func Classify(req *WorkRequest) Priority {
	if req == nil || req.Detail == nil {
		return PriorityNormal
	}
	return req.Detail.PriorityHint()
}
