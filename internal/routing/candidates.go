package routing

import "context"

// CandidateSelector finds the approvers qualified to act on a request.
type CandidateSelector struct {
	directory Directory
}

// NewCandidateSelector creates a selector backed by the given directory.
func NewCandidateSelector(directory Directory) *CandidateSelector {
	return &CandidateSelector{directory: directory}
}

// Candidates returns the approvers holding the required role, preferring
// members of orgID when it is set. When no role holder belongs to the
// preferred organization the whole role-holder set is returned instead,
// so a request is never unroutable merely because the target organization
// has nobody in the role. An empty result means nobody holds the role;
// that is a legitimate outcome, not an error. The only error path is the
// directory lookup itself failing.
//
// Directory order is preserved: downstream tie-breaks depend on it.
func (s *CandidateSelector) Candidates(ctx context.Context, role Role, orgID *string) ([]Approver, error) {
	approvers, err := s.directory.ListApprovers(ctx)
	if err != nil {
		return nil, err
	}

	var exact, roleOnly []Approver
	for _, a := range approvers {
		if a.Role != role {
			continue
		}
		roleOnly = append(roleOnly, a)
		if orgID == nil || (a.OrgID != nil && *a.OrgID == *orgID) {
			exact = append(exact, a)
		}
	}

	if len(exact) > 0 {
		return exact, nil
	}
	return roleOnly, nil
}
