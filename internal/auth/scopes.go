package auth

// OAuth scopes understood by the wellbeing API.
const (
	ScopeWellbeingRead  = "wellbeing:read"
	ScopeWellbeingWrite = "wellbeing:write"
	ScopeSamplesWrite   = "samples:write"
)
