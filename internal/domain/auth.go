package domain

// SubjectType identifies who a token was issued to.
type SubjectType string

const (
	SubjectTypeUser   SubjectType = "USER"
	SubjectTypeSystem SubjectType = "SYSTEM"
)
