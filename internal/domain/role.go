package domain

// Role is the closed set of account roles. Declared by hand rather than
// derived from any persistence-layer code generation.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Status is the closed set of account statuses.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusPending  Status = "PENDING"
	StatusBlocked  Status = "BLOCKED"
	StatusInactive Status = "INACTIVE"
)
