package tasks

import "team-task-manager/models"

// Caller is the authenticated identity a request runs as. It is passed
// explicitly into every service call.
type Caller struct {
	ID   string
	Role models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}
