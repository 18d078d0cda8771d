package authz

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

func IsAdmin(role string) bool {
	return role == RoleAdmin
}
