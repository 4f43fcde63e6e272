package entity

// Roles reconocidos en el token.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)
