package model

// Role is stored on the user; its permissions are fixed in code.
type Role string

const (
	RoleAdministrador Role = "Administrador"
	RoleGerente       Role = "Gerente"
	RoleVendedor      Role = "Vendedor"
)

var Roles = []Role{RoleAdministrador, RoleGerente, RoleVendedor}

func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

type RoleResponse struct {
	Code        Role         `json:"code"`
	Permissions []Permission `json:"permissions"`
}

func RoleResponses() []RoleResponse {
	out := make([]RoleResponse, len(Roles))
	for i, r := range Roles {
		out[i] = RoleResponse{Code: r, Permissions: r.Permissions()}
	}
	return out
}
