package model

// Permission is a capability checked once at the route boundary
type Permission string

const (
	PermProductView     Permission = "product:view"
	PermProductManage   Permission = "product:manage"
	PermSaleView        Permission = "sale:view"
	PermSaleCreate      Permission = "sale:create"
	PermSaleCancel      Permission = "sale:cancel"
	PermRegisterOperate Permission = "register:operate"
	PermRegisterManage  Permission = "register:manage"
	PermFiadoOperate    Permission = "fiado:operate"
	PermOrderOperate    Permission = "order:operate"
	PermReportView      Permission = "report:view"
	PermCompanyManage   Permission = "company:manage"
	PermUserManage      Permission = "user:manage"
)

// AllPermissions in display order
var AllPermissions = []Permission{
	PermProductView,
	PermProductManage,
	PermSaleView,
	PermSaleCreate,
	PermSaleCancel,
	PermRegisterOperate,
	PermRegisterManage,
	PermFiadoOperate,
	PermOrderOperate,
	PermReportView,
	PermCompanyManage,
	PermUserManage,
}

var rolePermissions = map[Role][]Permission{
	RoleAdministrador: AllPermissions,
	RoleGerente: {
		PermProductView,
		PermProductManage,
		PermSaleView,
		PermSaleCreate,
		PermSaleCancel,
		PermRegisterOperate,
		PermRegisterManage,
		PermFiadoOperate,
		PermOrderOperate,
		PermReportView,
	},
	RoleVendedor: {
		PermProductView,
		PermSaleView,
		PermSaleCreate,
		PermRegisterOperate,
		PermFiadoOperate,
		PermOrderOperate,
	},
}

func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}

func (r Role) Can(p Permission) bool {
	for _, granted := range rolePermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}
