package enums

import "fmt"

// UserRole scopes what an authenticated principal may do within a business.
type UserRole string

const (
	UserRoleSuperAdmin     UserRole = "SUPER_ADMIN"
	UserRoleBusinessOwner  UserRole = "BUSINESS_OWNER"
	UserRoleKitchenManager UserRole = "KITCHEN_MANAGER"
	UserRoleStaff          UserRole = "STAFF"
	UserRoleCustomer       UserRole = "CUSTOMER"
)

var validUserRoles = []UserRole{
	UserRoleSuperAdmin,
	UserRoleBusinessOwner,
	UserRoleKitchenManager,
	UserRoleStaff,
	UserRoleCustomer,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
