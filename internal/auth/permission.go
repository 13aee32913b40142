package auth

import (
	"fmt"
	"strings"
)

// Permission is a role capability bitmask. Each named capability occupies one
// bit of the low byte.
type Permission uint8

const (
	PermCreate Permission = 1 << iota
	PermEdit
	PermDelete
	PermView
	PermDerive
	PermAudit
	PermExport
	PermLock

	PermNone Permission = 0
	PermAll  Permission = 0xFF
)

var permissionNames = []struct {
	perm Permission
	name string
}{
	{PermCreate, "create"},
	{PermEdit, "edit"},
	{PermDelete, "delete"},
	{PermView, "view"},
	{PermDerive, "derive"},
	{PermAudit, "audit"},
	{PermExport, "export"},
	{PermLock, "lock"},
}

// AllPermissions lists the eight named capabilities in bit order.
func AllPermissions() []Permission {
	out := make([]Permission, len(permissionNames))
	for i, p := range permissionNames {
		out[i] = p.perm
	}
	return out
}

// HasPermission reports whether every bit of required is set in mask.
func HasPermission(mask, required Permission) bool {
	return mask&required == required
}

// Has is HasPermission with p as the mask.
func (p Permission) Has(required Permission) bool {
	return HasPermission(p, required)
}

// Names returns the capability names set in p, in bit order.
func (p Permission) Names() []string {
	names := make([]string, 0, len(permissionNames))
	for _, entry := range permissionNames {
		if p&entry.perm != 0 {
			names = append(names, entry.name)
		}
	}
	return names
}

func (p Permission) String() string {
	if p == PermNone {
		return "none"
	}
	return strings.Join(p.Names(), "|")
}

// ParsePermission resolves a single capability name.
func ParsePermission(name string) (Permission, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, entry := range permissionNames {
		if entry.name == n {
			return entry.perm, nil
		}
	}
	return PermNone, fmt.Errorf("unknown permission %q", name)
}

// ParsePermissions combines a list of capability names into one mask.
func ParsePermissions(names ...string) (Permission, error) {
	var mask Permission
	for _, name := range names {
		p, err := ParsePermission(name)
		if err != nil {
			return PermNone, err
		}
		mask |= p
	}
	return mask, nil
}
