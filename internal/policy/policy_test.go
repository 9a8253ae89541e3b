package policy

import (
	"testing"

	"github.com/rankingdbv/ranking-system/internal/model"
)

func TestCan(t *testing.T) {
	tests := []struct {
		name    string
		role    model.Role
		action  Action
		allowed bool
	}{
		{name: "master manages members", role: model.RoleMaster, action: ActionManageMembers, allowed: true},
		{name: "master manages subscription", role: model.RoleMaster, action: ActionManageSubscription, allowed: true},
		{name: "owner manages members", role: model.RoleOwner, action: ActionManageMembers, allowed: true},
		{name: "owner manages store", role: model.RoleOwner, action: ActionManageStore, allowed: true},
		{name: "owner cannot manage subscription", role: model.RoleOwner, action: ActionManageSubscription, allowed: false},
		{name: "director adjusts points", role: model.RoleDirector, action: ActionAdjustPoints, allowed: true},
		{name: "admin fulfills purchases", role: model.RoleAdmin, action: ActionFulfillPurchase, allowed: true},
		{name: "counselor cannot manage members", role: model.RoleCounselor, action: ActionManageMembers, allowed: false},
		{name: "pathfinder cannot manage store", role: model.RolePathfinder, action: ActionManageStore, allowed: false},
		{name: "parent cannot adjust points", role: model.RoleParent, action: ActionAdjustPoints, allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &model.User{Role: tt.role}
			if got := Can(u, tt.action); got != tt.allowed {
				t.Fatalf("Can(%s, %s) = %v, want %v", tt.role, tt.action, got, tt.allowed)
			}
		})
	}
}

func TestCan_NilUser(t *testing.T) {
	if Can(nil, ActionManageMembers) {
		t.Fatalf("Can(nil, ...) must be false")
	}
}
