// Package policy централизует проверку прав по ролям участников.
package policy

import "github.com/rankingdbv/ranking-system/internal/model"

// Action описывает действие, требующее проверки прав.
type Action string

const (
	ActionManageMembers      Action = "manage_members"
	ActionManageStore        Action = "manage_store"
	ActionManageSubscription Action = "manage_subscription"
	ActionAdjustPoints       Action = "adjust_points"
	ActionFulfillPurchase    Action = "fulfill_purchase"
)

// Can сообщает, разрешено ли пользователю действие. MASTER разрешено всё.
func Can(u *model.User, action Action) bool {
	if u == nil {
		return false
	}

	if u.Role == model.RoleMaster {
		return true
	}

	switch action {
	case ActionManageMembers, ActionManageStore, ActionAdjustPoints, ActionFulfillPurchase:
		return u.Role == model.RoleOwner || u.Role == model.RoleAdmin || u.Role == model.RoleDirector
	case ActionManageSubscription:
		return false
	default:
		return false
	}
}
