package service

import (
	"strings"
	"time"

	"github.com/milkdesk/internal/constants"
)

// 已送达与已取消为终态
var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusConfirmed: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusCancelled: true,
	},
}

func isTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

func isTerminalOrderStatus(status string) bool {
	_, ok := allowedTransitions[status]
	return !ok
}

// NormalizeOrderStatus 规范订单状态，未知状态返回空串
func NormalizeOrderStatus(raw string) string {
	status := strings.ToLower(strings.TrimSpace(raw))
	switch status {
	case "canceled":
		return constants.OrderStatusCancelled
	case constants.OrderStatusConfirmed, constants.OrderStatusDelivered, constants.OrderStatusCancelled:
		return status
	default:
		return ""
	}
}

func orderStatusUpdates(target string, operatorID uint, now time.Time) map[string]interface{} {
	updates := map[string]interface{}{
		"status":     target,
		"updated_by": operatorID,
		"updated_at": now,
	}
	switch target {
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
	case constants.OrderStatusCancelled:
		updates["cancelled_at"] = now
	}
	return updates
}
