package domain

type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusOrder  OrderStatus = "ORDER"
	OrderStatusCancel OrderStatus = "CANCEL"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusOrder:  {},
	OrderStatusCancel: {},
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", InvalidArgument("invalid order status %q", s)
}

type DeliveryStatus string

const (
	DeliveryStatusReady DeliveryStatus = "READY"
	DeliveryStatusComp  DeliveryStatus = "COMP"
)

var validDeliveryStatuses = map[DeliveryStatus]struct{}{
	DeliveryStatusReady: {},
	DeliveryStatusComp:  {},
}

func ToDeliveryStatus(s string) (DeliveryStatus, error) {
	status := DeliveryStatus(s)
	if _, ok := validDeliveryStatuses[status]; ok {
		return status, nil
	}
	return "", InvalidArgument("invalid delivery status %q", s)
}
