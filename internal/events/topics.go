package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated    = "order.created"
	TopicOrderConfirmed  = "order.confirmed"
	TopicOrderCancelled  = "order.cancelled"
	TopicCouponRedeemed  = "coupon.redeemed"
	TopicPaymentVerified = "payment.verified"
	TopicPaymentFailed   = "payment.failed"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderConfirmed,
		TopicOrderCancelled,
		TopicCouponRedeemed,
		TopicPaymentVerified,
		TopicPaymentFailed,
	}
}
