// Package pricing holds the server-side charge rules shared by checkout
// session creation and total recomputation. Amounts are paise.
package pricing

type Rules struct {
	ShippingFee         int64
	SmallOrderFee       int64
	SmallOrderThreshold int64
}

func Default() Rules {
	return Rules{
		ShippingFee:         2000,
		SmallOrderFee:       5000,
		SmallOrderThreshold: 30000,
	}
}

// Total computes the authoritative charge: subtotal plus shipping, plus the
// small-order fee when the subtotal is positive but under the threshold,
// minus the discount, floored at zero. Client-sent totals are never trusted
// on this path.
func (r Rules) Total(subtotal, discount int64) int64 {
	total := subtotal + r.ShippingFee
	if subtotal > 0 && subtotal < r.SmallOrderThreshold {
		total += r.SmallOrderFee
	}
	total -= discount
	if total < 0 {
		total = 0
	}
	return total
}
