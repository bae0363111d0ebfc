package orders

// Coupon applies either a percentage or a fixed amount off the subtotal.
type Coupon struct {
	Code    string
	Name    string
	Percent int
	Amount  int64
}

var coupons = map[string]Coupon{
	"WELCOME10": {Code: "WELCOME10", Name: "Welcome 10% Off", Percent: 10},
	"FREESHIP":  {Code: "FREESHIP", Name: "Free Shipping", Amount: 3000},
}

func lookupCoupon(code string) (Coupon, bool) {
	c, ok := coupons[code]
	return c, ok
}

func (c Coupon) discount(subtotal int64) int64 {
	var d int64
	if c.Percent > 0 {
		d = subtotal * int64(c.Percent) / 100
	} else {
		d = c.Amount
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}
