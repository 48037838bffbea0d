package status

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]Status{
		"Delivered":                       Delivered,
		"  delivered ":                    Delivered,
		"Order Cancelled - Problematic":   Problematic,
		"Cancelled - Delivered to sender": Cancelled,
		"Returned to shipper":             Returned,
		"Detained at hub":                 Detained,
		"On Delivery":                     OnDelivery,
		"Out for delivery":                OnDelivery,
		"Picked up by rider":              Pickup,
		"In Transit":                      InTransit,
		"Undelivered":                     Problematic,
		"":                                Other,
		"Something else":                  Other,
	}
	for raw, want := range tests {
		if got := Normalize(raw); got != want {
			t.Errorf("Normalize(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestIsRTS(t *testing.T) {
	for _, s := range All {
		want := s == Cancelled || s == Problematic || s == Returned
		if s.IsRTS() != want {
			t.Errorf("%s.IsRTS() = %v, want %v", s, s.IsRTS(), want)
		}
	}
}

func TestAllEndsWithOther(t *testing.T) {
	if All[len(All)-1] != Other {
		t.Errorf("expected OTHER last, got %s", All[len(All)-1])
	}
}
