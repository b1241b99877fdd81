package domain

// DeliveryInfo describes serviceability for a pincode.
type DeliveryInfo struct {
	IsDeliverable    bool `json:"is_deliverable"`
	DeliveryDays     int  `json:"delivery_days"`
	ExpressAvailable bool `json:"express_available"`
}

// OptimisticDelivery is returned when the zone table has no row for a
// pincode or the lookup fails. Checkout revalidates, so the cheap answer
// here is yes.
func OptimisticDelivery() DeliveryInfo {
	return DeliveryInfo{
		IsDeliverable:    true,
		DeliveryDays:     7,
		ExpressAvailable: false,
	}
}

// DeliveryZone is a serviceability row keyed by pincode.
type DeliveryZone struct {
	Pincode          string `json:"pincode"`
	IsDeliverable    bool   `json:"is_deliverable"`
	DeliveryDays     int    `json:"delivery_days"`
	ExpressAvailable bool   `json:"express_available"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
}

// Info projects the zone row onto the client-facing shape.
func (z DeliveryZone) Info() DeliveryInfo {
	return DeliveryInfo{
		IsDeliverable:    z.IsDeliverable,
		DeliveryDays:     z.DeliveryDays,
		ExpressAvailable: z.ExpressAvailable,
	}
}
