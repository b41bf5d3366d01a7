package models

// Plan is a subscription plan offered to cities. The authoritative
// subscription record lives in the payment processor; these are the
// local price/feature tables used to build checkout sessions.
type Plan struct {
	Tier     Tier      `json:"tier"`
	Name     string    `json:"name"`
	Price    PlanPrice `json:"price"`
	Features []string  `json:"features"`
}

type PlanPrice struct {
	Monthly int64 `json:"monthly"` // USD per month
	Yearly  int64 `json:"yearly"`  // USD per year
}

var Plans = map[Tier]Plan{
	TierStarter: {
		Tier: TierStarter,
		Name: "Starter",
		Price: PlanPrice{
			Monthly: 49,
			Yearly:  490,
		},
		Features: []string{
			"Up to 100 events/month",
			"Basic analytics",
			"Email support",
			"Custom domain",
			"Basic branding options",
		},
	},
	TierPro: {
		Tier: TierPro,
		Name: "Professional",
		Price: PlanPrice{
			Monthly: 99,
			Yearly:  990,
		},
		Features: []string{
			"Up to 500 events/month",
			"Advanced analytics",
			"Priority support",
			"Custom domain",
			"Advanced branding options",
			"Event categories customization",
			"Multiple admin accounts",
		},
	},
	TierPremier: {
		Tier: TierPremier,
		Name: "Premier",
		Price: PlanPrice{
			Monthly: 199,
			Yearly:  1990,
		},
		Features: []string{
			"Unlimited events",
			"Real-time analytics",
			"24/7 priority support",
			"Custom domain",
			"Full branding customization",
			"API access",
			"White-label option",
			"Dedicated account manager",
		},
	},
}

// PlanAmount returns the USD amount for a tier and billing interval.
// Interval must be "monthly" or "yearly".
func PlanAmount(tier Tier, interval string) (int64, bool) {
	plan, ok := Plans[tier]
	if !ok {
		return 0, false
	}
	switch interval {
	case "monthly":
		return plan.Price.Monthly, true
	case "yearly":
		return plan.Price.Yearly, true
	}
	return 0, false
}
