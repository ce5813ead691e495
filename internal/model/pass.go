package model

import "time"

// PassType enumerates the kinds of passes a zone can sell.
type PassType string

const (
	PassDaily    PassType = "daily"
	PassSeasonal PassType = "seasonal"
	PassVIP      PassType = "vip"
	PassGroup    PassType = "group"
	PassStudent  PassType = "student"
)

// PricingRule is a time-bound price adjustment stored inside a pass.
// Exactly one of DiscountPercentage or FixedPrice should be set.  Rules
// are evaluated in stored order and the first rule still valid at the
// time of booking wins.
//
// Fields:
//  DiscountPercentage – percentage off the base amount (0 when unused).
//  FixedPrice         – replacement per-unit price (0 when unused).
//  ValidUntil         – the rule no longer applies after this instant
//                       (nil means no expiry).
type PricingRule struct {
	DiscountPercentage float64    `json:"discount_percentage,omitempty"`
	FixedPrice         float64    `json:"fixed_price,omitempty"`
	ValidUntil         *time.Time `json:"valid_until,omitempty"`
}

// Pass is an offering for a zone: a purchasable entitlement definition.
// It mirrors the `passes` table; PricingRules is stored as a JSON column.
//
// Fields:
//  ID                – primary key identifier (UUID).
//  ZoneID            – the zone this pass belongs to.
//  Name              – display name.
//  Type              – one of the PassType values.
//  Price             – base unit price.
//  ValidityStart     – start of the validity window.
//  ValidityEnd       – end of the validity window.
//  GroupSize         – maximum members per booking; >1 marks a group pass.
//  AvailableQuantity – remaining inventory.  Never negative: decremented
//                      only through a conditional atomic update.
//  PricingRules      – ordered time-bound price adjustments.
//  Description       – optional free text.
//  IsActive          – soft-delete flag; inactive passes cannot be booked.
//  CreatedBy         – admin user who created the pass.
//  CreatedAt         – creation timestamp.
type Pass struct {
	ID                string        `json:"id"`
	ZoneID            string        `json:"zone_id"`
	Name              string        `json:"name"`
	Type              PassType      `json:"type"`
	Price             float64       `json:"price"`
	ValidityStart     time.Time     `json:"validity_start"`
	ValidityEnd       time.Time     `json:"validity_end"`
	GroupSize         int           `json:"group_size"`
	AvailableQuantity int           `json:"available_quantity"`
	PricingRules      []PricingRule `json:"pricing_rules,omitempty"`
	Description       string        `json:"description,omitempty"`
	IsActive          bool          `json:"is_active"`
	CreatedBy         string        `json:"created_by"`
	CreatedAt         time.Time     `json:"created_at"`
}

// IsGroup reports whether the pass admits more than one entrant per booking.
func (p *Pass) IsGroup() bool { return p.GroupSize > 1 }
