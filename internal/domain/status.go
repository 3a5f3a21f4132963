package domain

import "strings"

// ComparisonStatus classifies a reconciled line.
type ComparisonStatus string

const (
	StatusSufficient     ComparisonStatus = "sufficient"
	StatusNeedToPurchase ComparisonStatus = "need_to_purchase"
	StatusNotFound       ComparisonStatus = "not_found"
)

var comparisonStatusLabels = map[ComparisonStatus]string{
	StatusSufficient:     "Đủ hàng",
	StatusNeedToPurchase: "Cần mua",
	StatusNotFound:       "Không có trong kho",
}

// Label returns a human-readable label for the status.
func (s ComparisonStatus) Label() string {
	if label, ok := comparisonStatusLabels[s]; ok {
		return label
	}

	return string(s)
}

// NeedsPurchase reports whether a line with this status lands on a purchase order.
func (s ComparisonStatus) NeedsPurchase() bool {
	return s == StatusNeedToPurchase || s == StatusNotFound
}

// ParseComparisonStatus returns the status for a given value (case-insensitive).
func ParseComparisonStatus(value string) (ComparisonStatus, bool) {
	s := ComparisonStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := comparisonStatusLabels[s]

	return s, ok
}

// ServiceTier is one of the three exam package levels.
type ServiceTier string

const (
	TierGold   ServiceTier = "gold"
	TierBasic  ServiceTier = "basic"
	TierSilver ServiceTier = "silver"
)

var tierLabels = map[ServiceTier]string{
	TierGold:   "Gói vàng",
	TierBasic:  "Gói đồng",
	TierSilver: "Gói bạc",
}

// Tiers lists the valid service tiers.
func Tiers() []ServiceTier {
	return []ServiceTier{TierGold, TierBasic, TierSilver}
}

func (t ServiceTier) Label() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}

	return string(t)
}

func (t ServiceTier) Valid() bool {
	_, ok := tierLabels[t]
	return ok
}

// ParseServiceTier accepts the tier key (gold, basic, silver) case-insensitively.
func ParseServiceTier(value string) (ServiceTier, error) {
	t := ServiceTier(strings.ToLower(strings.TrimSpace(value)))
	if !t.Valid() {
		return "", NewInvalidInput("packageType", "must be one of gold, basic, silver")
	}

	return t, nil
}
