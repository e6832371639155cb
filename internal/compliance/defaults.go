package compliance

import (
	"time"

	"github.com/tradewind/tariffflow/internal/model"
)

// DefaultRestrictions returns the seed restriction registry. Entries are
// illustrative and replaceable through the registry API; the matcher
// algorithm does not depend on them.
func DefaultRestrictions() []model.TradeRestriction {
	effective := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	return []model.TradeRestriction{
		{
			ID:            "us-firearms-prohibited",
			Country:       "US",
			HSCodePattern: `^93`,
			Type:          model.RestrictionProhibited,
			Severity:      model.SeverityCritical,
			Description:   "Firearms and ammunition may not be imported through this channel",
			Requirements:  []string{"ATF import permit", "End-user certificate"},
			EffectiveDate: effective,
		},
		{
			ID:            "cn-controlled-electronics",
			Country:       "CN",
			HSCodePattern: `^85`,
			Type:          model.RestrictionControlled,
			Severity:      model.SeverityHigh,
			Description:   "Controlled electronics destined for China require an export license",
			Requirements:  []string{"Export license for controlled electronics"},
			EffectiveDate: effective,
		},
		{
			ID:            "us-steel-quota",
			Country:       "US",
			HSCodePattern: `^72`,
			Type:          model.RestrictionQuota,
			Severity:      model.SeverityMedium,
			Description:   "Steel mill products are subject to an absolute import quota",
			Requirements:  []string{"Quota allocation certificate"},
			EffectiveDate: effective,
		},
		{
			ID:            "wildcard-cites-species",
			Country:       model.WildcardCountry,
			HSCodePattern: `^(0106|4103|9705)`,
			Type:          model.RestrictionLicense,
			Severity:      model.SeverityHigh,
			Description:   "Specimens of protected species require a CITES permit for any route",
			Requirements:  []string{"CITES export permit", "Veterinary inspection on arrival"},
			EffectiveDate: effective,
		},
		{
			ID:            "us-produce-inspection",
			Country:       "US",
			HSCodePattern: `^(06|07|08)`,
			Type:          model.RestrictionRestricted,
			Severity:      model.SeverityMedium,
			Description:   "Fresh produce is subject to phytosanitary inspection at the port of entry",
			Requirements:  []string{"Phytosanitary inspection certificate"},
			EffectiveDate: effective,
		},
	}
}
