package vault

import "time"

type RetentionState string

const (
	StateActive     RetentionState = "active"
	StateNearExpiry RetentionState = "near-expiry"
	StateExpired    RetentionState = "expired"
)

// RetentionPolicy is the per-data-type retention rule. Fixed at startup.
// RequiresApproval means the record may never be deleted by the monitor,
// only flagged; for production-compliance records even an approval override
// does not exist inside this core.
type RetentionPolicy struct {
	DataType          DataType
	PeriodMonths      int
	AutoDeleteAllowed bool
	RequiresApproval  bool
	NoticeLeadMonths  int
	LegalBasis        string
}

// DefaultPolicies is the statutory retention table. Identity, age and
// production records sit on multi-year floors that must never be
// auto-deleted; profile data supports erasure via short auto-delete terms.
func DefaultPolicies() map[DataType]RetentionPolicy {
	return map[DataType]RetentionPolicy{
		DataIdentityVerification: {
			DataType: DataIdentityVerification, PeriodMonths: 84,
			AutoDeleteAllowed: false, RequiresApproval: true, NoticeLeadMonths: 6,
			LegalBasis: "KYC/AML identity verification mandate",
		},
		DataAgeVerification: {
			DataType: DataAgeVerification, PeriodMonths: 84,
			AutoDeleteAllowed: false, RequiresApproval: true, NoticeLeadMonths: 6,
			LegalBasis: "age verification statute",
		},
		DataProductionCompliance: {
			DataType: DataProductionCompliance, PeriodMonths: 84,
			AutoDeleteAllowed: false, RequiresApproval: false, NoticeLeadMonths: 6,
			LegalBasis: "18 U.S.C. 2257 record-keeping requirements",
		},
		DataPaymentInfo: {
			DataType: DataPaymentInfo, PeriodMonths: 36,
			AutoDeleteAllowed: true, RequiresApproval: false, NoticeLeadMonths: 3,
			LegalBasis: "payment dispute and tax retention",
		},
		DataSensitiveProfile: {
			DataType: DataSensitiveProfile, PeriodMonths: 24,
			AutoDeleteAllowed: true, RequiresApproval: false, NoticeLeadMonths: 3,
			LegalBasis: "data minimization, supports erasure requests",
		},
		DataComplianceDocument: {
			DataType: DataComplianceDocument, PeriodMonths: 120,
			AutoDeleteAllowed: false, RequiresApproval: true, NoticeLeadMonths: 12,
			LegalBasis: "regulatory correspondence retention",
		},
	}
}

// Average Gregorian month in days; retention ages are day-based
// approximations, not calendar arithmetic.
const daysPerMonth = 30.44

// AgeInMonths returns the approximate age of a record in months.
func AgeInMonths(createdAt, now time.Time) float64 {
	return now.Sub(createdAt).Hours() / 24 / daysPerMonth
}

// Classify places a record created at createdAt into a retention state.
func (p RetentionPolicy) Classify(createdAt, now time.Time) RetentionState {
	age := AgeInMonths(createdAt, now)
	switch {
	case age >= float64(p.PeriodMonths):
		return StateExpired
	case age >= float64(p.PeriodMonths-p.NoticeLeadMonths):
		return StateNearExpiry
	default:
		return StateActive
	}
}
