package vault

import (
	"testing"
	"time"
)

func monthsAgo(now time.Time, months float64) time.Time {
	return now.Add(-time.Duration(months * daysPerMonth * 24 * float64(time.Hour)))
}

func TestClassify(t *testing.T) {
	p := RetentionPolicy{PeriodMonths: 84, NoticeLeadMonths: 6}
	now := time.Now().UTC()
	cases := []struct {
		ageMonths float64
		want      RetentionState
	}{
		{85, StateExpired},
		{84.1, StateExpired},
		{79, StateNearExpiry},
		{78.1, StateNearExpiry},
		{77, StateActive},
		{10, StateActive},
		{0, StateActive},
	}
	for _, c := range cases {
		got := p.Classify(monthsAgo(now, c.ageMonths), now)
		if got != c.want {
			t.Fatalf("age %.1f months: got %s, want %s", c.ageMonths, got, c.want)
		}
	}
}

func TestAgeInMonthsApproximation(t *testing.T) {
	now := time.Now().UTC()
	created := now.AddDate(0, 0, -3044) // 3044 days ~= 100 average months
	age := AgeInMonths(created, now)
	if age < 99.9 || age > 100.1 {
		t.Fatalf("AgeInMonths = %.3f, want ~100", age)
	}
}

func TestDefaultPoliciesTable(t *testing.T) {
	policies := DefaultPolicies()
	if len(policies) != 6 {
		t.Fatalf("policy count = %d, want 6", len(policies))
	}
	cases := []struct {
		dt               DataType
		months           int
		autoDelete       bool
		requiresApproval bool
	}{
		{DataIdentityVerification, 84, false, true},
		{DataAgeVerification, 84, false, true},
		{DataProductionCompliance, 84, false, false},
		{DataPaymentInfo, 36, true, false},
		{DataSensitiveProfile, 24, true, false},
		{DataComplianceDocument, 120, false, true},
	}
	for _, c := range cases {
		p, ok := policies[c.dt]
		if !ok {
			t.Fatalf("no policy for %s", c.dt)
		}
		if p.PeriodMonths != c.months || p.AutoDeleteAllowed != c.autoDelete || p.RequiresApproval != c.requiresApproval {
			t.Fatalf("%s: got (%d, %v, %v), want (%d, %v, %v)", c.dt,
				p.PeriodMonths, p.AutoDeleteAllowed, p.RequiresApproval,
				c.months, c.autoDelete, c.requiresApproval)
		}
		if p.LegalBasis == "" {
			t.Fatalf("%s: empty legal basis", c.dt)
		}
	}
	// Production-compliance has no approval override: the monitor can never
	// be talked into deleting it because auto-delete is off.
	p := policies[DataProductionCompliance]
	if p.AutoDeleteAllowed {
		t.Fatal("production-compliance must not allow auto-delete")
	}
}
