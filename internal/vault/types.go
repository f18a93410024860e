package vault

import "time"

// DataType classifies a record for retention and access-control purposes.
type DataType string

const (
	DataIdentityVerification DataType = "identity-verification"
	DataAgeVerification      DataType = "age-verification"
	DataProductionCompliance DataType = "production-compliance"
	DataPaymentInfo          DataType = "payment-info"
	DataSensitiveProfile     DataType = "sensitive-profile"
	DataComplianceDocument   DataType = "compliance-document"
)

type ComplianceLevel string

const (
	LevelStandard ComplianceLevel = "standard"
	LevelHigh     ComplianceLevel = "high"
	LevelCritical ComplianceLevel = "critical"
)

// complianceClass derives level and audit flag from the data type.
// Identity, age and production records carry statutory weight.
func complianceClass(dt DataType) (ComplianceLevel, bool) {
	switch dt {
	case DataIdentityVerification, DataAgeVerification, DataProductionCompliance:
		return LevelCritical, true
	case DataComplianceDocument:
		return LevelHigh, true
	default:
		return LevelStandard, false
	}
}

// Payload is a decrypted, transient copy of a record's contents. It never
// aliases vault-owned memory.
type Payload struct {
	RecordID string   `json:"record_id"`
	UserID   string   `json:"user_id"`
	DataType DataType `json:"data_type"`
	Version  int      `json:"version"`
	Data     []byte   `json:"data"`
}

// IdentityDocument is an identity-verification payload. Field validation is
// the producer's job; the vault stores what it is given.
type IdentityDocument struct {
	DocumentType       string    `json:"document_type"`
	DocumentNumber     string    `json:"document_number"`
	IssuingJurisdiction string   `json:"issuing_jurisdiction"`
	ExpiresAt          time.Time `json:"expires_at"`
	VerificationStatus string    `json:"verification_status"`
	VerifiedAt         time.Time `json:"verified_at"`
	VerifiedBy         string    `json:"verified_by"`
}

// AgeVerification records how and when a subject's age was established.
type AgeVerification struct {
	DateOfBirth time.Time `json:"date_of_birth"`
	Method      string    `json:"method"`
	Provider    string    `json:"provider"`
	VerifiedAt  time.Time `json:"verified_at"`
	Verified    bool      `json:"verified"`
	MinimumAge  int       `json:"minimum_age"`
}

// ProductionComplianceRecord links a verified performer identity and age to
// produced content. Subject to a statutory minimum retention period that
// the retention monitor never shortens.
type ProductionComplianceRecord struct {
	PerformerLegalName string    `json:"performer_legal_name"`
	AgeAtRecording     int       `json:"age_at_recording"`
	DocumentIDs        []string  `json:"document_ids"`
	CustodianName      string    `json:"custodian_name"`
	CustodianAddress   string    `json:"custodian_address"`
	ContentIDs         []string  `json:"content_ids"`
	RecordedAt         time.Time `json:"recorded_at"`
}
