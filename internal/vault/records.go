package vault

import (
	"context"
	"encoding/json"
	"fmt"
)

// Typed wrappers over StoreRecord/RetrieveRecord. Retrieval enforces that
// the record's data type matches the requested one; a mismatch is reported
// as not-found rather than leaking the payload of a different type.

func (v *Vault) StoreIdentityDocument(ctx context.Context, userID string, doc IdentityDocument, accessorID string) (string, error) {
	return v.StoreRecord(ctx, userID, DataIdentityVerification, doc, accessorID)
}

func (v *Vault) RetrieveIdentityDocument(ctx context.Context, recordID, accessorID, reason string) (IdentityDocument, error) {
	var doc IdentityDocument
	err := v.retrieveTyped(ctx, recordID, accessorID, reason, DataIdentityVerification, &doc)
	return doc, err
}

func (v *Vault) StoreAgeVerification(ctx context.Context, userID string, rec AgeVerification, accessorID string) (string, error) {
	return v.StoreRecord(ctx, userID, DataAgeVerification, rec, accessorID)
}

func (v *Vault) RetrieveAgeVerification(ctx context.Context, recordID, accessorID, reason string) (AgeVerification, error) {
	var rec AgeVerification
	err := v.retrieveTyped(ctx, recordID, accessorID, reason, DataAgeVerification, &rec)
	return rec, err
}

func (v *Vault) StoreProductionCompliance(ctx context.Context, userID string, rec ProductionComplianceRecord, accessorID string) (string, error) {
	return v.StoreRecord(ctx, userID, DataProductionCompliance, rec, accessorID)
}

func (v *Vault) RetrieveProductionCompliance(ctx context.Context, recordID, accessorID, reason string) (ProductionComplianceRecord, error) {
	var rec ProductionComplianceRecord
	err := v.retrieveTyped(ctx, recordID, accessorID, reason, DataProductionCompliance, &rec)
	return rec, err
}

func (v *Vault) retrieveTyped(ctx context.Context, recordID, accessorID, reason string, want DataType, out any) error {
	p, err := v.RetrieveRecord(ctx, recordID, accessorID, reason)
	if err != nil {
		return err
	}
	if p.DataType != want {
		return fmt.Errorf("%w: no %s record with id %s", ErrNotFound, want, recordID)
	}
	if err := json.Unmarshal(p.Data, out); err != nil {
		return fmt.Errorf("vault: decode %s payload: %w", want, err)
	}
	return nil
}
