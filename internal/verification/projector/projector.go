// Package projector turns an opaque verifier result into the fixed
// eight-step pipeline view rendered on the verification page.
//
// Project is pure and total: the same result always yields the same step
// list, and a well-typed result never fails to project. Each stage reads
// only the result fields scoped to it; no rule looks across stages.
package projector

import (
	"fmt"

	"pkdconsole/internal/verification/models"
)

// Pending returns the reset step list: all eight stages pending, collapsed.
// Used before any submission and after a transport failure, because a
// pipeline that did not run has no verdicts.
func Pending() []models.Step {
	return withStatus(models.StepPending)
}

// Running returns the in-flight step list. All eight stages move to running
// together; the verifier computes the pipeline as one atomic operation, so
// there is no per-stage progress to report.
func Running() []models.Step {
	return withStatus(models.StepRunning)
}

func withStatus(status models.StepStatus) []models.Step {
	steps := make([]models.Step, models.StepCount)
	for i := range steps {
		steps[i] = models.Step{
			Ordinal: i + 1,
			Name:    models.StageName(i + 1),
			Status:  status,
		}
	}
	return steps
}

// Project resolves every stage of the pipeline from the verification
// result. A nil result projects to the pending list.
func Project(result *models.VerificationResult) []models.Step {
	if result == nil {
		return Pending()
	}
	steps := withStatus(models.StepPending)
	resolveSODParse(&steps[models.StageSODParse-1], result)
	resolveDSCExtraction(&steps[models.StageDSCExtraction-1], result.CertificateChainValidation)
	resolveTrustChain(&steps[models.StageTrustChain-1], result.CertificateChainValidation)
	resolveCSCALookup(&steps[models.StageCSCALookup-1], result.CertificateChainValidation)
	resolveSODSignature(&steps[models.StageSODSignature-1], result.SODSignatureValidation)
	resolveDataGroups(&steps[models.StageDataGroupHashes-1], result.DataGroupValidation)
	resolveCRLCheck(&steps[models.StageCRLCheck-1], result.CertificateChainValidation)
	resolveRegistration(&steps[models.StageDSCRegistration-1], result.DSCAutoRegistration)
	return steps
}

// Stage 1: the SOD was parsed if any result exists at all; there is no
// independent failure signal at this layer. Details carry the algorithm
// identifiers read from the security object.
func resolveSODParse(step *models.Step, result *models.VerificationResult) {
	step.Status = models.StepSuccess
	step.Message = "Security object parsed"
	detail := &models.SODParseDetail{}
	if sig := result.SODSignatureValidation; sig != nil {
		detail.HashAlgorithm = sig.HashAlgorithm
		detail.SignatureAlgorithm = sig.SignatureAlgorithm
	}
	step.Details = &models.StepDetail{SOD: detail}
}

// Stage 2: resolved only when the chain validation names a DSC subject.
// Without one the stage has no signal either way and stays pending.
func resolveDSCExtraction(step *models.Step, chain *models.CertificateChainValidation) {
	if chain == nil || chain.DSCSubject == "" {
		return
	}
	step.Status = models.StepSuccess
	step.Message = "Document signer certificate extracted"
	step.Details = &models.StepDetail{DSC: &models.DSCDetail{
		Subject:      chain.DSCSubject,
		SerialNumber: chain.DSCSerialNumber,
	}}
}

// Stage 3: signature correctness and temporal validity are orthogonal. A
// correctly chained but expired certificate downgrades to warning, never
// to error.
func resolveTrustChain(step *models.Step, chain *models.CertificateChainValidation) {
	detail := &models.TrustChainDetail{}
	step.Details = &models.StepDetail{TrustChain: detail}

	if chain == nil || !chain.Valid {
		step.Status = models.StepError
		step.Message = "Certificate chain validation failed"
		if chain != nil {
			detail.ValidationError = chain.ValidationError
			if chain.ValidationError != "" {
				step.Message = chain.ValidationError
			}
		}
		return
	}

	detail.Valid = true
	detail.ExpirationStatus = chain.ExpirationStatus
	switch chain.ExpirationStatus {
	case models.ExpirationExpired:
		step.Status = models.StepWarning
		step.Message = "Trust chain valid, certificate expired"
	case models.ExpirationWarning:
		step.Status = models.StepWarning
		step.Message = "Trust chain valid, certificate expires soon"
	default:
		step.Status = models.StepSuccess
		step.Message = "Trust chain valid"
	}
}

// Stage 4: evaluated independently of stage 3 even though both read the
// chain validation payload; a failure in one must not be hidden by success
// in the other.
func resolveCSCALookup(step *models.Step, chain *models.CertificateChainValidation) {
	if chain == nil || chain.CSCASubject == "" {
		step.Status = models.StepError
		step.Message = "No matching CSCA certificate found"
		return
	}
	step.Status = models.StepSuccess
	step.Message = "Issuing CSCA located"
	step.Details = &models.StepDetail{CSCA: &models.CSCADetail{Subject: chain.CSCASubject}}
}

// Stage 5: mirrors the signature verdict directly, no intermediate states.
func resolveSODSignature(step *models.Step, sig *models.SODSignatureValidation) {
	detail := &models.SignatureDetail{}
	step.Details = &models.StepDetail{Signature: detail}

	if sig == nil || !sig.Valid {
		step.Status = models.StepError
		step.Message = "SOD signature verification failed"
		if sig != nil {
			detail.Error = sig.Error
			detail.SignatureAlgorithm = sig.SignatureAlgorithm
			if sig.Error != "" {
				step.Message = sig.Error
			}
		}
		return
	}
	detail.Valid = true
	detail.SignatureAlgorithm = sig.SignatureAlgorithm
	step.Status = models.StepSuccess
	step.Message = "SOD signature valid"
}

// Stage 6: success means zero invalid groups. The per-group detail map is
// carried through unmodified for display.
func resolveDataGroups(step *models.Step, dg *models.DataGroupValidation) {
	if dg == nil {
		step.Status = models.StepError
		step.Message = "No data group comparison available"
		return
	}
	step.Details = &models.StepDetail{DataGroups: &models.DataGroupsDetail{
		TotalGroups:   dg.TotalGroups,
		ValidGroups:   dg.ValidGroups,
		InvalidGroups: dg.InvalidGroups,
		Groups:        dg.Details,
	}}
	if dg.InvalidGroups == 0 {
		step.Status = models.StepSuccess
		step.Message = fmt.Sprintf("All %d data group hashes match", dg.TotalGroups)
		return
	}
	step.Status = models.StepError
	step.Message = fmt.Sprintf("%d of %d data group hashes do not match", dg.InvalidGroups, dg.TotalGroups)
}

// Stage 7: an unlocatable CRL is a warning, never a silent success;
// absence of revocation data is not proof of validity.
func resolveCRLCheck(step *models.Step, chain *models.CertificateChainValidation) {
	if chain == nil || chain.CRLStatus == "" || chain.CRLStatus == models.CRLNotFound {
		step.Status = models.StepWarning
		step.Message = "No certificate revocation list available"
		step.Details = &models.StepDetail{CRL: &models.CRLDetail{Status: models.CRLNotFound}}
		return
	}
	detail := &models.CRLDetail{
		Status:           chain.CRLStatus,
		Issuer:           chain.CRLIssuer,
		RevocationReason: chain.RevocationReason,
	}
	step.Details = &models.StepDetail{CRL: detail}
	if chain.CRLStatus == models.CRLRevoked {
		step.Status = models.StepError
		step.Message = "Document signer certificate is revoked"
		return
	}
	step.Status = models.StepSuccess
	step.Message = "Document signer certificate not revoked"
}

// Stage 8: auto-registration is a best-effort side effect, never a hard
// verification gate, so nothing here resolves to error.
func resolveRegistration(step *models.Step, reg *models.DSCAutoRegistration) {
	if reg == nil {
		step.Status = models.StepWarning
		step.Message = "No registration information available"
		return
	}
	step.Details = &models.StepDetail{Registration: &models.RegistrationDetail{
		Status:        reg.Status,
		CertificateID: reg.CertificateID,
		Error:         reg.Error,
	}}
	switch reg.Status {
	case models.RegistrationNew:
		step.Status = models.StepSuccess
		step.Message = "Document signer certificate registered"
	case models.RegistrationAlready:
		step.Status = models.StepSuccess
		step.Message = "Document signer certificate already registered"
	default:
		step.Status = models.StepWarning
		step.Message = "DSC auto-registration failed"
		if reg.Error != "" {
			step.Message = reg.Error
		}
	}
}
