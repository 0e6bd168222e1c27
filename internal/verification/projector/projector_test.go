package projector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkdconsole/internal/verification/models"
)

func validResult() *models.VerificationResult {
	return &models.VerificationResult{
		Status: models.StatusValid,
		CertificateChainValidation: &models.CertificateChainValidation{
			Valid:            true,
			ExpirationStatus: models.ExpirationValid,
			DSCSubject:       "CN=DSC 001,O=Utopia MOI,C=UT",
			DSCSerialNumber:  "04:2a:ff",
			CSCASubject:      "CN=CSCA Utopia,C=UT",
			CRLStatus:        models.CRLClear,
			CRLIssuer:        "CN=CSCA Utopia,C=UT",
		},
		SODSignatureValidation: &models.SODSignatureValidation{
			Valid:              true,
			HashAlgorithm:      "SHA-256",
			SignatureAlgorithm: "SHA256withRSA",
		},
		DataGroupValidation: &models.DataGroupValidation{
			TotalGroups:   2,
			ValidGroups:   2,
			InvalidGroups: 0,
			Details: map[string]models.DGHashDetail{
				"DG1": {Valid: true, ExpectedHash: "AB12", ActualHash: "ab12"},
				"DG2": {Valid: true, ExpectedHash: "cd34", ActualHash: "cd34"},
			},
		},
		DSCAutoRegistration: &models.DSCAutoRegistration{
			Status:        models.RegistrationAlready,
			CertificateID: "dsc-001",
		},
	}
}

func TestProjectAllValid(t *testing.T) {
	steps := Project(validResult())
	require.Len(t, steps, models.StepCount)

	for i, step := range steps {
		assert.Equal(t, i+1, step.Ordinal)
		assert.Equal(t, models.StageName(i+1), step.Name)
		assert.Equal(t, models.StepSuccess, step.Status, "stage %d", i+1)
		assert.False(t, step.Expanded)
	}

	assert.Equal(t, "SHA-256", steps[0].Details.SOD.HashAlgorithm)
	assert.Equal(t, "CN=DSC 001,O=Utopia MOI,C=UT", steps[1].Details.DSC.Subject)
	assert.Equal(t, "All 2 data group hashes match", steps[5].Message)
}

func TestProjectDeterministic(t *testing.T) {
	result := validResult()
	assert.Equal(t, Project(result), Project(result))
}

func TestProjectNilResultIsPending(t *testing.T) {
	assert.Equal(t, Pending(), Project(nil))
}

func TestPendingAndRunningLists(t *testing.T) {
	for _, step := range Pending() {
		assert.Equal(t, models.StepPending, step.Status)
		assert.Nil(t, step.Details)
	}
	for _, step := range Running() {
		assert.Equal(t, models.StepRunning, step.Status)
	}
}

// An expired but correctly chained certificate is a warning, never a
// success or an error.
func TestTrustChainExpiredDowngradesToWarning(t *testing.T) {
	result := validResult()
	result.CertificateChainValidation.ExpirationStatus = models.ExpirationExpired

	steps := Project(result)
	step := steps[models.StageTrustChain-1]
	assert.Equal(t, models.StepWarning, step.Status)
	assert.Equal(t, models.ExpirationExpired, step.Details.TrustChain.ExpirationStatus)

	result.CertificateChainValidation.ExpirationStatus = models.ExpirationWarning
	assert.Equal(t, models.StepWarning, Project(result)[models.StageTrustChain-1].Status)
}

func TestTrustChainInvalidCarriesErrorVerbatim(t *testing.T) {
	result := validResult()
	result.CertificateChainValidation.Valid = false
	result.CertificateChainValidation.ValidationError = "unable to build path to trust anchor"

	step := Project(result)[models.StageTrustChain-1]
	assert.Equal(t, models.StepError, step.Status)
	assert.Equal(t, "unable to build path to trust anchor", step.Message)
	assert.Equal(t, "unable to build path to trust anchor", step.Details.TrustChain.ValidationError)
}

// Stages 3 and 4 both read the chain validation payload but are resolved
// independently; a failure in one must not be hidden by the other.
func TestTrustChainAndCSCAResolvedIndependently(t *testing.T) {
	result := validResult()
	result.CertificateChainValidation.CSCASubject = ""

	steps := Project(result)
	assert.Equal(t, models.StepSuccess, steps[models.StageTrustChain-1].Status)
	assert.Equal(t, models.StepError, steps[models.StageCSCALookup-1].Status)

	result = validResult()
	result.CertificateChainValidation.Valid = false
	steps = Project(result)
	assert.Equal(t, models.StepError, steps[models.StageTrustChain-1].Status)
	assert.Equal(t, models.StepSuccess, steps[models.StageCSCALookup-1].Status)
}

func TestDSCExtractionWithoutSubjectStaysPending(t *testing.T) {
	result := validResult()
	result.CertificateChainValidation.DSCSubject = ""

	step := Project(result)[models.StageDSCExtraction-1]
	assert.Equal(t, models.StepPending, step.Status)
	assert.Nil(t, step.Details)
}

func TestSODSignatureMirrorsVerifierVerdict(t *testing.T) {
	result := validResult()
	result.SODSignatureValidation.Valid = false
	result.SODSignatureValidation.Error = "digest mismatch"

	step := Project(result)[models.StageSODSignature-1]
	assert.Equal(t, models.StepError, step.Status)
	assert.Equal(t, "digest mismatch", step.Message)

	result.SODSignatureValidation = nil
	assert.Equal(t, models.StepError, Project(result)[models.StageSODSignature-1].Status)
}

func TestDataGroupHashes(t *testing.T) {
	t.Run("all groups valid", func(t *testing.T) {
		step := Project(validResult())[models.StageDataGroupHashes-1]
		require.Equal(t, models.StepSuccess, step.Status)

		groups := step.Details.DataGroups.Groups
		require.Len(t, groups, 2)
		for name, dg := range groups {
			assert.True(t, dg.Valid, "group %s", name)
			// The projector must never contradict the verifier-established
			// equality between the hashes and the valid flag.
			assert.Equal(t, dg.Valid, strings.EqualFold(dg.ExpectedHash, dg.ActualHash))
		}
	})

	t.Run("invalid group fails the stage", func(t *testing.T) {
		result := validResult()
		result.DataGroupValidation.ValidGroups = 1
		result.DataGroupValidation.InvalidGroups = 1
		result.DataGroupValidation.Details["DG2"] = models.DGHashDetail{
			Valid: false, ExpectedHash: "cd34", ActualHash: "ee55",
		}

		step := Project(result)[models.StageDataGroupHashes-1]
		assert.Equal(t, models.StepError, step.Status)
		assert.Equal(t, "1 of 2 data group hashes do not match", step.Message)
		assert.Equal(t, result.DataGroupValidation.Details, step.Details.DataGroups.Groups)
	})
}

func TestCRLCheck(t *testing.T) {
	t.Run("revoked is an error", func(t *testing.T) {
		result := validResult()
		result.CertificateChainValidation.CRLStatus = models.CRLRevoked
		result.CertificateChainValidation.RevocationReason = "keyCompromise"

		step := Project(result)[models.StageCRLCheck-1]
		assert.Equal(t, models.StepError, step.Status)
		assert.Equal(t, "keyCompromise", step.Details.CRL.RevocationReason)
	})

	t.Run("missing CRL is a warning, not a success", func(t *testing.T) {
		result := validResult()
		result.CertificateChainValidation.CRLStatus = models.CRLNotFound

		step := Project(result)[models.StageCRLCheck-1]
		assert.Equal(t, models.StepWarning, step.Status)

		result.CertificateChainValidation.CRLStatus = ""
		assert.Equal(t, models.StepWarning, Project(result)[models.StageCRLCheck-1].Status)
	})
}

func TestDSCRegistration(t *testing.T) {
	t.Run("newly registered", func(t *testing.T) {
		result := validResult()
		result.DSCAutoRegistration.Status = models.RegistrationNew
		assert.Equal(t, models.StepSuccess, Project(result)[models.StageDSCRegistration-1].Status)
	})

	t.Run("failed attempt is a warning, not an error", func(t *testing.T) {
		result := validResult()
		result.DSCAutoRegistration = &models.DSCAutoRegistration{
			Status: models.RegistrationFailed,
			Error:  "store rejected duplicate serial",
		}
		step := Project(result)[models.StageDSCRegistration-1]
		assert.Equal(t, models.StepWarning, step.Status)
		assert.Equal(t, "store rejected duplicate serial", step.Message)
	})

	t.Run("absent information is a warning", func(t *testing.T) {
		result := validResult()
		result.DSCAutoRegistration = nil
		assert.Equal(t, models.StepWarning, Project(result)[models.StageDSCRegistration-1].Status)
	})
}
