package domain

// MFA methods offered to a user with MFA enabled.
const (
	MFAMethodTOTP       = "totp"
	MFAMethodBackupCode = "backup_code"
)

// MFAChallenge is returned when MFA is enabled (with Secret, ProvisioningURI
// and BackupCodes populated) and re-derived on every password login for an
// MFA user (with only the identifying fields populated).
type MFAChallenge struct {
	UserID          string   `json:"user_id"`
	Issuer          string   `json:"issuer"`
	Account         string   `json:"account"`
	Methods         []string `json:"methods"`
	Secret          string   `json:"secret,omitempty"`
	ProvisioningURI string   `json:"provisioning_uri,omitempty"`
	BackupCodes     []string `json:"backup_codes,omitempty"`
}
