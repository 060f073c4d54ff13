package redis

import "fmt"

const (
	// KeyPrefixRecord is the prefix for analysis record keys
	KeyPrefixRecord = "leafsight:record:"
	// KeyPrefixOTP is the prefix for pending verification codes
	KeyPrefixOTP = "leafsight:otp:"
	// KeyAllRecords is the key for the set of all record IDs
	KeyAllRecords = "leafsight:records:all"
)

// RecordKey returns the Redis key for an analysis record by ID
func RecordKey(id string) string {
	return fmt.Sprintf("%s%s", KeyPrefixRecord, id)
}

// OTPKey returns the Redis key for a pending code by identifier
// (email address or phone number)
func OTPKey(identifier string) string {
	return fmt.Sprintf("%s%s", KeyPrefixOTP, identifier)
}

// AllRecordsKey returns the key for the set of all record IDs
func AllRecordsKey() string {
	return KeyAllRecords
}
