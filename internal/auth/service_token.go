package auth

import "crypto/subtle"

// VerifyServiceToken compares a presented service-to-service token against
// the configured one in constant time. An empty configured token disables
// service access entirely.
func VerifyServiceToken(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
