package connectors

import "fmt"

// CustodyErrorCodes maps escrow service error codes to human-readable messages.
var CustodyErrorCodes = map[int]string{
	0:    "ES_SUCCESS",                // No error, success
	1001: "ES_UNKNOWN_ERROR",          // Unknown error
	1002: "ES_INVALID_ARGUMENT",       // Invalid argument (missing or wrong param)
	1003: "ES_MAINTENANCE_MODE",       // Escrow maintenance mode
	1010: "ES_ASSET_UNKNOWN",          // Asset not known to the escrow
	1011: "ES_ASSET_FROZEN",           // Asset transfers suspended
	1020: "ES_OWNER_NOT_FOUND",        // Owner account does not exist
	1021: "ES_OWNER_FROZEN",           // Owner account frozen
	1030: "ES_INSUFFICIENT_BALANCE",   // Not enough balance to transfer in
	1031: "ES_AMOUNT_TOO_SMALL",       // Amount below escrow minimum
	1032: "ES_AMOUNT_TOO_LARGE",       // Amount above escrow maximum
	1040: "ES_DUPLICATE_REFERENCE",    // Reference id already used
	1041: "ES_REFERENCE_INVALID",      // Malformed reference id
	1050: "ES_PAYOUT_POLICY_REJECTED", // Liquidation payout rejected by policy
	1060: "ES_SIGNATURE_INVALID",      // Request signature check failed
	1061: "ES_REQUEST_EXPIRED",        // Request expiry in the past
}

// GetErrorMsg returns a human-readable message for a given custody error code.
func GetErrorMsg(code int) string {
	if msg, ok := CustodyErrorCodes[code]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_CUSTODY_ERROR_%d", code)
}
