package solprogram

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ProgramError is a custom program error (Anchor error code 6000+).
type ProgramError struct {
	Code int
	Name string
	Msg  string
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

func errorTable(errs ...*ProgramError) map[int]*ProgramError {
	table := make(map[int]*ProgramError, len(errs))
	for _, e := range errs {
		table[e.Code] = e
	}
	return table
}

// PresaleErrors codes from the presale program, extended with engine-side checks
var PresaleErrors = errorTable(
	&ProgramError{6000, "StageInvalid", "Stage is invalid"},
	&ProgramError{6001, "UnauthorizedAdmin", "Unauthorized admin"},
	&ProgramError{6002, "PresaleEnded", "Presale has been ended"},
	&ProgramError{6003, "PresaleNotStartedYet", "Presale is not started yet"},
	&ProgramError{6004, "InsufficientAllocation", "Remaining allocation is insufficient"},
	&ProgramError{6005, "AlreadyInitialized", "Presale is already initialized"},
	&ProgramError{6006, "PriceCantBeZero", "Price can't be zero"},
	&ProgramError{6007, "SupplyCantBeZero", "Supply can't be zero"},
	&ProgramError{6008, "InvalidDiscount", "Discount must be within [0, BASE]"},
	&ProgramError{6009, "InsufficientVaultBalance", "Vault balance is insufficient"},
	&ProgramError{6010, "MathOverflow", "Math calculation overflow"},
	&ProgramError{6011, "ZeroAmount", "Amount must be greater than zero"},
	&ProgramError{6012, "PurchaseTooSmall", "Input amount buys zero tokens"},
	&ProgramError{6013, "NotInitialized", "Presale is not initialized"},
	&ProgramError{6014, "InsufficientFunds", "Insufficient funds in wallet"},
)

// StakingErrors codes from the token_staking program, extended with engine-side checks
var StakingErrors = errorTable(
	&ProgramError{6000, "NotStaked", "Tokens are not staked"},
	&ProgramError{6001, "NoTokens", "No Tokens to stake"},
	&ProgramError{6002, "LockingPeriodNotOverYet", "Locking period is not over yet"},
	&ProgramError{6003, "InvalidLockingPeriod", "Invalid locking period choice"},
	&ProgramError{6004, "InvalidUnstakeAmount", "Invalid unstake amount"},
	&ProgramError{6005, "AlreadyInitialized", "Reward vault is already initialized"},
	&ProgramError{6006, "InsufficientVaultBalance", "Reward vault balance is insufficient"},
	&ProgramError{6007, "MathOverflow", "Math calculation overflow"},
	&ProgramError{6008, "NotInitialized", "Reward vault is not initialized"},
	&ProgramError{6009, "TimestampRegression", "Timestamp is earlier than last update"},
	&ProgramError{6010, "InsufficientFunds", "Insufficient funds in wallet"},
)

// ProgramErrors holds the error tables keyed by program ID.
var ProgramErrors = map[string]map[int]*ProgramError{
	PresaleProgramID: PresaleErrors,
	StakingProgramID: StakingErrors,
}

// AsProgramError unwraps err to a *ProgramError.
func AsProgramError(err error) (*ProgramError, bool) {
	var pe *ProgramError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// ExtractErrorCode tries multiple methods to extract custom program error code
func ExtractErrorCode(err error) *int {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	// Method 1: Try to parse JSON structure
	// Format: "err": {"InstructionError": [0, {"Custom": 6002}]}
	type CustomError struct {
		Custom interface{} `json:"Custom"`
	}
	type InstructionErrorData struct {
		InstructionError []interface{} `json:"InstructionError"`
	}
	type ErrorWrapper struct {
		Err InstructionErrorData `json:"err"`
	}

	// Find JSON portion in error string
	if jsonStart := strings.Index(errStr, `"err":`); jsonStart != -1 {
		// Extract balanced JSON object
		jsonStr := errStr[jsonStart:]
		braceCount := 0
		endPos := -1

		for i, ch := range jsonStr {
			if ch == '{' {
				braceCount++
			} else if ch == '}' {
				braceCount--
				if braceCount == 0 {
					endPos = i + 1
					break
				}
			}
		}

		if endPos > 0 {
			jsonStr = "{" + jsonStr[:endPos] + "}"

			var wrapper ErrorWrapper
			if err := json.Unmarshal([]byte(jsonStr), &wrapper); err == nil {
				if len(wrapper.Err.InstructionError) >= 2 {
					if customMap, ok := wrapper.Err.InstructionError[1].(map[string]interface{}); ok {
						if customVal, ok := customMap["Custom"]; ok {
							// Handle different JSON number types
							switch v := customVal.(type) {
							case float64:
								code := int(v)
								return &code
							case string:
								if code, err := strconv.Atoi(v); err == nil {
									return &code
								}
							}
						}
					}
				}
			}
		}
	}

	// Method 2: Regex patterns for "Custom": 6002
	patterns := []string{
		`"Custom":\s*(\d+)`,     // "Custom": 6002
		`"Custom":\s*"(\d+)"`,   // "Custom": "6002"
		`Custom:\s*(\d+)`,       // Custom: 6002
		`error code:\s*(\d+)`,   // error code: 6002
		`Error Number:\s*(\d+)`, // Error Number: 6002 (from Anchor logs)
	}

	for _, pattern := range patterns {
		if matches := regexp.MustCompile(pattern).FindStringSubmatch(errStr); len(matches) > 1 {
			if code, err := strconv.Atoi(matches[1]); err == nil {
				return &code
			}
		}
	}

	// Method 3: Hex format - custom program error: 0x1772
	if matches := regexp.MustCompile(`custom program error: 0x([0-9a-fA-F]+)`).FindStringSubmatch(errStr); len(matches) > 1 {
		if code, err := strconv.ParseInt(matches[1], 16, 64); err == nil {
			intCode := int(code)
			return &intCode
		}
	}

	return nil
}

// ParseSolanaError extracts and formats error of a transaction sent to programID
func ParseSolanaError(programID string, err error) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	// Check for BlockhashNotFound (transaction expired)
	if strings.Contains(errStr, "BlockhashNotFound") ||
		strings.Contains(errStr, "Blockhash not found") {
		return "Transaction expired. The blockhash is no longer valid. Please create a new transaction and try again."
	}

	// Try to get custom program error code
	if code := ExtractErrorCode(err); code != nil {
		if pe, ok := ProgramErrors[programID][*code]; ok {
			return pe.Name + " - " + pe.Msg
		}
		return fmt.Sprintf("Custom program error code: %d", *code)
	}

	// Check for simulation failed
	if regexp.MustCompile(`simulation failed`).MatchString(errStr) {
		return "Transaction simulation failed. Check program logs for details."
	}

	// Check for insufficient funds
	if regexp.MustCompile(`insufficient funds`).MatchString(errStr) {
		return "Insufficient SOL balance to pay for transaction"
	}

	// Return truncated error
	if len(errStr) > 300 {
		return errStr[:300] + "..."
	}
	return errStr
}
