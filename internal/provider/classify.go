package provider

// Classification buckets a platform error code into a retry decision.
type Classification string

const (
	// DeveloperFixable errors are caused by the request itself; retrying
	// an unchanged request cannot succeed.
	DeveloperFixable Classification = "DEVELOPER_FIXABLE"

	// PlatformEnforced errors are policy blocks on the sending account;
	// only the platform can lift them.
	PlatformEnforced Classification = "PLATFORM_ENFORCED"

	// RateLimited errors clear on their own once throughput drops.
	RateLimited Classification = "RATE_LIMITED"

	// Transient errors are expected to clear on a plain retry.
	Transient Classification = "TRANSIENT"
)

func (c Classification) String() string { return string(c) }

// Retryable reports whether the retry controller may attempt again.
func (c Classification) Retryable() bool {
	return c == RateLimited || c == Transient
}

// Platform error codes from the documented taxonomy.
const (
	codeAuth            = 190
	codeParamInvalid    = 100
	codePermission      = 200
	codeReengagement    = 131047
	codePolicyViolation = 368
)

// Token error subcodes under code 190 that clear after a credential
// refresh. A bare 190 is a malformed authorization header instead.
var transientAuthSubcodes = map[int]struct{}{
	460: {},
	463: {},
	467: {},
}

var rateLimitCodes = map[int]struct{}{
	4:  {},
	17: {},
	32: {},
}

// Classify maps a platform (code, subcode) pair to its classification. This
// table is the single source of truth for retry decisions; unknown codes
// default to DeveloperFixable so unrecognized failures are never retried
// automatically.
func Classify(code int, subcode *int) Classification {
	if _, ok := rateLimitCodes[code]; ok {
		return RateLimited
	}

	switch code {
	case codeAuth:
		if subcode != nil {
			if _, ok := transientAuthSubcodes[*subcode]; ok {
				return Transient
			}
		}
		return DeveloperFixable
	case codePolicyViolation:
		return PlatformEnforced
	case codeParamInvalid, codePermission, codeReengagement:
		return DeveloperFixable
	}

	return DeveloperFixable
}
