package rootdns

import "errors"

var (
	// ErrLookupFailed indicates the DNS query failed or returned no records.
	ErrLookupFailed = errors.New("rootdns: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not set
	// the AD flag.
	ErrDNSSECValidationFailed = errors.New("rootdns: DNSSEC validation failed")

	// ErrNoRoot indicates no allowlist root record was published.
	ErrNoRoot = errors.New("rootdns: no allowlist root published")

	// ErrAmbiguousRoot indicates more than one distinct root was published.
	ErrAmbiguousRoot = errors.New("rootdns: multiple allowlist roots published")

	// ErrInvalidRecord indicates a malformed root record.
	ErrInvalidRecord = errors.New("rootdns: invalid root record")

	// ErrRootMismatch indicates a stage root differs from the published root.
	ErrRootMismatch = errors.New("rootdns: stage root does not match published root")
)
