// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package urlguard decides, before any connection is opened, whether a
// caller-supplied URL is safe to fetch. It classifies the literal hostname
// text only and performs no DNS resolution: a public-looking hostname that
// resolves to a private address at connect time is not caught here.
package urlguard

// Result is the outcome of validating a raw URL. It is always exactly one
// of two variants: allowed (SanitizedURL set, Reason empty) or denied
// (Reason set). A denial is data, never an error; it is a final answer for
// that URL.
type Result struct {
	Allowed      bool
	SanitizedURL string
	Reason       string
	// CrossHost is set only by ValidateRedirect, when an allowed redirect
	// target lives on a different host than the original request. A weak
	// signal worth logging, not a denial.
	CrossHost bool
}

func allowedResult(sanitized string) Result {
	return Result{Allowed: true, SanitizedURL: sanitized}
}

func deniedResult(reason string) Result {
	return Result{Reason: reason}
}
