// Package subgenerr defines the tagged error variants that cross every
// stage boundary in the pipeline. Callers that need to branch on failure
// category use Kind(), never string matching on Error().
package subgenerr

import "fmt"

// Kind identifies one of the recoverable error categories. Anything not
// in this list is a programming error and must panic instead.
type Kind string

const (
	KindBadInput            Kind = "bad-input"
	KindBadConfig           Kind = "bad-config"
	KindMissingComponent    Kind = "missing-component"
	KindMissingIntegrity    Kind = "missing-integrity"
	KindUnsafeArchive       Kind = "unsafe-archive"
	KindTranscriptionFail   Kind = "transcription-failed"
	KindTranslationFail     Kind = "translation-failed"
	KindProofreadFail       Kind = "proofread-failed"
	KindCancelled           Kind = "cancelled"
	KindTimeout             Kind = "timeout"
	KindCredential          Kind = "credential"
	KindIO                  Kind = "io"
	KindUnsupportedPlatform Kind = "unsupported-platform"
	KindIncompatibleCache   Kind = "incompatible-cache"
	KindBadColor            Kind = "bad-color"
	KindBadTranscription    Kind = "bad-transcription-output"
)

// Error is the tagged variant carried across stage boundaries.
type Error struct {
	K      Kind
	Msg    string
	Cause  error
	Remedy string // Human-readable remediation hint, e.g. an `install` command.
}

func (e *Error) Error() string {
	if e.Remedy != "" {
		return fmt.Sprintf("%s: %s (%s)", e.K, e.Msg, e.Remedy)
	}
	return fmt.Sprintf("%s: %s", e.K, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// Kind returns the error's category, satisfying callers that only need to
// branch on recoverability without importing this package's constants
// directly.
func (e *Error) Kind() Kind { return e.K }

func newErr(k Kind, msg string, cause error, remedy string) *Error {
	return &Error{K: k, Msg: msg, Cause: cause, Remedy: remedy}
}

func BadInput(msg string, cause error) *Error { return newErr(KindBadInput, msg, cause, "") }
func BadConfig(path string, cause error) *Error {
	return newErr(KindBadConfig, fmt.Sprintf("invalid value at %s", path), cause, "")
}
func MissingComponent(id, installCmd string) *Error {
	return newErr(KindMissingComponent, fmt.Sprintf("component %q is not installed", id), nil,
		fmt.Sprintf("run `subgen install %s`", installCmd))
}
func MissingIntegrity(id string) *Error {
	return newErr(KindMissingIntegrity, fmt.Sprintf("component %q has a missing or mismatched checksum", id), nil, "")
}
func UnsafeArchive(entry string) *Error {
	return newErr(KindUnsafeArchive, fmt.Sprintf("archive entry %q escapes the install directory", entry), nil, "")
}
func TranscriptionFailed(msg string, cause error) *Error {
	return newErr(KindTranscriptionFail, msg, cause, "")
}
func TranslationFailed(msg string, cause error) *Error {
	return newErr(KindTranslationFail, msg, cause, "")
}
func ProofreadFailed(msg string, cause error) *Error {
	return newErr(KindProofreadFail, msg, cause, "")
}
func Cancelled() *Error { return newErr(KindCancelled, "operation cancelled", nil, "") }
func Timeout(op string, cause error) *Error {
	return newErr(KindTimeout, fmt.Sprintf("%s exceeded its timeout", op), cause, "")
}
func Credential(msg string) *Error {
	return newErr(KindCredential, msg, nil, "set the credential via --api-key, an env var, or config.yaml")
}
func IO(path string, cause error) *Error {
	return newErr(KindIO, fmt.Sprintf("filesystem error at %s", path), cause, "")
}
func UnsupportedPlatform(os, arch string) *Error {
	return newErr(KindUnsupportedPlatform, fmt.Sprintf("unsupported platform %s-%s", os, arch), nil, "")
}
func IncompatibleCache(version int) *Error {
	return newErr(KindIncompatibleCache, fmt.Sprintf("cache schema version %d is not supported", version), nil, "")
}
func BadColor(s string) *Error {
	return newErr(KindBadColor, fmt.Sprintf("invalid color literal %q", s), nil, "")
}
func BadTranscriptionOutput(msg string, cause error) *Error {
	return newErr(KindBadTranscription, msg, cause, "")
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.K == k
}
