package errors

// ErrorCode identifies an application error class in API responses
type ErrorCode int

const (
	ErrorCode_UNKNOWN ErrorCode = iota
	ErrorCode_INTERNAL
	ErrorCode_INVALID_ARGUMENT
	ErrorCode_NOT_FOUND
	ErrorCode_UNAUTHENTICATED
	ErrorCode_INVALID_PAYLOAD

	// Attribution
	ErrorCode_ATTRIBUTION_FAILED
	ErrorCode_ATTRIBUTION_NOT_FOUND
	ErrorCode_TRANSCRIPT_NOT_FOUND
	ErrorCode_TRANSCRIPT_NOT_READY
	ErrorCode_INVALID_UTTERANCE

	// Integrations
	ErrorCode_INTEGRATION_DIARIZATION_FAILED
	ErrorCode_INTEGRATION_STORAGE_FAILED
)

var codeNames = map[ErrorCode]string{
	ErrorCode_UNKNOWN:                        "UNKNOWN",
	ErrorCode_INTERNAL:                       "INTERNAL",
	ErrorCode_INVALID_ARGUMENT:               "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:                      "NOT_FOUND",
	ErrorCode_UNAUTHENTICATED:                "UNAUTHENTICATED",
	ErrorCode_INVALID_PAYLOAD:                "INVALID_PAYLOAD",
	ErrorCode_ATTRIBUTION_FAILED:             "ATTRIBUTION_FAILED",
	ErrorCode_ATTRIBUTION_NOT_FOUND:          "ATTRIBUTION_NOT_FOUND",
	ErrorCode_TRANSCRIPT_NOT_FOUND:           "TRANSCRIPT_NOT_FOUND",
	ErrorCode_TRANSCRIPT_NOT_READY:           "TRANSCRIPT_NOT_READY",
	ErrorCode_INVALID_UTTERANCE:              "INVALID_UTTERANCE",
	ErrorCode_INTEGRATION_DIARIZATION_FAILED: "INTEGRATION_DIARIZATION_FAILED",
	ErrorCode_INTEGRATION_STORAGE_FAILED:     "INTEGRATION_STORAGE_FAILED",
}

// String returns the wire name of the code
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return codeNames[ErrorCode_UNKNOWN]
}
