package errors

import "errors"

// Common errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Transcript errors
var (
	ErrTranscriptNotFound  = errors.New("transcript not found")
	ErrTranscriptNotReady  = errors.New("transcript not completed")
	ErrTranscriptFailed    = errors.New("transcript failed at provider")
	ErrNoUtteranceSource   = errors.New("either utterances or a provider transcript id is required")
	ErrProviderUnavailable = errors.New("diarization provider not configured")
)

// Attribution errors
var (
	ErrAttributionFailed   = errors.New("speaker attribution failed")
	ErrAttributionNotFound = errors.New("attribution not found")
	ErrJobNotFound         = errors.New("attribution job not found")
)

// Webhook errors
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
)
