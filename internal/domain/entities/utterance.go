package entities

import (
	"fmt"

	"github.com/johnquangdev/speaker-attribution/pkg/validator"
)

// Utterance is one contiguous span of speech tagged with an anonymous provider label
type Utterance struct {
	Label      string  `json:"label" yaml:"label" validate:"required"`
	Text       string  `json:"text" yaml:"text"`
	StartMs    int64   `json:"start_ms" yaml:"start_ms" validate:"gte=0"`
	EndMs      int64   `json:"end_ms" yaml:"end_ms" validate:"gtefield=StartMs"`
	Confidence float64 `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
}

// NewUtterance creates a validated utterance
func NewUtterance(label, text string, startMs, endMs int64, confidence float64) (Utterance, error) {
	u := Utterance{
		Label:      label,
		Text:       text,
		StartMs:    startMs,
		EndMs:      endMs,
		Confidence: confidence,
	}
	if err := u.Validate(); err != nil {
		return Utterance{}, err
	}
	return u, nil
}

// Validate checks label presence and timestamp ordering
func (u Utterance) Validate() error {
	if err := validator.Struct(u); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUtterance, err)
	}
	return nil
}

// DurationMs returns end minus start
func (u Utterance) DurationMs() int64 {
	return u.EndMs - u.StartMs
}

// CleanUtterance is an utterance after prefix stripping. Text holds the cleaned text.
type CleanUtterance struct {
	Utterance
	OriginalText string `json:"original_text" yaml:"original_text"`
}

// AttributedUtterance is a cleaned utterance with its label resolved to a participant name
type AttributedUtterance struct {
	Speaker       string  `json:"speaker"`
	OriginalLabel string  `json:"original_label"`
	Text          string  `json:"text"`
	OriginalText  string  `json:"original_text,omitempty"`
	StartMs       int64   `json:"start_ms"`
	EndMs         int64   `json:"end_ms"`
	Confidence    float64 `json:"confidence"`
}
