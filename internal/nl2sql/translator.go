package nl2sql

import (
	"context"
	"fmt"
)

type Request struct {
	NaturalLanguage string `json:"natural_language"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

// TranslationError wraps any failure of the generation step.
type TranslationError struct {
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("failed to translate query: %v", e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
