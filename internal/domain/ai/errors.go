package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNoModelAvailable indicates the model catalog had no entry usable for text generation.
var ErrNoModelAvailable = errors.New("no text generation model available")

// ErrEmptyResponse indicates the backend answered without any candidate text.
var ErrEmptyResponse = errors.New("ai response has no usable content")

// ErrUnparsable indicates the reply lacked a FILENAME or CATEGORY line.
var ErrUnparsable = errors.New("ai response is missing FILENAME or CATEGORY")
