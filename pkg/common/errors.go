package common

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies why a single photo could not be processed
type Kind string

const (
	KindSourceRead              Kind = "source_read"
	KindNetwork                 Kind = "network"
	KindMetadataParse           Kind = "metadata_parse"
	KindInvalidCoordinateFormat Kind = "invalid_coordinate_format"
	KindUnknownHemisphere       Kind = "unknown_hemisphere"
	KindInvalidDimensions       Kind = "invalid_dimensions"
	KindEncodeOrSave            Kind = "encode_or_save"
	KindCanceled                Kind = "canceled"
)

// ItemError is a failure scoped to one source item. It never aborts a batch.
type ItemError struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.ID, e.Kind, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError wraps err with the item identity. An error that already
// carries a kind keeps it.
func NewItemError(kind Kind, id string, err error) error {
	var ie *ItemError
	if errors.As(err, &ie) {
		return err
	}
	return &ItemError{Kind: kind, ID: id, Err: err}
}

// KindOf reports the failure kind carried by err. Context errors are
// always reported as canceled.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	var ie *ItemError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

type S3Error struct {
	Message string
}

func (e *S3Error) Error() string {
	return fmt.Sprintf("S3 Error: %s", e.Message)
}

func NewConfigError(message string) error {
	return &ConfigError{Message: message}
}

func NewS3Error(message string) error {
	return &S3Error{Message: message}
}
