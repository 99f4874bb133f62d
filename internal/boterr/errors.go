package boterr

import "errors"

var (
	ErrInvalidFormat       = errors.New("invalid format")
	ErrUnknownLanguage     = errors.New("unknown language")
	ErrTransport           = errors.New("transport failure")
	ErrUnknownResponseType = errors.New("unrecognized result type")
	ErrInvalidExpression   = errors.New("invalid expression")
)
