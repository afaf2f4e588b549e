package airpods

import (
  "errors"
)

var (
  ErrEmptyPayload = errors.New("empty payload")
  ErrUnknownPayload = errors.New("unknown payload")
  ErrUnsupportedModel = errors.New("unsupported device type")
  ErrTruncatedPayload = errors.New("truncated payload")
)
