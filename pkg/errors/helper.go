// Copyright 2024 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	"context"
	"strings"

	"github.com/pingcap/errors"
)

// WrapError generates a new error based on given `*errors.Error`, wraps the err
// as cause error.
// If given `err` is nil, returns a nil error, which is a the different behavior
// against `Wrap` function in pingcap/errors.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByCause(args...)
}

// Is reports whether err is (or wraps) an error generated from rfcError.
func Is(err error, rfcError *errors.Error) bool {
	if err == nil {
		return false
	}
	if rfcError.Equal(err) {
		return true
	}
	return strings.Contains(err.Error(), "["+string(rfcError.RFCCode())+"]")
}

// IsContextCanceledError checks if an error is caused by context.Canceled or
// context.DeadlineExceeded.
func IsContextCanceledError(err error) bool {
	cause := errors.Cause(err)
	return cause == context.Canceled || cause == context.DeadlineExceeded
}
