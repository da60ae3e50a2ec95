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
	"github.com/pingcap/errors"
)

// errors
var (
	// config related errors
	ErrDecodeConfigFile = errors.Normalize(
		"decode config file %s failed",
		errors.RFCCodeText("GraphFlow:ErrDecodeConfigFile"),
	)
	ErrConfigUnknownItem = errors.Normalize(
		"config file %s contained unknown configuration options: %s",
		errors.RFCCodeText("GraphFlow:ErrConfigUnknownItem"),
	)
	ErrInvalidConfig = errors.Normalize(
		"invalid config: %s",
		errors.RFCCodeText("GraphFlow:ErrInvalidConfig"),
	)
	ErrUnknownGenerator = errors.Normalize(
		"unknown generator family %s",
		errors.RFCCodeText("GraphFlow:ErrUnknownGenerator"),
	)
	ErrUnknownModelKind = errors.Normalize(
		"unknown benchmark model kind %s",
		errors.RFCCodeText("GraphFlow:ErrUnknownModelKind"),
	)
	ErrInvalidHparam = errors.Normalize(
		"invalid hyperparameter %s for model %s: %s",
		errors.RFCCodeText("GraphFlow:ErrInvalidHparam"),
	)

	// storage related errors
	ErrStorageInit = errors.Normalize(
		"init artifact storage %s failed",
		errors.RFCCodeText("GraphFlow:ErrStorageInit"),
	)
	ErrArtifactWrite = errors.Normalize(
		"write artifact %s failed",
		errors.RFCCodeText("GraphFlow:ErrArtifactWrite"),
	)
	ErrArtifactRead = errors.Normalize(
		"read artifact %s failed",
		errors.RFCCodeText("GraphFlow:ErrArtifactRead"),
	)

	// stage related errors
	ErrGenerateSample = errors.Normalize(
		"generate sample %d failed: %s",
		errors.RFCCodeText("GraphFlow:ErrGenerateSample"),
	)
	ErrPersistArtifact = errors.Normalize(
		"persist sample %d failed: %s",
		errors.RFCCodeText("GraphFlow:ErrPersistArtifact"),
	)
	ErrConvertGraph = errors.Normalize(
		"convert graph of sample %d failed: %s",
		errors.RFCCodeText("GraphFlow:ErrConvertGraph"),
	)
	ErrDeriveMasks = errors.Normalize(
		"derive masks of sample %d failed: %s",
		errors.RFCCodeText("GraphFlow:ErrDeriveMasks"),
	)
	ErrBenchmarkModel = errors.Normalize(
		"benchmark model %s on sample %d failed: %s",
		errors.RFCCodeText("GraphFlow:ErrBenchmarkModel"),
	)
	ErrMalformedInstance = errors.Normalize(
		"malformed instance: %s",
		errors.RFCCodeText("GraphFlow:ErrMalformedInstance"),
	)

	// sink related errors
	ErrSinkInit = errors.Normalize(
		"init %s sink failed",
		errors.RFCCodeText("GraphFlow:ErrSinkInit"),
	)
	ErrSinkWrite = errors.Normalize(
		"write rows to %s sink failed",
		errors.RFCCodeText("GraphFlow:ErrSinkWrite"),
	)
	ErrUnknownSinkType = errors.Normalize(
		"unknown sink type %s",
		errors.RFCCodeText("GraphFlow:ErrUnknownSinkType"),
	)
)
