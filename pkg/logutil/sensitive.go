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

package logutil

import (
	"regexp"
)

var (
	// user:password@tcp(host:port)/db
	dsnPatterns = `(\b[\w.\-]+:)([^@/"\s:]*)(@(tcp|unix)?\()`
	dsnRegexp   = regexp.MustCompile(dsnPatterns)

	// password = "xxx" in toml, password: xxx in yaml
	passwordPatterns = `((password|sasl-password)"?\s*[=:]\s*"?)([^"\n]*)("?)`
	passwordRegexp   = regexp.MustCompile(passwordPatterns)

	// s3://bucket/prefix?secret-access-key=xxx
	secretKeyPatterns = `((secret-access-key|access-key|sas-token)=)([^&]*)`
	secretKeyRegexp   = regexp.MustCompile(secretKeyPatterns)

	// HideSensitive is used to replace sensitive information with `******` in log.
	HideSensitive = func(input string) string {
		output := dsnRegexp.ReplaceAllString(input, "$1******$3")
		output = passwordRegexp.ReplaceAllString(output, "$1******$4")
		output = secretKeyRegexp.ReplaceAllString(output, "$1******")
		return output
	}
)
