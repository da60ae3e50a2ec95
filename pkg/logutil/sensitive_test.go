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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHideSensitive(t *testing.T) {
	t.Parallel()

	strs := []struct {
		old string
		new string
	}{
		{ // mysql sink dsn
			`root:123456@tcp(127.0.0.1:3306)/graphflow?charset=utf8mb4`,
			`root:******@tcp(127.0.0.1:3306)/graphflow?charset=utf8mb4`,
		}, { // dsn with empty password
			`root:@tcp(127.0.0.1:3306)/graphflow`,
			`root:******@tcp(127.0.0.1:3306)/graphflow`,
		}, { // sqlite dsn has nothing to hide
			`file:rows.db?mode=memory&cache=shared`,
			`file:rows.db?mode=memory&cache=shared`,
		}, { // toml
			"[sink.kafka]\nsasl-password = \"abc\"\nsasl-user = \"u\"\n",
			"[sink.kafka]\nsasl-password = \"******\"\nsasl-user = \"u\"\n",
		}, { // storage uri
			`s3://bucket/prefix?access-key=AK&secret-access-key=SK&endpoint=http://127.0.0.1:9000`,
			`s3://bucket/prefix?access-key=******&secret-access-key=******&endpoint=http://127.0.0.1:9000`,
		},
	}
	for _, str := range strs {
		require.Equal(t, str.new, HideSensitive(str.old))
	}
}
