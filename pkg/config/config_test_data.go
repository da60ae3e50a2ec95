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

package config

const testCfgTestPipelineConfig = `
num-samples = 3
sample-concurrency = 2
seed = 42
output = "/tmp/graphflow-test"

[log]
level = "debug"

[generator]
family = "sbm"
num-vertices-min = 64
num-vertices-max = 128
num-edges-min = 256
num-edges-max = 512
feature-center-distance-max = 3.0
feature-dim = 8
edge-center-distance = 2.0
edge-feature-dim = 2
cluster-proportions = [0.5, 0.5]
p-to-q-ratio = 5.0

[convert]
k-train = 4
k-val = 2

[[models]]
kind = "NearestCentroid"
[models.hparams]
epochs = 10

[[models]]
kind = "LabelPropagation"
[models.hparams]
iterations = 20
alpha = 0.9

[sink]
type = "sql"
[sink.sql]
driver = "mysql"
dsn = "root:secret@tcp(127.0.0.1:3306)/graphflow"
`

const testCfgTestUnknownItem = `
num-samples = 3
unknown-item = true

[[models]]
kind = "MajorityClass"
`
