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

package generator

import (
	"math/rand"

	"github.com/pingcap/graphflow/pkg/model"
)

// Random streams of a sample. Every stage that needs randomness draws from
// its own stream so that stages stay reproducible independently.
const (
	StreamGenerate uint64 = iota + 1
	StreamMasks
)

// SampleSeed derives the seed of one stream of a sample from the run seed.
// The result has 53 bits so it survives a round trip through JSON.
func SampleSeed(runSeed int64, id model.SampleID, stream uint64) int64 {
	x := uint64(runSeed)
	x = splitmix64(x ^ uint64(id)*0x9e3779b97f4a7c15)
	x = splitmix64(x ^ stream*0xbf58476d1ce4e5b9)
	return int64(x >> 11)
}

// SampleRand returns a rand.Rand owned by one stream of a sample.
func SampleRand(runSeed int64, id model.SampleID, stream uint64) *rand.Rand {
	return rand.New(rand.NewSource(SampleSeed(runSeed, id, stream)))
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
