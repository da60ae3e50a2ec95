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

package sbm

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pingcap/errors"
	cerror "github.com/pingcap/graphflow/pkg/errors"
	"github.com/pingcap/graphflow/pkg/logutil"
	"github.com/pingcap/graphflow/pkg/model"
	"github.com/pingcap/graphflow/pkg/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type persistStage struct {
	store storage.ArtifactStore
}

type artifact struct {
	name   string
	mime   string
	encode func(rec *model.SampleRecord) ([]byte, error)
}

var sampleArtifacts = []artifact{
	{ArtifactConfig, storage.MIMEJSON, func(rec *model.SampleRecord) ([]byte, error) {
		return json.Marshal(rec.Config)
	}},
	{ArtifactGraph, storage.MIMEText, func(rec *model.SampleRecord) ([]byte, error) {
		return encodeGraph(rec.Instance.Graph), nil
	}},
	{ArtifactGraphMemberships, storage.MIMEText, func(rec *model.SampleRecord) ([]byte, error) {
		return encodeInts(rec.Instance.GraphMemberships), nil
	}},
	{ArtifactNodeFeatures, storage.MIMEText, func(rec *model.SampleRecord) ([]byte, error) {
		return encodeMatrix(rec.Instance.NodeFeatures), nil
	}},
	{ArtifactFeatureMembership, storage.MIMEText, func(rec *model.SampleRecord) ([]byte, error) {
		return encodeInts(rec.Instance.FeatureMemberships), nil
	}},
	{ArtifactEdgeFeatures, storage.MIMEText, func(rec *model.SampleRecord) ([]byte, error) {
		return encodeEdgeFeatures(rec.Instance.EdgeFeatures), nil
	}},
}

// SampleArtifactNames returns the paths the persist stage writes for id.
func SampleArtifactNames(id model.SampleID) []string {
	names := make([]string, 0, len(sampleArtifacts))
	for _, a := range sampleArtifacts {
		names = append(names, storage.ArtifactName(id, a.name, artifactExt))
	}
	return names
}

func (s *persistStage) Persist(
	ctx context.Context, rec *model.SampleRecord,
) (*model.SampleRecord, []*model.Diagnostic, error) {
	lg := logutil.NewLogger4Sample(logutil.FromContext(ctx), int(rec.SampleID))
	if rec.Instance == nil || rec.Instance.Graph == nil {
		err := cerror.ErrPersistArtifact.GenWithStackByArgs(rec.SampleID, "sample has no instance")
		return rec, []*model.Diagnostic{{
			SampleID: rec.SampleID,
			Stage:    model.StagePersist,
			Message:  err.Error(),
		}}, err
	}

	var (
		errs  error
		diags []*model.Diagnostic
	)
	for _, a := range sampleArtifacts {
		path := storage.ArtifactName(rec.SampleID, a.name, artifactExt)
		err := s.writeArtifact(ctx, rec, a, path)
		if err == nil {
			continue
		}
		lg.Warn("persist artifact failed", zap.String("artifact", path), logutil.ShortError(err))
		errs = multierr.Append(errs, err)
		diags = append(diags, &model.Diagnostic{
			SampleID: rec.SampleID,
			Stage:    model.StagePersist,
			Artifact: path,
			Message:  err.Error(),
		})
	}
	if errs != nil {
		return rec, diags, cerror.ErrPersistArtifact.GenWithStackByArgs(rec.SampleID, errs.Error())
	}
	lg.Debug("sample persisted", zap.Int("artifacts", len(sampleArtifacts)))
	return rec, nil, nil
}

func (s *persistStage) writeArtifact(
	ctx context.Context, rec *model.SampleRecord, a artifact, path string,
) error {
	data, err := a.encode(rec)
	if err != nil {
		return cerror.WrapError(cerror.ErrArtifactWrite, errors.Annotate(err, path))
	}
	return storage.WriteArtifact(ctx, s.store, path, a.mime, data)
}
