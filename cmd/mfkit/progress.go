// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"io"
	"time"

	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/common/progress"
	"github.com/gorse-io/mfkit/model"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// fitFunc trains a model under ctx, notifying observer after every epoch.
type fitFunc func(ctx context.Context, observer model.Observer) error

// trace runs fit under a root span named name. A progress bar on w follows the span
// after every epoch, and the final state of every span is logged once fit returns.
func trace(ctx context.Context, w io.Writer, name string, fit fitFunc) ([]progress.Progress, error) {
	tracer := progress.NewTracer("mfkit")
	ctx, span := tracer.Start(ctx, name, 1)
	bar := progressbar.NewOptions(1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("fit "+name),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish())
	observer := model.ObserverFunc(func(model.Record) {
		p := span.Progress()
		bar.ChangeMax(p.Total)
		_ = bar.Set(p.Count)
	})

	err := fit(ctx, observer)
	if err != nil {
		span.Fail(err)
	} else {
		span.End()
		_ = bar.Finish()
	}
	list := tracer.List()
	for _, p := range list {
		finish := p.FinishTime
		if finish.IsZero() {
			finish = time.Now()
		}
		fields := []zap.Field{
			zap.String("span", p.Name),
			zap.String("status", string(p.Status)),
			zap.Int("count", p.Count),
			zap.Int("total", p.Total),
			zap.Duration("elapsed", finish.Sub(p.StartTime)),
		}
		if p.Error != "" {
			fields = append(fields, zap.String("error", p.Error))
		}
		log.Logger().Info("fit progress", fields...)
	}
	return list, errors.Trace(err)
}
