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

package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusPending  Status = "Pending"
	StatusComplete Status = "Complete"
	StatusRunning  Status = "Running"
	StatusFailed   Status = "Failed"
)

// Tracer collects root spans, e.g. one per fitted model.
type Tracer struct {
	name  string
	spans sync.Map
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a root span.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := newSpan(name, total)
	t.spans.Store(name, span)
	return context.WithValue(ctx, spanKeyName, span), span
}

// List returns the progress of all root spans ordered by name.
func (t *Tracer) List() []Progress {
	var progress []Progress
	t.spans.Range(func(_, value any) bool {
		p := value.(*Span).Progress()
		p.Tracer = t.name
		progress = append(progress, p)
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Name < progress[j].Name
	})
	return progress
}

type Span struct {
	mu       sync.Mutex
	name     string
	status   Status
	total    int
	count    int
	err      error
	start    time.Time
	finish   time.Time
	children sync.Map
}

func newSpan(name string, total int) *Span {
	return &Span{
		name:   name,
		status: StatusRunning,
		total:  total,
		start:  time.Now(),
	}
}

func (s *Span) Add(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count += n
}

func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count = s.total
	s.status = StatusComplete
	s.finish = time.Now()
}

func (s *Span) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.status = StatusFailed
}

func (s *Span) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Progress reports the state of the span. A running child refines the count of its
// parent: the parent total is scaled by the child total. A failed child fails its parent.
func (s *Span) Progress() Progress {
	s.mu.Lock()
	p := Progress{
		Name:       s.name,
		Status:     s.status,
		Count:      s.count,
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	s.mu.Unlock()
	s.children.Range(func(_, value any) bool {
		child := value.(*Span).Progress()
		switch child.Status {
		case StatusFailed:
			p.Status = StatusFailed
			p.Error = child.Error
			return false
		case StatusRunning:
			if p.Status == StatusRunning {
				p.Count = p.Count*child.Total + child.Count
				p.Total = p.Total * child.Total
			}
		}
		return true
	})
	return p
}

// Start creates a child span of the span carried by ctx. If ctx carries no span the new
// span is detached and ctx is returned unchanged.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	childSpan := newSpan(name, total)
	if ctx == nil {
		return context.Background(), childSpan
	}
	span, ok := ctx.Value(spanKeyName).(*Span)
	if !ok {
		return ctx, childSpan
	}
	span.children.Store(name, childSpan)
	return context.WithValue(ctx, spanKeyName, childSpan), childSpan
}

// Fail marks the span carried by ctx as failed.
func Fail(ctx context.Context, err error) {
	if span, ok := ctx.Value(spanKeyName).(*Span); ok {
		span.Fail(err)
	}
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
