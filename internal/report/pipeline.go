// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Stage is one named step of the report pipeline.
type Stage struct {
	Name string

	// After lists the stages that must run before this one.
	After []string

	// Run reads the context built so far and returns the sections to add.
	Run func(ctx context.Context, rc *Context) ([]Section, error)
}

// Progress is the stage-level progress display.
type Progress interface {
	Describe(description string)
	Add(n int) error
}

type nopProgress struct{}

func (nopProgress) Describe(string) {}
func (nopProgress) Add(int) error   { return nil }

// NewProgressBar returns a stage progress bar for total stages writing to w.
func NewProgressBar(total int, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionThrottle(50*time.Millisecond),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

// Pipeline runs stages in a fixed, validated order.
type Pipeline struct {
	stages []Stage
}

// NewPipeline checks that stage names are unique and that every stage
// comes after the stages it names in After.
func NewPipeline(stages []Stage) (*Pipeline, error) {
	seen := make(map[string]bool, len(stages))
	all := make(map[string]bool, len(stages))
	for _, s := range stages {
		if s.Name == "" {
			return nil, fmt.Errorf("stage without a name")
		}
		if all[s.Name] {
			return nil, fmt.Errorf("duplicate stage %q", s.Name)
		}
		all[s.Name] = true
	}
	for _, s := range stages {
		if s.Run == nil {
			return nil, fmt.Errorf("stage %q has no run function", s.Name)
		}
		for _, dep := range s.After {
			switch {
			case !all[dep]:
				return nil, fmt.Errorf("stage %q depends on unknown stage %q", s.Name, dep)
			case !seen[dep]:
				return nil, fmt.Errorf("stage %q must run after %q", s.Name, dep)
			}
		}
		seen[s.Name] = true
	}
	return &Pipeline{stages: stages}, nil
}

// Names returns the stage names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage in order, merging each stage's sections into rc
// at the stage boundary. The first error halts the run, wrapped with the
// stage name. Progress lines go to w; bar may be nil.
func (p *Pipeline) Run(ctx context.Context, rc *Context, w io.Writer, bar Progress) error {
	if bar == nil {
		bar = nopProgress{}
	}
	for _, s := range p.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s: %w", s.Name, err)
		}
		fmt.Fprintf(w, "%s\n", s.Name)
		bar.Describe(s.Name)

		start := time.Now()
		sections, err := s.Run(ctx, rc)
		if err != nil {
			return fmt.Errorf("stage %s: %w", s.Name, err)
		}
		rc.Merge(sections)
		fmt.Fprintf(w, "  done in %s (%d sections)\n", time.Since(start).Round(time.Millisecond), len(sections))
		_ = bar.Add(1)
	}
	return nil
}
