// Package bridge connects workbook cells to an LLM provider: it samples a
// block of cells, asks the model, classifies the answer and writes it back.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/ai"
	"github.com/klytics/sheetai/internal/logging"
)

// ErrEmptyPrompt is returned when the instruction is blank.
var ErrEmptyPrompt = errors.New("missing prompt")

// ErrModel marks a failed model call in an Ask.
var ErrModel = errors.New("LLM error")

// Answerer forwards an instruction and a table sample to a model.
type Answerer interface {
	Answer(ctx context.Context, prompt string, values [][]any) (*ai.InferResult, error)
}

// Asker is the Answerer backed by an ai.Provider.
type Asker struct {
	provider ai.Provider
	maxRows  int
	opts     ai.InferOptions
	logger   *zap.Logger
}

// NewAsker returns an Asker. A maxRows of zero or less uses DefaultMaxRows.
func NewAsker(p ai.Provider, maxRows int, opts ai.InferOptions, logger *zap.Logger) *Asker {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Asker{provider: p, maxRows: maxRows, opts: opts, logger: logging.OrNop(logger)}
}

// Provider returns the name of the backing provider.
func (a *Asker) Provider() string {
	return a.provider.Name()
}

// Answer sends the prompt with at most maxRows rows of values.
func (a *Asker) Answer(ctx context.Context, prompt string, values [][]any) (*ai.InferResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	sample := Sample(values, a.maxRows)
	text, err := UserMessage(prompt, sample)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := a.provider.Infer(ctx, SystemPrompt, []ai.Message{{Role: "user", Content: text}}, a.opts)
	if err != nil {
		a.logger.Warn("inference failed",
			zap.String("provider", a.provider.Name()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w", a.provider.Name(), err)
	}

	a.logger.Debug("inference complete",
		zap.String("provider", a.provider.Name()),
		zap.String("model", res.Model),
		zap.Int("rows_sent", len(sample)),
		zap.Int("rows_dropped", len(values)-len(sample)),
		zap.Int("input_tokens", res.InputTokens),
		zap.Int("output_tokens", res.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}
