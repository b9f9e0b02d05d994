package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/klytics/sheetai/internal/formats/xlsx"
	"github.com/klytics/sheetai/internal/logging"
	"github.com/klytics/sheetai/internal/tabular"
	"github.com/klytics/sheetai/internal/target"
)

// SourceKind names where the cells sent to the model come from.
type SourceKind string

const (
	SourceRange SourceKind = "range"
	SourceTable SourceKind = "table"
	SourceSheet SourceKind = "sheet"
)

// Source selects a block of cells. An empty Ref with SourceSheet means the
// active sheet.
type Source struct {
	Kind SourceKind `json:"kind" yaml:"kind"`
	Ref  string     `json:"ref,omitempty" yaml:"ref,omitempty"`
}

// ParseSource reads "range:A1:B5", "table:Sales" or "sheet:Data". A bare
// string is taken as a range address and an empty one as the active sheet.
func ParseSource(s string) (Source, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Source{Kind: SourceSheet}, nil
	}
	kind, ref, ok := strings.Cut(s, ":")
	if ok {
		switch SourceKind(strings.ToLower(kind)) {
		case SourceRange, SourceTable, SourceSheet:
			k := SourceKind(strings.ToLower(kind))
			ref = strings.TrimSpace(ref)
			if ref == "" && k != SourceSheet {
				return Source{}, fmt.Errorf("%s source needs a name or address — e.g. %s:Sales", k, k)
			}
			return Source{Kind: k, Ref: ref}, nil
		}
	}
	return Source{Kind: SourceRange, Ref: s}, nil
}

func (s Source) String() string {
	if s.Ref == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Ref
}

// Read pulls the selected cells from book.
func (s Source) Read(book *xlsx.Book) (xlsx.Block, error) {
	switch s.Kind {
	case SourceRange:
		return book.ReadRange(s.Ref)
	case SourceTable:
		return book.ReadTable(s.Ref)
	case SourceSheet, "":
		return book.ReadSheet(s.Ref)
	default:
		return xlsx.Block{}, fmt.Errorf("unknown source kind %q — use range, table or sheet", s.Kind)
	}
}

// Request is one instruction against a workbook.
type Request struct {
	Prompt     string
	Source     Source
	PasteRange string
	NewSheet   bool
}

// Result describes what the model said and where it landed.
type Result struct {
	Answer string         `json:"answer"`
	Output tabular.Output `json:"output"`
	Target target.Target  `json:"target"`
	Region string         `json:"region"`
	Source string         `json:"source"`
	Model  string         `json:"model,omitempty"`
	Tokens int            `json:"tokens,omitempty"`
}

// Bridge runs requests against open workbooks.
type Bridge struct {
	answerer Answerer
	logger   *zap.Logger
	now      func() time.Time
}

// New returns a Bridge that asks a.
func New(a Answerer, logger *zap.Logger) *Bridge {
	return &Bridge{answerer: a, logger: logging.OrNop(logger), now: time.Now}
}

// NewSheetName is the name given to a sheet created for a result.
func NewSheetName(t time.Time) string {
	return fmt.Sprintf("AI_Result_%d", t.UnixMilli())
}

// Ask reads the source block, asks the model, and writes the classified
// answer to the resolved destination. The workbook is modified in memory
// only; saving is the caller's decision.
func (b *Bridge) Ask(ctx context.Context, book *xlsx.Book, req Request) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	block, err := req.Source.Read(book)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", req.Source, err)
	}

	res, err := b.answerer.Answer(ctx, req.Prompt, StringValues(block.Values))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrModel, err)
	}

	out := tabular.Classify(res.Content)
	dest := target.FromOptions(req.NewSheet, req.PasteRange, block.Address)
	env := target.Env{ActiveSheet: book.ActiveSheet(), NewSheetName: NewSheetName(b.now())}

	tgt, err := target.Resolve(dest, out.Extent(), env)
	if err != nil {
		return nil, err
	}

	region, err := book.Apply(tgt, out)
	if err != nil {
		return nil, fmt.Errorf("could not write result: %w", err)
	}
	if tgt.Create {
		// The sheet may have been renamed to avoid a clash.
		tgt.Sheet, _, _ = target.SplitAddress(region)
	}

	b.logger.Info("answer written",
		zap.String("source", block.Address),
		zap.String("destination", dest.Kind.String()),
		zap.String("region", region),
		zap.String("kind", string(out.Kind)))

	return &Result{
		Answer: res.Content,
		Output: out,
		Target: tgt,
		Region: region,
		Source: block.Address,
		Model:  res.Model,
		Tokens: res.InputTokens + res.OutputTokens,
	}, nil
}
