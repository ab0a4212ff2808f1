package sessionmeter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chrisconley/sessionmeter/internal/infra"
	"github.com/chrisconley/sessionmeter/internal/tracker"
	specs "github.com/chrisconley/sessionmeter/specs"
)

const maxLineSize = 16 << 20

// Run reads session input from in and writes results to out. Logs go to errOut.
//
// Without batch, in holds a single JSON session input and out receives a
// single JSON document. With batch, every non-blank line of in is a session
// input and out receives one batchLine per input, in input order.
func Run(ctx context.Context, cfg Config, in io.Reader, out, errOut io.Writer) error {
	logger, err := newLogger(cfg.LogLevel, errOut)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	r := &runner{
		cfg:     cfg,
		logger:  logger,
		tracker: tracker.New(tracker.WithLogger(logger), tracker.WithWorkers(cfg.Workers)),
		out:     json.NewEncoder(out),
	}

	if cfg.Batch {
		return r.runBatch(ctx, in)
	}
	return r.runSingle(ctx, in)
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	config := zap.NewProductionEncoderConfig()
	config.TimeKey = "timestamp"
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(config), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

type runner struct {
	cfg     Config
	logger  *zap.Logger
	tracker *tracker.Tracker
	out     *json.Encoder
}

// batchLine is one line of batch output. Exactly one of Result and Error is set.
type batchLine struct {
	Index  int    `json:"index"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r *runner) runSingle(ctx context.Context, in io.Reader) error {
	var input specs.SessionInputSpec
	if err := json.NewDecoder(in).Decode(&input); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	result, err := r.process(ctx, r.withDefaults(input))
	if err != nil {
		return fmt.Errorf("%s session: %w", r.cfg.Mode, err)
	}

	if err := r.out.Encode(result); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func (r *runner) runBatch(ctx context.Context, in io.Reader) error {
	var rejected atomic.Int64
	r.tracker.Bus().Subscribe(infra.SessionRejected, func(infra.Event) {
		rejected.Add(1)
	})

	inputs, decodeErrs, err := r.readBatch(in)
	if err != nil {
		return err
	}

	lines := make([]batchLine, len(inputs))
	var valid []specs.SessionInputSpec
	var positions []int
	for i, input := range inputs {
		lines[i].Index = i
		if err, ok := decodeErrs[i]; ok {
			lines[i].Error = err.Error()
			continue
		}
		valid = append(valid, input)
		positions = append(positions, i)
	}

	if r.cfg.Mode == ModeTrack {
		results, err := r.tracker.TrackBatch(ctx, valid)
		if err != nil {
			return err
		}
		for _, result := range results {
			line := &lines[positions[result.Index]]
			if result.Err != nil {
				line.Error = result.Err.Error()
			} else {
				line.Result = result.State
			}
		}
	} else {
		for j, input := range valid {
			result, err := r.process(ctx, input)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			line := &lines[positions[j]]
			if err != nil {
				line.Error = err.Error()
			} else {
				line.Result = result
			}
		}
	}

	for _, line := range lines {
		if err := r.out.Encode(line); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	failed := int64(len(decodeErrs)) + rejected.Load()
	r.logger.Info("batch finished",
		zap.Int("sessions", len(lines)),
		zap.Int64("rejected", failed))
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions rejected", failed, len(lines))
	}
	return nil
}

// readBatch decodes one session input per non-blank line. Lines that fail to
// decode keep their position and are reported in the returned map.
func (r *runner) readBatch(in io.Reader) ([]specs.SessionInputSpec, map[int]error, error) {
	var inputs []specs.SessionInputSpec
	decodeErrs := map[int]error{}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var input specs.SessionInputSpec
		if err := json.Unmarshal(line, &input); err != nil {
			err = fmt.Errorf("decode line %d: %w", lineNo, err)
			r.logger.Warn("invalid session input", zap.Int("line", lineNo), zap.Error(err))
			decodeErrs[len(inputs)] = err
		}
		inputs = append(inputs, r.withDefaults(input))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read input: %w", err)
	}
	return inputs, decodeErrs, nil
}

func (r *runner) process(ctx context.Context, input specs.SessionInputSpec) (any, error) {
	switch r.cfg.Mode {
	case ModeFlatten:
		return r.tracker.Flatten(ctx, input)
	case ModeStreams:
		return r.tracker.Streams(ctx, input)
	default:
		return r.tracker.Track(ctx, input)
	}
}

// withDefaults fills in the configured TTL when the input has none.
func (r *runner) withDefaults(input specs.SessionInputSpec) specs.SessionInputSpec {
	if input.TTL == "" {
		input.TTL = json.Number(r.cfg.TTL)
	}
	return input
}
