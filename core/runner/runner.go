package runner

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"unicare-bulksubmit/api/client"
	"unicare-bulksubmit/core/audit"
	"unicare-bulksubmit/core/record"
)

const DefaultCount = 10

type Generator interface {
	Generate(valid bool) (record.SubmissionPayload, error)
}

type Submitter interface {
	Submit(ctx context.Context, payload record.SubmissionPayload) (*client.Response, error)
}

// Recorder persists outcomes as they happen.
type Recorder interface {
	SaveOutcome(o Outcome) error
}

// Outcome is the result of one iteration. Iteration is 1-based, as printed.
type Outcome struct {
	RunID      string    `json:"runId"`
	Iteration  int       `json:"iteration"`
	RecordID   string    `json:"recordId"`
	Valid      bool      `json:"valid"`
	StatusCode int       `json:"statusCode"`
	OK         bool      `json:"ok"`
	Body       string    `json:"body"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Summary struct {
	RunID     string
	StartedAt time.Time
	Outcomes  []Outcome
	Passed    int
	Failed    int
}

func (s Summary) Pattern() string { return Pattern(s.Outcomes) }

// Pattern renders outcomes as '+' (OK) and '-' (FAIL) in iteration order.
func Pattern(outcomes []Outcome) string {
	var b strings.Builder
	for _, o := range outcomes {
		if o.OK {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

type Runner struct {
	gen Generator
	sub Submitter
	out io.Writer

	count        int
	abortOnError bool
	recorder     Recorder
	audit        audit.AuditLogger

	okLabel   *color.Color
	failLabel *color.Color
}

type Option func(*Runner)

func WithCount(n int) Option {
	return func(r *Runner) { r.count = n }
}

// WithAbortOnError stops the run at the first transport error and returns it.
// By default the error is printed as a FAIL line and the run continues.
func WithAbortOnError(abort bool) Option {
	return func(r *Runner) { r.abortOnError = abort }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

func WithAuditLogger(l audit.AuditLogger) Option {
	return func(r *Runner) { r.audit = l }
}

// WithColor forces ANSI colors on or off. Without it, colors follow the
// terminal detection of fatih/color.
func WithColor(enabled bool) Option {
	return func(r *Runner) {
		if enabled {
			r.okLabel.EnableColor()
			r.failLabel.EnableColor()
		} else {
			r.okLabel.DisableColor()
			r.failLabel.DisableColor()
		}
	}
}

func New(gen Generator, sub Submitter, out io.Writer, opts ...Option) *Runner {
	r := &Runner{
		gen:       gen,
		sub:       sub,
		out:       out,
		count:     DefaultCount,
		audit:     audit.Discard{},
		okLabel:   color.New(color.FgHiGreen),
		failLabel: color.New(color.FgHiRed),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run submits count records sequentially, alternating valid (even index) and
// invalid (odd index), and prints one line per record.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	logger := log.WithField("run", sum.RunID)

	for i := 0; i < r.count; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		valid := i%2 == 0

		payload, err := r.gen.Generate(valid)
		if err != nil {
			return sum, fmt.Errorf("generate record %d: %w", i+1, err)
		}

		o := Outcome{
			RunID:     sum.RunID,
			Iteration: i + 1,
			RecordID:  payload.Record.RecordID,
			Valid:     valid,
			Timestamp: time.Now().UTC(),
		}

		resp, err := r.sub.Submit(ctx, payload)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return sum, ctxErr
			}
			if r.abortOnError {
				return sum, fmt.Errorf("record %d: %w", i+1, err)
			}
			o.Error = err.Error()
			o.Body = err.Error()
		} else {
			o.StatusCode = resp.StatusCode
			o.OK = resp.OK()
			o.Body = resp.Body.String()
		}

		r.print(o)
		r.record(logger, payload.WalletAddress, o)

		sum.Outcomes = append(sum.Outcomes, o)
		if o.OK {
			sum.Passed++
		} else {
			sum.Failed++
		}
	}

	logger.WithFields(log.Fields{"passed": sum.Passed, "failed": sum.Failed}).Info("run complete")
	return sum, nil
}

func (r *Runner) print(o Outcome) {
	if o.OK {
		fmt.Fprintf(r.out, "%s Record %d submitted successfully: %s\n", r.okLabel.Sprint("[OK]"), o.Iteration, o.Body)
		return
	}
	fmt.Fprintf(r.out, "%s Record %d failed: %s\n", r.failLabel.Sprint("[FAIL]"), o.Iteration, o.Body)
}

func (r *Runner) record(logger *log.Entry, walletAddr string, o Outcome) {
	result, reason := "success", "status "+strconv.Itoa(o.StatusCode)
	if !o.OK {
		result = "failure"
	}
	if o.Error != "" {
		reason = o.Error
	}
	r.audit.LogEvent(audit.AuditEvent{
		Timestamp: o.Timestamp,
		EventType: audit.EventSubmissionResult,
		EntityID:  walletAddr,
		Result:    result,
		Reason:    reason,
		Metadata: map[string]string{
			"runId":     o.RunID,
			"recordId":  o.RecordID,
			"iteration": strconv.Itoa(o.Iteration),
		},
	})

	if r.recorder == nil {
		return
	}
	if err := r.recorder.SaveOutcome(o); err != nil {
		logger.WithError(err).WithField("iteration", o.Iteration).Warn("failed to persist outcome")
	}
}
