// Package pipeline sequences one recipe command end to end: authorize,
// extract the video id, fetch the transcript, synthesize the recipe, sink it,
// and produce the single user-facing reply. Stages run strictly sequentially;
// nothing is retried.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/recipe-scribe/db"
	"github.com/onnwee/recipe-scribe/recipe"
	"github.com/onnwee/recipe-scribe/sink"
	"github.com/onnwee/recipe-scribe/telemetry"
	"github.com/onnwee/recipe-scribe/youtube"
)

// Stage names mirror the coordinator's progression. The audit log records the
// stage a command reached.
type Stage string

const (
	StageAuthorizing        Stage = "authorizing"
	StageExtracting         Stage = "extracting"
	StageFetchingTranscript Stage = "fetching_transcript"
	StageSynthesizing       Stage = "synthesizing"
	StageSinking            Stage = "sinking"
	StageResponding         Stage = "responding"
)

// Request is one incoming chat command.
type Request struct {
	RequesterID    string
	RequesterLogin string
	RawURL         string
	CorrelationID  string
}

// Response is the terminal state of one command. Message is always set and is
// the only thing shown to the requester.
type Response struct {
	Message string
	Err     error
	Stage   Stage
	Record  *recipe.Record
	Result  *sink.Result
}

// TranscriptFetcher is the transcript service dependency.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, id youtube.VideoID) (*youtube.Transcript, error)
}

// Synthesizer is the completion service dependency.
type Synthesizer interface {
	Synthesize(ctx context.Context, transcript string) (*recipe.Record, error)
}

// MetaLookup optionally resolves video titles for logging and replies.
type MetaLookup interface {
	VideoMeta(ctx context.Context, id youtube.VideoID) (*youtube.VideoMeta, error)
}

// Coordinator wires the pipeline stages together. The allow-list is immutable
// after construction; it is the only state shared between concurrent commands.
type Coordinator struct {
	allowed     map[string]struct{}
	transcripts TranscriptFetcher
	synth       Synthesizer
	out         sink.Sink

	// optional collaborators
	meta  MetaLookup
	audit *sql.DB

	extract func(string) (youtube.VideoID, error)
	now     func() time.Time
}

// New builds a Coordinator. allowedIDs is the set of requester IDs permitted
// to run the pipeline; meta and audit may be nil.
func New(allowedIDs []string, transcripts TranscriptFetcher, synth Synthesizer, out sink.Sink, meta MetaLookup, audit *sql.DB) *Coordinator {
	allowed := make(map[string]struct{}, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = struct{}{}
	}
	return &Coordinator{
		allowed:     allowed,
		transcripts: transcripts,
		synth:       synth,
		out:         out,
		meta:        meta,
		audit:       audit,
		extract:     youtube.ExtractVideoID,
		now:         time.Now,
	}
}

// Authorized reports whether a requester id is on the allow-list.
func (c *Coordinator) Authorized(requesterID string) bool {
	_, ok := c.allowed[requesterID]
	return ok
}

// Handle runs one command through the pipeline. Every failure short-circuits
// to a Response carrying exactly one user-facing message; raw service errors
// never leak into Message.
func (c *Coordinator) Handle(ctx context.Context, req Request) Response {
	start := c.now()
	telemetry.CommandsReceived.Inc()
	ctx = telemetry.WithCorrelation(ctx, req.CorrelationID)
	logger := telemetry.LoggerWithCorr(ctx).With(
		slog.String("requester_id", req.RequesterID),
		slog.String("requester", req.RequesterLogin),
		slog.String("component", "pipeline"),
	)
	ctx, span := telemetry.StartSpan(ctx, "pipeline", "handle_command",
		attribute.String("requester_id", req.RequesterID))
	defer span.End()

	resp := c.run(ctx, logger, req)

	dur := c.now().Sub(start)
	telemetry.PipelineDuration.Observe(dur.Seconds())
	if resp.Err != nil {
		telemetry.RecordError(span, resp.Err)
		logger.Warn("command failed",
			slog.String("stage", string(resp.Stage)),
			slog.Duration("duration", dur),
			slog.Any("err", resp.Err))
	} else {
		telemetry.SetSpanSuccess(span)
		logger.Info("command succeeded",
			slog.String("title", resp.Record.Title),
			slog.Duration("duration", dur))
	}
	c.recordAudit(ctx, req, resp, dur)
	return resp
}

func (c *Coordinator) run(ctx context.Context, logger *slog.Logger, req Request) Response {
	// Authorizing. Unauthorized commands terminate before any external call.
	if !c.Authorized(req.RequesterID) {
		telemetry.CommandsUnauthorized.Inc()
		err := fmt.Errorf("%w: %s", recipe.ErrUnauthorized, req.RequesterID)
		return Response{Message: recipe.UserMessage(err), Err: err, Stage: StageAuthorizing}
	}

	// Extracting (local, no side effects).
	id, err := c.extract(req.RawURL)
	if err != nil {
		telemetry.ExtractFailures.Inc()
		return Response{Message: recipe.UserMessage(err), Err: err, Stage: StageExtracting}
	}
	logger = logger.With(slog.String("video_id", string(id)))

	// Optional title lookup; failures disable the nicety, not the pipeline.
	title := ""
	if c.meta != nil {
		if vm, err := c.meta.VideoMeta(ctx, id); err == nil {
			title = vm.Title
			logger.Debug("video metadata resolved", slog.String("video_title", title))
		} else {
			logger.Debug("video metadata lookup failed", slog.Any("err", err))
		}
	}

	// FetchingTranscript.
	var transcript *youtube.Transcript
	telemetry.TimeFunc(telemetry.TranscriptFetchDuration, func() {
		transcript, err = c.transcripts.FetchTranscript(ctx, id)
	})
	if err != nil {
		telemetry.TranscriptFailures.Inc()
		return Response{Message: recipe.UserMessage(err), Err: err, Stage: StageFetchingTranscript}
	}
	logger.Debug("transcript fetched", slog.Int("segments", len(transcript.Segments)))

	// Synthesizing.
	var rec *recipe.Record
	telemetry.TimeFunc(telemetry.SynthesisDuration, func() {
		rec, err = c.synth.Synthesize(ctx, transcript.Text())
	})
	if err != nil {
		telemetry.SynthesisFailures.Inc()
		return Response{Message: recipe.UserMessage(err), Err: err, Stage: StageSynthesizing}
	}

	// Sinking.
	var res *sink.Result
	telemetry.TimeFunc(telemetry.SinkWriteDuration, func() {
		res, err = c.out.Write(ctx, rec)
	})
	if err != nil {
		telemetry.SinkFailures.Inc()
		return Response{Message: recipe.UserMessage(err), Err: err, Stage: StageSinking, Record: rec}
	}

	telemetry.RecipesExtracted.Inc()
	return Response{
		Message: successMessage(rec, res, title),
		Stage:   StageResponding,
		Record:  rec,
		Result:  res,
	}
}

func successMessage(rec *recipe.Record, res *sink.Result, videoTitle string) string {
	subject := rec.Title
	if videoTitle != "" {
		subject = fmt.Sprintf("%s (from %q)", rec.Title, videoTitle)
	}
	if res.RecordID != "" {
		return fmt.Sprintf("Recipe %s saved to the recipe store (id %s).", subject, res.RecordID)
	}
	return fmt.Sprintf("Recipe %s saved as %s.", subject, res.Filename)
}

// recordAudit persists the audit row and the last-command heartbeat.
// Best effort: failures are logged and swallowed. Unauthorized commands leave
// no trace beyond the log line and counter; they terminate with no further
// side effects.
func (c *Coordinator) recordAudit(ctx context.Context, req Request, resp Response, dur time.Duration) {
	if c.audit == nil || errors.Is(resp.Err, recipe.ErrUnauthorized) {
		return
	}
	outcome := "ok"
	errText := ""
	videoID := ""
	if resp.Err != nil {
		outcome = "error"
		errText = resp.Err.Error()
	}
	if id, err := c.extract(req.RawURL); err == nil {
		videoID = string(id)
	}
	a := db.RequestAudit{
		CorrelationID:  req.CorrelationID,
		RequesterID:    req.RequesterID,
		RequesterLogin: req.RequesterLogin,
		VideoID:        videoID,
		Stage:          string(resp.Stage),
		Outcome:        outcome,
		Error:          errText,
		Duration:       dur,
	}
	if err := db.InsertRequestAudit(ctx, c.audit, a); err != nil {
		slog.Warn("failed to insert request audit", slog.Any("err", err))
	}
	if err := db.SetKV(ctx, c.audit, "last_command_at", c.now().UTC().Format(time.RFC3339)); err != nil {
		slog.Warn("failed to update heartbeat", slog.Any("err", err))
	}
}

// ErrIsPipeline reports whether err belongs to the pipeline taxonomy (as
// opposed to an internal fault).
func ErrIsPipeline(err error) bool {
	for _, sentinel := range []error{
		recipe.ErrInvalidLink,
		recipe.ErrTranscriptUnavailable,
		recipe.ErrNotCookingContent,
		recipe.ErrMalformedResponse,
		recipe.ErrSinkWrite,
		recipe.ErrUnauthorized,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
