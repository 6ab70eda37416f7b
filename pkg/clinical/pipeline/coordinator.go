// Package pipeline runs one clinical session through retrieval, drafting, review and
// marker extraction, and merges the outputs into a PipelineResult.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinical-intelligence-be/internal/pkg/logger"
	"clinical-intelligence-be/pkg/clinical"
	"clinical-intelligence-be/pkg/clinical/orgconfig"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const module = "PIPELINE"

const (
	DefaultHistoryLimit = 2
	DefaultStageTimeout = 240 * time.Second
)

type State string

const (
	StateRetrieving State = "Retrieving"
	StateDrafting   State = "Drafting"
	StateReviewing  State = "Reviewing"
	StateExtracting State = "Extracting"
	StateMerging    State = "Merging"
	StateDone       State = "Done"
	StateFailed     State = "Failed"
)

type HistoryRetriever interface {
	Query(ctx context.Context, orgId, clientId, queryText string, limit int) (clinical.RetrievedHistory, error)
}

type PolicySource interface {
	GetPolicyContext(ctx context.Context, orgId string) (policy string, ok bool, err error)
}

type Drafter interface {
	Draft(ctx context.Context, rawText, historyText string, org clinical.OrgContext) (string, error)
}

type Reviewer interface {
	Critique(ctx context.Context, draftRaw, instructions, policyContext string) (string, error)
}

// MarkerSource must absorb its own failures and return clinical.SentinelMarkers() instead.
type MarkerSource interface {
	Extract(ctx context.Context, draftRaw string) clinical.MarkerSet
}

// Dependencies are the collaborators of a Coordinator. All are required.
type Dependencies struct {
	History  HistoryRetriever
	Policy   PolicySource
	Orgs     orgconfig.Provider
	Drafter  Drafter
	Reviewer Reviewer
	Markers  MarkerSource
	Logger   logger.ILogger
}

type Options struct {
	// RequireHistory makes an unavailable retrieval store fail the run instead of
	// continuing with an empty history.
	RequireHistory bool
	HistoryLimit   int
	// StageTimeout bounds every generation call. Zero disables the bound.
	StageTimeout     time.Duration
	UnknownOrgPolicy orgconfig.UnknownOrgPolicy
	// OnTransition is called on every state change. It may be called from several
	// goroutines while Reviewing and Extracting run.
	OnTransition func(State)
}

func DefaultOptions() Options {
	return Options{
		HistoryLimit:     DefaultHistoryLimit,
		StageTimeout:     DefaultStageTimeout,
		UnknownOrgPolicy: orgconfig.UnknownOrgDefault,
	}
}

// Coordinator holds the collaborators shared by all runs. It keeps no per-run state,
// so one instance can serve concurrent Process calls.
type Coordinator struct {
	deps Dependencies
	opts Options
}

func NewCoordinator(deps Dependencies, opts Options) (*Coordinator, error) {
	switch {
	case deps.History == nil:
		return nil, errors.New("pipeline: history retriever is required")
	case deps.Policy == nil:
		return nil, errors.New("pipeline: policy source is required")
	case deps.Orgs == nil:
		return nil, errors.New("pipeline: organization provider is required")
	case deps.Drafter == nil, deps.Reviewer == nil, deps.Markers == nil:
		return nil, errors.New("pipeline: drafter, reviewer and marker source are required")
	case deps.Logger == nil:
		return nil, errors.New("pipeline: logger is required")
	}
	if opts.HistoryLimit < 0 {
		opts.HistoryLimit = 0
	}
	if opts.UnknownOrgPolicy == "" {
		opts.UnknownOrgPolicy = orgconfig.UnknownOrgDefault
	}
	return &Coordinator{deps: deps, opts: opts}, nil
}

func (c *Coordinator) transition(state State) {
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(state)
	}
}

func (c *Coordinator) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opts.StageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.opts.StageTimeout)
}

// Process runs the whole pipeline for one session. A returned result is always
// complete, structured or degraded. An error means the run Failed: invalid input,
// a required collaborator was unavailable, or ctx was cancelled.
func (c *Coordinator) Process(ctx context.Context, s clinical.Session) (result *clinical.PipelineResult, err error) {
	ctx, span := otel.Tracer("clinical/pipeline").Start(ctx, "pipeline.Process")
	span.SetAttributes(
		attribute.String("clinical.org_id", s.OrganizationId),
		attribute.String("clinical.client_id", s.ClientId),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.transition(StateFailed)
			c.deps.Logger.Error(module, "Pipeline run failed", map[string]interface{}{
				"org_id":    s.OrganizationId,
				"client_id": s.ClientId,
				"error":     err.Error(),
			})
		}
		span.End()
	}()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	c.transition(StateRetrieving)
	org, history, err := c.retrieve(ctx, s)
	if err != nil {
		return nil, err
	}

	c.transition(StateDrafting)
	draftRaw, draftErr, err := c.draft(ctx, s, org, history)
	if err != nil {
		return nil, err
	}
	if draftErr != nil {
		c.transition(StateMerging)
		result = merge("", "", clinical.SentinelMarkers(), draftErr)
		c.finish(s, result)
		return result, nil
	}

	critiqueRaw, reviewErr, markers, err := c.reviewAndExtract(ctx, s, org, draftRaw)
	if err != nil {
		return nil, err
	}

	c.transition(StateMerging)
	result = merge(draftRaw, critiqueRaw, markers, reviewErr)
	c.finish(s, result)
	return result, nil
}

func (c *Coordinator) retrieve(ctx context.Context, s clinical.Session) (clinical.OrgContext, clinical.RetrievedHistory, error) {
	ctx, span := otel.Tracer("clinical/pipeline").Start(ctx, "pipeline.Retrieve")
	defer span.End()

	// Fetched fresh on every run.
	org, err := orgconfig.Resolve(ctx, c.deps.Orgs, s.OrganizationId, c.opts.UnknownOrgPolicy)
	if err != nil {
		return clinical.OrgContext{}, nil, fmt.Errorf("organization context: %w", err)
	}

	history, err := c.deps.History.Query(ctx, s.OrganizationId, s.ClientId, s.RawText, c.opts.HistoryLimit)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return clinical.OrgContext{}, nil, ctxErr
		}
		if c.opts.RequireHistory {
			return clinical.OrgContext{}, nil, err
		}
		span.RecordError(err)
		c.deps.Logger.Warn(module, "History unavailable, continuing without prior context", map[string]interface{}{
			"org_id":    s.OrganizationId,
			"client_id": s.ClientId,
			"error":     err.Error(),
		})
		history = clinical.RetrievedHistory{}
	}
	span.SetAttributes(attribute.Int("clinical.history_excerpts", len(history)))
	return org, history, nil
}

// draft returns stageErr for failures that degrade the result (a timed out
// generation) and err for failures that end the run.
func (c *Coordinator) draft(
	ctx context.Context,
	s clinical.Session,
	org clinical.OrgContext,
	history clinical.RetrievedHistory,
) (raw string, stageErr error, err error) {
	ctx, span := otel.Tracer("clinical/pipeline").Start(ctx, "pipeline.Draft")
	defer span.End()

	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()

	raw, genErr := c.deps.Drafter.Draft(stageCtx, s.RawText, history.Text(), org)
	if genErr == nil {
		return raw, nil, nil
	}
	span.RecordError(genErr)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", nil, ctxErr
	}
	if clinical.IsTimeout(genErr) {
		c.deps.Logger.Warn(module, "Draft generation timed out", map[string]interface{}{
			"client_id": s.ClientId,
			"timeout":   c.opts.StageTimeout.String(),
		})
		return "", fmt.Errorf("%s: generation timed out", clinical.StageDraft), nil
	}
	return "", nil, fmt.Errorf("%w: %s: %w", clinical.ErrGenerationUnavailable, clinical.StageDraft, genErr)
}

// reviewAndExtract runs the review and the marker extraction against the same draft
// and joins both before merging. A failed review degrades the result through
// reviewErr; only cancellation of ctx is returned as err.
func (c *Coordinator) reviewAndExtract(
	ctx context.Context,
	s clinical.Session,
	org clinical.OrgContext,
	draftRaw string,
) (critiqueRaw string, reviewErr error, markers clinical.MarkerSet, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		c.transition(StateReviewing)
		raw, stageErr := c.review(gctx, s, org, draftRaw)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		critiqueRaw, reviewErr = raw, stageErr
		return nil
	})

	g.Go(func() error {
		c.transition(StateExtracting)
		gctx, span := otel.Tracer("clinical/pipeline").Start(gctx, "pipeline.Extract")
		defer span.End()

		stageCtx, cancel := c.stageContext(gctx)
		defer cancel()
		markers = c.deps.Markers.Extract(stageCtx, draftRaw)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		span.SetAttributes(attribute.Bool("clinical.markers_sentinel", markers.IsSentinel()))
		return nil
	})

	if err := g.Wait(); err != nil {
		return "", nil, clinical.MarkerSet{}, err
	}
	return critiqueRaw, reviewErr, markers, nil
}

func (c *Coordinator) review(ctx context.Context, s clinical.Session, org clinical.OrgContext, draftRaw string) (string, error) {
	ctx, span := otel.Tracer("clinical/pipeline").Start(ctx, "pipeline.Review")
	defer span.End()

	policy, ok, err := c.deps.Policy.GetPolicyContext(ctx, s.OrganizationId)
	if err != nil {
		span.RecordError(err)
		c.deps.Logger.Warn(module, "Policy context unavailable, reviewing without it", map[string]interface{}{
			"org_id": s.OrganizationId,
			"error":  err.Error(),
		})
		policy = ""
	}
	span.SetAttributes(attribute.Bool("clinical.policy_context", ok && err == nil))

	stageCtx, cancel := c.stageContext(ctx)
	defer cancel()

	raw, err := c.deps.Reviewer.Critique(stageCtx, draftRaw, org.FreeTextInstructions, policy)
	if err == nil {
		return raw, nil
	}
	span.RecordError(err)

	reason := fmt.Errorf("%s: %w", clinical.StageCritique, err)
	if clinical.IsTimeout(err) {
		reason = fmt.Errorf("%s: generation timed out", clinical.StageCritique)
	}
	c.deps.Logger.Warn(module, "Critique generation failed, result will be degraded", map[string]interface{}{
		"client_id": s.ClientId,
		"error":     err.Error(),
	})
	return "", reason
}

func (c *Coordinator) finish(s clinical.Session, result *clinical.PipelineResult) {
	c.transition(StateDone)

	details := map[string]interface{}{
		"org_id":           s.OrganizationId,
		"client_id":        s.ClientId,
		"degraded":         result.IsDegraded(),
		"markers_sentinel": result.Markers.IsSentinel(),
	}
	if result.IsDegraded() {
		details["reason"] = result.Degraded.Reason
		c.deps.Logger.Warn(module, "Pipeline produced a degraded result", details)
		return
	}
	details["risk_level"] = string(result.RiskLevel())
	c.deps.Logger.Info(module, "Pipeline run completed", details)
}
