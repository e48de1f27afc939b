// Package agent contains the pipeline orchestrator that turns one inbound
// customer email into a verified, inventory-consistent structured record.
package agent

import (
	"context"
	"time"

	"agent_server/core/domain"
	"agent_server/pkg/apperr"
	"agent_server/pkg/logger"
)

// State identifies one stage of the pipeline state machine.
type State string

const (
	StateClassify          State = "classify"
	StateVerifyCategory    State = "verify_category"
	StateExtractDetails    State = "extract_details"
	StateVerifyDetails     State = "verify_details"
	StateResolveProducts   State = "resolve_products"
	StateAllocateInventory State = "allocate_inventory"
	StateRecommend         State = "recommend"
	StateSynthesize        State = "synthesize"
	StateDone              State = "done"
)

// Stage ports. Each stage takes the current snapshot and returns an updated
// one; a stage error means "use the input unchanged", except where noted.

type Classifier interface {
	Classify(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error)
}

type Verifier interface {
	VerifyCategory(ctx context.Context, msg *domain.CustomerMessage) domain.VerificationResult
	VerifyDetails(ctx context.Context, msg *domain.CustomerMessage) domain.VerificationResult
}

type Extractor interface {
	Extract(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error)
}

type Resolver interface {
	Resolve(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error)
}

type Allocator interface {
	Allocate(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error)
}

type Recommender interface {
	Recommend(ctx context.Context, msg *domain.CustomerMessage) (*domain.CustomerMessage, error)
}

type Responder interface {
	Synthesize(ctx context.Context, msg *domain.CustomerMessage) *domain.CustomerMessage
	Unverified(msg *domain.CustomerMessage) *domain.CustomerMessage
}

// Result is the outcome of one pipeline run.
type Result struct {
	Message      *domain.CustomerMessage
	Verification domain.VerificationResult
}

// Orchestrator sequences the pipeline stages for one email at a time. It
// holds no per-run state, so one instance serves all concurrent runs.
type Orchestrator struct {
	classifier  Classifier
	verifier    Verifier
	extractor   Extractor
	resolver    Resolver
	allocator   Allocator
	recommender Recommender
	responder   Responder
}

func NewOrchestrator(
	classifier Classifier,
	verifier Verifier,
	extractor Extractor,
	resolver Resolver,
	allocator Allocator,
	recommender Recommender,
	responder Responder,
) *Orchestrator {
	return &Orchestrator{
		classifier:  classifier,
		verifier:    verifier,
		extractor:   extractor,
		resolver:    resolver,
		allocator:   allocator,
		recommender: recommender,
		responder:   responder,
	}
}

// Run drives msg through the state machine until Done. The only error it
// returns is a routing error; every collaborator failure is absorbed by its
// stage, leaving that stage's input snapshot in effect.
func (o *Orchestrator) Run(ctx context.Context, msg *domain.CustomerMessage) (*Result, error) {
	start := time.Now()
	log := logger.WithField("request_id", msg.ID)

	var verification domain.VerificationResult
	state := StateClassify

	for state != StateDone {
		switch state {
		case StateClassify:
			msg = o.advance(ctx, log, StateClassify, msg, o.classifier.Classify)
			state = StateVerifyCategory

		case StateVerifyCategory:
			verification = o.verifier.VerifyCategory(ctx, msg)
			if !verification.Category {
				// Fail-fast short-circuit: unverified classification goes
				// straight to the fallback reply, no retry.
				log.WithStage(string(StateVerifyCategory)).Warn("category unverified, short-circuiting")
				msg = o.responder.Unverified(msg)
				state = StateDone
				continue
			}
			state = StateExtractDetails

		case StateExtractDetails:
			msg = o.advance(ctx, log, StateExtractDetails, msg, o.extractor.Extract)
			state = StateVerifyDetails

		case StateVerifyDetails:
			details := o.verifier.VerifyDetails(ctx, msg)
			details.Category = verification.Category
			verification = details

			next, err := routeAfterVerifyDetails(msg.Category)
			if err != nil {
				return nil, err
			}
			state = next

		case StateResolveProducts:
			msg = o.advance(ctx, log, StateResolveProducts, msg, o.resolver.Resolve)
			state = StateAllocateInventory

		case StateAllocateInventory:
			msg = o.advance(ctx, log, StateAllocateInventory, msg, o.allocator.Allocate)
			state = StateRecommend

		case StateRecommend:
			msg = o.advance(ctx, log, StateRecommend, msg, o.recommender.Recommend)
			state = StateSynthesize

		case StateSynthesize:
			msg = o.responder.Synthesize(ctx, msg)
			state = StateDone
		}
	}

	log.WithDuration(time.Since(start)).Info("pipeline finished: category=%s", msg.Category)
	return &Result{Message: msg, Verification: verification}, nil
}

// advance runs one stage and applies the degradation policy: on failure the
// input snapshot survives unchanged and the pipeline keeps going.
func (o *Orchestrator) advance(
	ctx context.Context,
	log *logger.Logger,
	state State,
	msg *domain.CustomerMessage,
	stage func(context.Context, *domain.CustomerMessage) (*domain.CustomerMessage, error),
) *domain.CustomerMessage {
	updated, err := stage(ctx, msg)
	if err != nil {
		log.WithStage(string(state)).WithError(err).Error("stage failed, continuing with prior snapshot")
		return msg
	}
	return updated
}

// routeAfterVerifyDetails picks the next state from the category. Every enum
// value has a defined route; anything else is a contract violation upstream
// and fatal to the run.
func routeAfterVerifyDetails(category domain.Category) (State, error) {
	switch category {
	case domain.CategoryOrder, domain.CategoryInquiry, domain.CategoryOrderInquiry:
		return StateResolveProducts, nil
	case domain.CategoryComplaint, domain.CategoryStatus, domain.CategoryUnknown:
		return StateSynthesize, nil
	default:
		return StateDone, apperr.Routing(string(category))
	}
}
