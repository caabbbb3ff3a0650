package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leadcascade/internal/app"
	"github.com/neomorfeo/leadcascade/internal/domain"
)

const timestampFormat = "2006-01-02T15:04:05.000000Z"

// AssignmentResponse is the API representation of a cascade assignment.
type AssignmentResponse struct {
	ID            string  `json:"id" doc:"Unique identifier"`
	LeadRef       string  `json:"lead_ref" doc:"Lead being cascaded"`
	ClientRef     string  `json:"client_ref,omitempty" doc:"Client the lead belongs to"`
	ParticipantID int64   `json:"participant_id" doc:"Participant holding (or who held) the lead"`
	Sequence      int     `json:"sequence" doc:"Position in the lead's cascade, starting at 1"`
	Status        string  `json:"status" doc:"active, expired or finalized"`
	SLA           string  `json:"sla" doc:"Exclusivity window as a duration, e.g. 24h0m0s"`
	StartedAt     string  `json:"started_at" doc:"Start of the window (ISO 8601)"`
	ExpiresAt     string  `json:"expires_at" doc:"End of the window (ISO 8601)"`
	ClosedAt      *string `json:"closed_at,omitempty" doc:"When the assignment left active (ISO 8601)"`
	CloseReason   string  `json:"close_reason" doc:"Why the assignment was closed"`
}

func toAssignmentResponse(a domain.Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:            a.ID,
		LeadRef:       a.LeadRef,
		ClientRef:     a.ClientRef,
		ParticipantID: a.ParticipantID,
		Sequence:      a.Sequence,
		Status:        string(a.Status),
		SLA:           a.SLA.String(),
		StartedAt:     a.StartedAt.UTC().Format(timestampFormat),
		ExpiresAt:     a.ExpiresAt.UTC().Format(timestampFormat),
		CloseReason:   string(a.CloseReason),
	}
	if a.ClosedAt != nil {
		s := a.ClosedAt.UTC().Format(timestampFormat)
		resp.ClosedAt = &s
	}
	return resp
}

func toAssignmentResponses(as []domain.Assignment) []AssignmentResponse {
	resp := make([]AssignmentResponse, len(as))
	for i, a := range as {
		resp[i] = toAssignmentResponse(a)
	}
	return resp
}

// --- Start Cascade ---

type StartCascadeInput struct {
	Body struct {
		LeadRef   string `json:"lead_ref" minLength:"1" maxLength:"255" doc:"Lead to cascade"`
		ClientRef string `json:"client_ref,omitempty" maxLength:"255" doc:"Client the lead belongs to"`
	}
}

type AssignmentOutput struct {
	Body AssignmentResponse
}

// --- Report Outcome ---

type ReportOutcomeInput struct {
	LeadRef string `path:"lead_ref" doc:"Lead reference"`
	Body    struct {
		ParticipantID int64 `json:"participant_id" minimum:"1" doc:"Participant reporting the outcome"`
	}
}

// --- Cancel ---

type LeadInput struct {
	LeadRef string `path:"lead_ref" doc:"Lead reference"`
}

// --- History / worklist ---

type AssignmentListOutput struct {
	Body []AssignmentResponse
}

type WorklistInput struct {
	ParticipantID int64 `path:"participant_id" doc:"Participant ID"`
}

// --- Health ---

type HealthOutput struct {
	Body struct {
		Status    string `json:"status" doc:"ok when the ledger is reachable and sweeps succeed"`
		LastSweep string `json:"last_sweep,omitempty" doc:"When the last sweep finished (ISO 8601)"`
	}
}

// Register adds the cascade API routes to the Huma API.
func Register(api huma.API, engine *app.Engine, health *app.Health) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-cascade",
		Method:        http.MethodPost,
		Path:          "/api/v1/cascades",
		Summary:       "Assign a lead to the first participant",
		Tags:          []string{"Cascades"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *StartCascadeInput) (*AssignmentOutput, error) {
		a, err := engine.StartCascade(ctx, input.Body.LeadRef, input.Body.ClientRef)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssignmentOutput{Body: toAssignmentResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "report-outcome",
		Method:      http.MethodPost,
		Path:        "/api/v1/cascades/{lead_ref}/outcome",
		Summary:     "Report a qualifying outcome and end the cascade",
		Tags:        []string{"Cascades"},
	}, func(ctx context.Context, input *ReportOutcomeInput) (*AssignmentOutput, error) {
		a, err := engine.ReportOutcome(ctx, input.LeadRef, input.Body.ParticipantID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssignmentOutput{Body: toAssignmentResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-cascade",
		Method:      http.MethodPost,
		Path:        "/api/v1/cascades/{lead_ref}/cancel",
		Summary:     "Cancel a cascade without an outcome",
		Tags:        []string{"Cascades"},
	}, func(ctx context.Context, input *LeadInput) (*AssignmentOutput, error) {
		a, err := engine.CancelCascade(ctx, input.LeadRef)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssignmentOutput{Body: toAssignmentResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-cascade",
		Method:      http.MethodGet,
		Path:        "/api/v1/cascades/{lead_ref}",
		Summary:     "List every assignment of a lead",
		Tags:        []string{"Cascades"},
	}, func(ctx context.Context, input *LeadInput) (*AssignmentListOutput, error) {
		history, err := engine.History(ctx, input.LeadRef)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssignmentListOutput{Body: toAssignmentResponses(history)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-participant-assignments",
		Method:      http.MethodGet,
		Path:        "/api/v1/participants/{participant_id}/assignments",
		Summary:     "List a participant's active assignments, soonest expiry first",
		Tags:        []string{"Participants"},
	}, func(ctx context.Context, input *WorklistInput) (*AssignmentListOutput, error) {
		active, err := engine.ListActiveAssignments(ctx, input.ParticipantID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AssignmentListOutput{Body: toAssignmentResponses(active)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "healthz",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Report ledger and scheduler health",
		Tags:        []string{"Operations"},
	}, func(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
		if err := health.Check(ctx); err != nil {
			return nil, huma.Error503ServiceUnavailable(err.Error())
		}
		out := &HealthOutput{}
		out.Body.Status = "ok"
		if at, _ := health.LastSweep(); !at.IsZero() {
			out.Body.LastSweep = at.UTC().Format(timestampFormat)
		}
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNoActiveAssignment) {
		return huma.Error404NotFound("no active assignment: lead has already moved on")
	}

	if errors.Is(err, domain.ErrNoEligibleParticipants) {
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var mismatch *domain.ParticipantMismatchError
	if errors.As(err, &mismatch) {
		return huma.Error409Conflict(mismatch.Error())
	}

	var active *domain.ActiveCascadeError
	if errors.As(err, &active) {
		return huma.Error409Conflict(active.Error())
	}

	if errors.Is(err, domain.ErrSequenceTaken) {
		return huma.Error409Conflict("lead was started concurrently, retry")
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
