package procedure

import (
	"context"
	"encoding/json"
	"net/http"

	util "github.com/spec-kit/media-service/pkg/util/errorutil"
)

// HandlerFunc is the business-logic tail of a procedure. It receives the
// guarded call and the decoded, validated input and returns raw data for
// the envelope.
type HandlerFunc func(ctx context.Context, call Call, input any) (any, error)

// Validator is implemented by input payloads that carry field checks.
type Validator interface {
	Validate() error
}

// Procedure is a single named, schema-validated, guarded operation.
type Procedure struct {
	Name           string
	Guards         []Guard
	Input          func() any
	Handler        HandlerFunc
	SuccessStatus  int
	SuccessMessage string
}

// decodeInput unmarshals and validates the payload. Any failure surfaces as
// VALIDATION_ERROR; the handler is never invoked on a bad payload.
func (p *Procedure) decodeInput(payload json.RawMessage) (any, error) {
	if p.Input == nil {
		return nil, nil
	}
	input := p.Input()
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, input); err != nil {
			return nil, util.NewValidationError("invalid payload", nil)
		}
	}
	if v, ok := input.(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return input, nil
}

func (p *Procedure) successStatus() int {
	if p.SuccessStatus != 0 {
		return p.SuccessStatus
	}
	return http.StatusOK
}

func (p *Procedure) successMessage() string {
	if p.SuccessMessage != "" {
		return p.SuccessMessage
	}
	return "OK"
}
