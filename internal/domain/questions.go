package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
	"github.com/seansyed/parafort-sub010/pkg/validator"
)

// Processing speed options.
const (
	ProcessingStandard  = "standard"
	ProcessingExpedited = "expedited"
)

// Entity types accepted for formation services.
var EntityTypes = []string{"LLC", "C-Corporation", "S-Corporation", "Partnership", "Nonprofit", "Sole Proprietorship"}

// FormationAnswers are asked by formation services.
type FormationAnswers struct {
	EntityType   string `json:"entityType" validate:"required,oneof='LLC' 'C-Corporation' 'S-Corporation' 'Partnership' 'Nonprofit' 'Sole Proprietorship'"`
	State        string `json:"state" validate:"required,usstate"`
	BusinessName string `json:"businessName" validate:"required,min=2,max=200"`
}

// ComplianceAnswers are asked by annual report and BOIR filings.
type ComplianceAnswers struct {
	BusinessName string `json:"businessName" validate:"required,min=2,max=200"`
	State        string `json:"state" validate:"required,usstate"`
	FilingYear   int    `json:"filingYear" validate:"required,gte=2000,lte=2100"`
}

// RegisteredAgentAnswers are asked by registered agent services.
type RegisteredAgentAnswers struct {
	BusinessName string `json:"businessName" validate:"required,min=2,max=200"`
	State        string `json:"state" validate:"required,usstate"`
}

// ServiceQuestions is a tagged union: exactly the variant matching Kind is
// set, or none for KindGeneral.
type ServiceQuestions struct {
	Kind            ServiceKind             `json:"kind"`
	Processing      string                  `json:"processing"`
	Formation       *FormationAnswers       `json:"formation,omitempty"`
	Compliance      *ComplianceAnswers      `json:"compliance,omitempty"`
	RegisteredAgent *RegisteredAgentAnswers `json:"registeredAgent,omitempty"`
}

// IsExpedited reports whether expedited processing was chosen.
func (q *ServiceQuestions) IsExpedited() bool {
	return q.Processing == ProcessingExpedited
}

// BusinessName returns the business name from whichever variant is set.
func (q *ServiceQuestions) BusinessName() string {
	switch {
	case q.Formation != nil:
		return q.Formation.BusinessName
	case q.Compliance != nil:
		return q.Compliance.BusinessName
	case q.RegisteredAgent != nil:
		return q.RegisteredAgent.BusinessName
	}
	return ""
}

// State returns the two-letter state from whichever variant is set.
func (q *ServiceQuestions) State() string {
	switch {
	case q.Formation != nil:
		return q.Formation.State
	case q.Compliance != nil:
		return q.Compliance.State
	case q.RegisteredAgent != nil:
		return q.RegisteredAgent.State
	}
	return ""
}

// EntityType is only known for formation services.
func (q *ServiceQuestions) EntityType() string {
	if q.Formation != nil {
		return q.Formation.EntityType
	}
	return ""
}

type processingChoice struct {
	Processing string `json:"processing" validate:"oneof=standard expedited"`
}

// ErrUnexpectedAnswers is returned when answers are sent for a service that
// asks no questions.
var ErrUnexpectedAnswers = apperrors.InvalidInput("this service does not take answers")

// DecodeServiceQuestions decodes raw answers into the variant for kind and
// validates them. Unknown fields are rejected.
func DecodeServiceQuestions(kind ServiceKind, processing string, raw json.RawMessage) (*ServiceQuestions, error) {
	if processing == "" {
		processing = ProcessingStandard
	}
	if err := validator.Validate(processingChoice{Processing: processing}); err != nil {
		return nil, err
	}

	q := &ServiceQuestions{Kind: kind, Processing: processing}
	switch kind {
	case KindFormation:
		q.Formation = &FormationAnswers{}
		if err := decodeAnswers(raw, q.Formation); err != nil {
			return nil, err
		}
		q.Formation.State = strings.ToUpper(q.Formation.State)
	case KindCompliance:
		q.Compliance = &ComplianceAnswers{}
		if err := decodeAnswers(raw, q.Compliance); err != nil {
			return nil, err
		}
		q.Compliance.State = strings.ToUpper(q.Compliance.State)
	case KindRegisteredAgent:
		q.RegisteredAgent = &RegisteredAgentAnswers{}
		if err := decodeAnswers(raw, q.RegisteredAgent); err != nil {
			return nil, err
		}
		q.RegisteredAgent.State = strings.ToUpper(q.RegisteredAgent.State)
	case KindGeneral:
		switch string(bytes.TrimSpace(raw)) {
		case "", "null", "{}":
		default:
			return nil, ErrUnexpectedAnswers
		}
	default:
		return nil, fmt.Errorf("unknown service kind %q", kind)
	}
	return q, nil
}

func decodeAnswers(raw json.RawMessage, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.InvalidInput("invalid answers: " + err.Error())
	}
	return validator.Validate(dst)
}
