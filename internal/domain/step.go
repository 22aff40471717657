package domain

import (
	"encoding/json"
	"fmt"
)

// Step is a position in the checkout wizard.
type Step int

const (
	StepEmail Step = iota + 1
	StepAccount
	StepServiceQuestions
	StepClientInformation
	StepReview
)

// FirstStep and LastStep bound the wizard.
const (
	FirstStep = StepEmail
	LastStep  = StepReview
)

var stepNames = map[Step]string{
	StepEmail:             "email",
	StepAccount:           "account",
	StepServiceQuestions:  "service_questions",
	StepClientInformation: "client_information",
	StepReview:            "review",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Valid reports whether s is one of the five wizard steps.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// Next returns the following step, staying on the last one.
func (s Step) Next() Step {
	if s >= LastStep {
		return LastStep
	}
	if s < FirstStep {
		return FirstStep
	}
	return s + 1
}

// Prev returns the preceding step, staying on the first one.
func (s Step) Prev() Step {
	if s <= FirstStep {
		return FirstStep
	}
	if s > LastStep {
		return LastStep
	}
	return s - 1
}

// MarshalJSON encodes the step as {"number": 3, "name": "service_questions"}.
func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Number int    `json:"number"`
		Name   string `json:"name"`
	}{int(s), s.String()})
}

// UnmarshalJSON accepts either the object form or a bare number.
func (s *Step) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*s = Step(n)
		return nil
	}
	var obj struct {
		Number int `json:"number"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("decode step: %w", err)
	}
	*s = Step(obj.Number)
	return nil
}

// completion predicates for each step. A step may be left forward only when
// its predicate holds for the session.
var stepComplete = map[Step]func(*CheckoutSession) bool{
	StepEmail: func(cs *CheckoutSession) bool {
		return cs.Email.IsVerified
	},
	StepAccount: func(cs *CheckoutSession) bool {
		return cs.Account.UserID != ""
	},
	StepServiceQuestions: func(cs *CheckoutSession) bool {
		return cs.Questions != nil
	},
	StepClientInformation: func(cs *CheckoutSession) bool {
		return cs.ClientInformation != nil
	},
	StepReview: func(cs *CheckoutSession) bool {
		return cs.PaymentIntentID != ""
	},
}

// StepComplete reports whether the session satisfies step's predicate.
func StepComplete(cs *CheckoutSession, step Step) bool {
	pred, ok := stepComplete[step]
	return ok && pred(cs)
}
