package planner

import "errors"

var (
	// ErrInvalidGoal indicates an empty goal.
	ErrInvalidGoal = errors.New("invalid goal")

	// ErrInvalidPlan indicates the model's answer held no parseable plan.
	ErrInvalidPlan = errors.New("invalid plan")

	// ErrUnknownFunction indicates a plan step names an unregistered function.
	ErrUnknownFunction = errors.New("plan uses unknown function")

	// ErrCreatePlan indicates the completion request for a plan failed.
	ErrCreatePlan = errors.New("failed to create plan")
)
