package apperr

import "net/http"

// Kind groups codes by how a caller should react to them.
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindConflict   Kind = "CONFLICT"
	KindValidation Kind = "VALIDATION"
	KindForbidden  Kind = "FORBIDDEN"
	KindInternal   Kind = "INTERNAL"
)

// Code is a machine-readable error code.
type Code string

const (
	// NotFound
	CodeTenantNotFound  Code = "TENANT_NOT_FOUND"
	CodeLineNotFound    Code = "LINE_NOT_FOUND"
	CodeMachineNotFound Code = "MACHINE_NOT_FOUND"
	CodeShiftNotFound   Code = "SHIFT_NOT_FOUND"
	CodeNotOwned        Code = "NOT_OWNED"

	// Conflict
	CodeAlreadyAssignedElsewhere Code = "ALREADY_ASSIGNED_ELSEWHERE"
	CodeLineBusy                 Code = "LINE_BUSY"
	CodeInvalidState             Code = "INVALID_STATE"
	CodeMachineNameTaken         Code = "MACHINE_NAME_TAKEN"
	CodeNotAssigned              Code = "NOT_ASSIGNED"

	// Validation
	CodeInvalidArgument         Code = "INVALID_ARGUMENT"
	CodeInvalidWindow           Code = "INVALID_WINDOW"
	CodeInvalidGraph            Code = "INVALID_GRAPH"
	CodeUnknownMachineType      Code = "UNKNOWN_MACHINE_TYPE"
	CodeMachineTypeNotEnabled   Code = "MACHINE_TYPE_NOT_ENABLED"
	CodeMachineTypeNotInPattern Code = "MACHINE_TYPE_NOT_IN_PATTERN"

	// Forbidden
	CodeForbidden Code = "FORBIDDEN"

	CodeInternal Code = "INTERNAL"
)

// Kind maps a code onto its kind.
func (c Code) Kind() Kind {
	switch c {
	case CodeTenantNotFound, CodeLineNotFound, CodeMachineNotFound, CodeShiftNotFound, CodeNotOwned:
		return KindNotFound
	case CodeAlreadyAssignedElsewhere, CodeLineBusy, CodeInvalidState, CodeMachineNameTaken, CodeNotAssigned:
		return KindConflict
	case CodeInvalidArgument, CodeInvalidWindow, CodeInvalidGraph, CodeUnknownMachineType,
		CodeMachineTypeNotEnabled, CodeMachineTypeNotInPattern:
		return KindValidation
	case CodeForbidden:
		return KindForbidden
	}
	return KindInternal
}

// HTTPStatus maps a code onto the status the API layer responds with.
func (c Code) HTTPStatus() int {
	if c == CodeInvalidGraph {
		return http.StatusUnprocessableEntity
	}
	switch c.Kind() {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
