package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCandidateNotFound signals a missing candidate in the resume store.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrInvalidQuery signals query text that cannot be searched (empty after normalization).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrScopeRequired signals a candidate read without a tenant scope.
	ErrScopeRequired = errors.New("tenant scope is required")
	// ErrInvalidOntology signals a malformed skill ontology document.
	ErrInvalidOntology = errors.New("invalid ontology")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorSearchUnavailable signals that the vector index could not serve a query.
	ErrVectorSearchUnavailable = errors.New("vector search unavailable")
	// ErrEnricherUnavailable signals that candidate analytics could not be fetched.
	ErrEnricherUnavailable = errors.New("analytics enricher unavailable")
	// ErrResumeStoreUnavailable signals a resume store read failure.
	ErrResumeStoreUnavailable = errors.New("resume store unavailable")
	// ErrCorrectorUnavailable signals an AI-assisted correction failure.
	ErrCorrectorUnavailable = errors.New("ai corrector unavailable")
)

// CollaboratorError records which external collaborator failed and at which search stage.
type CollaboratorError struct {
	Collaborator string
	Stage        string
	Err          error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s (stage %s): %s", e.Collaborator, e.Stage, e.Err.Error())
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// NewCollaboratorError wraps err with collaborator and stage context.
func NewCollaboratorError(collaborator, stage string, err error) error {
	return &CollaboratorError{Collaborator: collaborator, Stage: stage, Err: err}
}
