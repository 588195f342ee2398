// Package services implements the business logic layer of the SuiviStock
// application. It provides a clean separation between HTTP handlers and
// workbook access, ensuring that business rules are centralized and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Domain-focused methods that encapsulate business rules
//
// # Available Services
//
// The package provides these core services:
//
//	- TreatmentService: Runs catalog treatments against staged workbooks
//	- HealthService: Provides system health checks
//
// # Common Service Pattern
//
// Services typically follow this structure:
//
//	type ServiceName struct {
//	    deps   Dependencies
//	    logger *slog.Logger
//	}
//
//	func NewServiceName(deps Dependencies, logger *slog.Logger) *ServiceName {
//	    return &ServiceName{
//	        deps:   deps,
//	        logger: logger,
//	    }
//	}
//
//	func (s *ServiceName) BusinessOperation(ctx context.Context, input Input) (*Output, error) {
//	    // Validate input
//	    if err := input.Validate(); err != nil {
//	        return nil, fmt.Errorf("validation failed: %w", err)
//	    }
//
//	    result, err := s.execute(ctx, input)
//	    if err != nil {
//	        s.logger.ErrorContext(ctx, "operation failed",
//	            "error", err,
//	            "input", input,
//	        )
//	        return nil, fmt.Errorf("operation failed: %w", err)
//	    }
//
//	    return result, nil
//	}
//
// # Error Handling
//
// Services return the domain errors and sentinels defined in internal/errors
// and internal/tracking; the transport layer maps them to RFC 7807 problem
// responses without re-inspecting causes.
//
// # Testing
//
// Services are tested with real workbook fixtures built through the
// internal/shared/testutil helpers, exercising the full merge and report
// pipeline on temporary files.
package services
