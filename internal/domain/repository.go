package domain

import "context"

// TransactionManager runs a function within a database transaction.
// Repositories participating in the transaction pick it up from the
// context passed to fn.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// QuestionRepository defines persistence for the question bank.
type QuestionRepository interface {
	// GetQuestionByID retrieves a single bank item, nil if absent.
	GetQuestionByID(ctx context.Context, id string) (*Question, error)

	// GetQuestionsByIDs retrieves a batch of items keyed by ID.
	GetQuestionsByIDs(ctx context.Context, ids []string) (map[string]*Question, error)

	// SelectActiveByCategories returns up to limit active items within the
	// given categories, ordered by ascending difficulty.
	SelectActiveByCategories(ctx context.Context, categories []QuestionType, limit int) ([]*Question, error)

	// SaveQuestion persists a new bank item.
	SaveQuestion(ctx context.Context, q *Question) error

	// RecordUsage folds one observed (responseTimeMs, correct) pair into the
	// item's running usage statistics. Best-effort; callers may ignore errors.
	RecordUsage(ctx context.Context, id string, responseTimeMs int, correct bool) error
}

// SessionRepository defines persistence for test sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, s *TestSession) error

	// GetSessionByID retrieves a session, nil if absent.
	GetSessionByID(ctx context.Context, id string) (*TestSession, error)

	// GetSessionForUpdate retrieves a session and locks its row for the
	// duration of the surrounding transaction.
	GetSessionForUpdate(ctx context.Context, id string) (*TestSession, error)

	// AdvanceSession persists a new current index and status for the session.
	AdvanceSession(ctx context.Context, s *TestSession) error

	// UpdateStatus transitions the session's status, setting the end
	// timestamp for terminal states.
	UpdateStatus(ctx context.Context, id string, status SessionStatus) error

	// AccumulateBehavior adds the given counters onto the session's stored ones.
	AccumulateBehavior(ctx context.Context, id string, delta BehaviorCounters) error

	// ListCompletedByUser returns the user's completed sessions, newest
	// first, with the total count for pagination.
	ListCompletedByUser(ctx context.Context, userID string, offset, limit int) ([]*TestSession, int, error)
}

// ResponseRepository defines persistence for submitted answers.
type ResponseRepository interface {
	// CreateResponse inserts a response row. A violation of the unique
	// (session, question) constraint is reported as a conflict error.
	CreateResponse(ctx context.Context, r *Response) error

	// GetBySession returns all responses of a session in submission order.
	GetBySession(ctx context.Context, sessionID string) ([]*Response, error)

	// CountBySession returns the number of responses recorded for a session.
	CountBySession(ctx context.Context, sessionID string) (int, error)
}

// ResultRepository defines persistence for computed score reports.
type ResultRepository interface {
	// CreateResult inserts the result row. A violation of the unique
	// session constraint is reported as a conflict error.
	CreateResult(ctx context.Context, r *TestResult) error

	// GetBySessionID retrieves the session's result, nil if absent.
	GetBySessionID(ctx context.Context, sessionID string) (*TestResult, error)
}

// UserRepository defines persistence for identities.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	CreateUser(ctx context.Context, u *User) error
	UpdateDemographics(ctx context.Context, id string, d Demographics) error
}

// NormGroupRepository reads the static population reference table.
type NormGroupRepository interface {
	// FindForDemographics returns the most specific norm group matching the
	// demographic slice, or nil when only defaults apply.
	FindForDemographics(ctx context.Context, d Demographics) (*NormGroup, error)
	SaveNormGroup(ctx context.Context, g *NormGroup) error
}
