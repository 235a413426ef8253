package access

import (
	"context"

	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/domain/user"
	"github.com/encorestage/encore/pkg/apperror"
	"github.com/encorestage/encore/pkg/auth"
	"github.com/encorestage/encore/pkg/logger"
	"github.com/encorestage/encore/pkg/tracing"
)

type State string

const (
	StateSignedOut State = "signed-out"
	StateDenied    State = "denied"
	StateGranted   State = "granted"
)

const (
	MessageSignedOut = "Please sign in to view your profile."
	MessageDenied    = "You don't have access to the artist profile editor."
)

type Decision struct {
	State   State
	Role    user.Role
	Message string
	// Err is the gateway failure behind the decision, if any.
	Err error
}

// AccessUseCase gates the profile editor to users holding the artist role.
type AccessUseCase struct {
	roles  user.RoleRepository
	logger logger.Logger
}

func NewAccessUseCase(roles user.RoleRepository, log logger.Logger) *AccessUseCase {
	return &AccessUseCase{roles: roles, logger: log}
}

// Execute decides access for session. sessionErr is the failure to determine
// the session at all; no role lookup happens without a subject.
func (uc *AccessUseCase) Execute(ctx context.Context, session *auth.Session, sessionErr error) Decision {
	if sessionErr != nil {
		err := apperror.NewSessionError(sessionErr)
		uc.logger.Warn("Session lookup failed", zap.Error(sessionErr))
		return Decision{State: StateSignedOut, Message: apperror.DisplayMessage(err), Err: err}
	}
	if session == nil || session.SubjectID == "" {
		return Decision{State: StateSignedOut, Message: MessageSignedOut}
	}

	ctx, span := tracing.Tracer("access").Start(ctx, "access.findRole")
	defer span.End()

	role, err := uc.roles.FindRole(ctx, session.SubjectID)
	if err != nil {
		appErr := apperror.NewRoleLookupError(err)
		span.RecordError(err)
		uc.logger.Error("Failed to look up role", err, zap.String("user_id", session.SubjectID))
		return Decision{State: StateDenied, Role: user.RoleBasic, Message: apperror.DisplayMessage(appErr), Err: appErr}
	}
	if role != user.RoleArtist {
		return Decision{State: StateDenied, Role: role, Message: MessageDenied}
	}
	return Decision{State: StateGranted, Role: role}
}
