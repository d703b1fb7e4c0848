package users

import (
	"context"
	"errors"

	"stock-admin/internal/constants"
	"stock-admin/internal/domain"

	"gorm.io/gorm"
)

var (
	ErrOnlyOwnersAssignPrivileged = errors.New("Only owners can assign admin or owner roles")
	ErrUserNotFound               = errors.New("User not found")
	ErrCannotChangeOwnRole        = errors.New("Users cannot change their own role")
	ErrLastOwner                  = errors.New("There must be at least one owner")
	ErrInvalidRole                = errors.New("role must be one of viewer, editor, admin, owner")
)

func privileged(role string) bool {
	return role == constants.Admin || role == constants.Owner
}

// CanAssign reports whether actorRole may hand out targetRole, on create or on change.
func CanAssign(actorRole, targetRole string) error {
	if privileged(targetRole) && actorRole != constants.Owner {
		return ErrOnlyOwnersAssignPrivileged
	}
	return nil
}

// RoleChange describes one actor changing the role of another user.
type RoleChange struct {
	ActorID   string
	ActorRole string
	TargetID  string
	Role      string
}

// checkRoleChange returns the target user when the change is allowed.
func (s *Service) checkRoleChange(ctx context.Context, rc RoleChange) (*domain.User, error) {
	if !constants.IsValidRole(rc.Role) {
		return nil, ErrInvalidRole
	}
	if err := CanAssign(rc.ActorRole, rc.Role); err != nil {
		return nil, err
	}
	var target domain.User
	if err := s.DB.WithContext(ctx).Where("id = ?", rc.TargetID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if rc.ActorID == rc.TargetID {
		return nil, ErrCannotChangeOwnRole
	}
	if target.Role == constants.Owner && rc.Role != constants.Owner {
		var owners int64
		if err := s.DB.WithContext(ctx).Model(&domain.User{}).Where("role = ?", constants.Owner).Count(&owners).Error; err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, ErrLastOwner
		}
	}
	return &target, nil
}
