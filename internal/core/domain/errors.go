package domain

import "errors"

var (
	ErrEmptyMessage   = errors.New("message cannot be empty")
	ErrInvalidGroupID = errors.New("invalid group id")
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupTooSmall  = errors.New("a group needs a name and at least 2 members")
	ErrNotGroupMember = errors.New("not a member of this group")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidUserID  = errors.New("invalid user id")
)
