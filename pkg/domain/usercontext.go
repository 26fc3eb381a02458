package domain

// UserContext is the immutable caller identity passed explicitly into every
// service operation that needs authorization. It is derived from token claims
// by the transport layer; services never inspect how it was produced.
//
// A nil *UserContext means "no authenticated caller".
type UserContext struct {
	UserID  UserID
	Role    Role
	GroupID *UserGroupID
}

// InGroup reports whether the caller belongs to the given group.
func (u *UserContext) InGroup(groupID UserGroupID) bool {
	return u != nil && u.GroupID != nil && *u.GroupID == groupID
}
