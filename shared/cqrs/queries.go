package cqrs

// ---------- User queries ----------

// GetUserQuery fetches a single user by ID with groups and contacts.
type GetUserQuery struct {
	UserID string
}

// FindByNameQuery is an exact match on both name fields.
type FindByNameQuery struct {
	Names    string
	Surnames string
}

// ListFollowCandidatesQuery lists every user except the requester.
type ListFollowCandidatesQuery struct {
	RequestingUserID string
}

type ListContactsQuery struct {
	UserID string
}

// ---------- Owned records ----------

type ListRewardsQuery struct {
	UserID string
}

type ListActivitiesQuery struct {
	UserID string
}

// ---------- Group queries ----------

type ListUserGroupsQuery struct {
	UserID string
}

type ListGroupMembersQuery struct {
	GroupID string
}
