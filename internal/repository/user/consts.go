package user

const (
	// collection name
	userNode      string = "users"
	shortlistNode string = "shortlisted"

	// Fields' name and path
	EmailFieldPath      string = "email"
	RoleFieldPath       string = "role"
	PropertyIdFieldPath string = "propertyId"
	AddedAtFieldPath    string = "addedAt"
)
