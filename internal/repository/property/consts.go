package property

const (
	// collection name
	propertyNode string = "properties"

	// Fields' name and path
	TitleFieldPath     string = "title"
	FeaturedFieldPath  string = "featured"
	ApprovedFieldPath  string = "approved"
	StatusFieldPath    string = "status"
	CreatedAtFieldPath string = "createdAt"
	UpdatedAtFieldPath string = "updatedAt"
)
