package levelshare

// Request DTOs

// PublishRequest contains parameters for publishing a level. Payload is the
// level's JSON definition; Images are optional screenshots, at most
// MaxImagesPerLevel, uploaded in the order given.
type PublishRequest struct {
	Title       string
	Description string
	Payload     []byte
	Images      [][]byte
}

// ListLevelsRequest contains parameters for listing levels
type ListLevelsRequest struct {
	Creator string
}
