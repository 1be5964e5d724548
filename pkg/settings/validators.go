package settings

import "github.com/booklore-app/booklore/pkg/books"

type UpdateSettingsPayload struct {
	UploadPattern *string             `json:"upload_pattern,omitempty" validate:"omitempty,max=500"`
	MatchWeights  *books.MatchWeights `json:"metadata_match_weights,omitempty"`
}
