package jobs

type CreateJobPayload struct {
	Type string `json:"type" validate:"required,oneof=scan purge"`

	// LibraryIDs scopes a scan job; empty means all libraries.
	LibraryIDs []int `json:"library_ids,omitempty" validate:"omitempty,dive,min=1"`

	// RetentionDays overrides the configured soft-delete retention for a
	// purge job.
	RetentionDays *int `json:"retention_days,omitempty" validate:"omitempty,min=0"`
}

type ListJobsQuery struct {
	Limit  int      `query:"limit" json:"limit,omitempty" default:"10" validate:"min=1,max=100"`
	Offset int      `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status []string `query:"status" json:"status,omitempty" validate:"dive,oneof=pending in_progress completed failed"`
}
