package filemove

type BulkMovePayload struct {
	Moves []MoveRequest `json:"moves" validate:"required,min=1,max=500,dive"`
}
