package peer

type CreateOptions struct {
	DaysValid int
}

func (o *CreateOptions) Validate(maxDaysValid int) error {
	if o == nil {
		return ErrCreatePeerOptionsRequired
	}
	if o.DaysValid < 1 || (maxDaysValid > 0 && o.DaysValid > maxDaysValid) {
		return ErrInvalidDaysValid
	}
	return nil
}
