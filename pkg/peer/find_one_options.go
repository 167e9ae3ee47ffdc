package peer

type FindOneOptions struct {
	PublicKeyOption   *PublicKeyOption
	IPv4AddressOption *IPv4AddressOption
}

func (options *FindOneOptions) Validate() error {
	var optionsCount int
	if options.PublicKeyOption != nil {
		optionsCount++
		if err := options.PublicKeyOption.Validate(); err != nil {
			return err
		}
	}
	if options.IPv4AddressOption != nil {
		optionsCount++
	}

	if optionsCount == 0 {
		return ErrOneOptionRequired
	} else if optionsCount != 1 {
		return ErrOnlyOneOptionAllowed
	}

	return nil
}

type PublicKeyOption struct {
	PublicKey string
}

func (option *PublicKeyOption) Validate() error {
	if len(option.PublicKey) == 0 {
		return ErrPublicKeyRequired
	}
	return nil
}

type IPv4AddressOption struct {
	IPv4Address string
}
