package user

type FindOneOptions struct {
	IdOption       *IdOption
	UsernameOption *UsernameOption
}

func (options *FindOneOptions) Validate() error {
	var optionsCount int
	if options.IdOption != nil {
		optionsCount++
		if err := options.IdOption.Validate(); err != nil {
			return err
		}
	}

	if options.UsernameOption != nil {
		optionsCount++
		if err := options.UsernameOption.Validate(); err != nil {
			return err
		}
	}

	if optionsCount == 0 {
		return ErrOneOptionRequired
	} else if optionsCount != 1 {
		return ErrOnlyOneOptionAllowed
	}

	return nil
}

type IdOption struct {
	Id string
}

func (option *IdOption) Validate() error {
	if len(option.Id) == 0 {
		return ErrIdRequired
	}
	return nil
}

type UsernameOption struct {
	Username string
}

func (option *UsernameOption) Validate() error {
	if len(option.Username) == 0 {
		return ErrUsernameRequired
	}
	return nil
}
