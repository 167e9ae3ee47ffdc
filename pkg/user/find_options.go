package user

type FindOptions struct {
	Ids   []string
	Query string
}
