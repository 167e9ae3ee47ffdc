package peer

const (
	ChangedActionCreated = "CREATED"
	ChangedActionDeleted = "DELETED"
	ChangedActionExpired = "EXPIRED"
)

type ChangedEvent struct {
	Action string `json:"action"`
	Peer   *Peer  `json:"peer"`
}
