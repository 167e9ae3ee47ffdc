package driver

type Device struct {
	Name       string
	PublicKey  string
	ListenPort int
	Peers      []*Peer
}

// FindPeer returns the peer with the given public key or nil.
func (d *Device) FindPeer(publicKey string) *Peer {
	for _, p := range d.Peers {
		if p.PublicKey == publicKey {
			return p
		}
	}
	return nil
}
