package bbolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"

	"github.com/UnAfraid/wg-dash/pkg/dbx"
	"github.com/UnAfraid/wg-dash/pkg/peer"
	"github.com/UnAfraid/wg-dash/pkg/user"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"), 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newTestPeer(t *testing.T, ipv4 string, expiresAt time.Time) *peer.Peer {
	t.Helper()

	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return &peer.Peer{
		PublicKey:   key.PublicKey().String(),
		PrivateKey:  key.String(),
		IPv4Address: ipv4,
		CreatedAt:   expiresAt.Add(-24 * time.Hour),
		ExpiresAt:   expiresAt,
	}
}

func TestPeerRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repository := NewPeerRepository(openTestDB(t))

	peers, err := repository.FindAll(ctx, &peer.FindOptions{})
	if err != nil {
		t.Fatalf("failed to find peers on empty db: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("expected no peers, got %d", len(peers))
	}

	now := time.Now().UTC()
	p10 := newTestPeer(t, "10.8.0.10", now.Add(time.Hour))
	p2 := newTestPeer(t, "10.8.0.2", now.Add(time.Hour))
	for _, p := range []*peer.Peer{p10, p2} {
		if _, err := repository.Create(ctx, p); err != nil {
			t.Fatalf("failed to create peer: %v", err)
		}
	}

	if _, err := repository.Create(ctx, p2); !errors.Is(err, peer.ErrPublicKeyAlreadyExists) {
		t.Fatalf("expected ErrPublicKeyAlreadyExists, got %v", err)
	}

	peers, err = repository.FindAll(ctx, &peer.FindOptions{})
	if err != nil {
		t.Fatalf("failed to find peers: %v", err)
	}
	if len(peers) != 2 || peers[0].IPv4Address != "10.8.0.2" || peers[1].IPv4Address != "10.8.0.10" {
		t.Fatalf("unexpected peers order: %+v", peers)
	}

	found, err := repository.FindOne(ctx, &peer.FindOneOptions{
		PublicKeyOption: &peer.PublicKeyOption{PublicKey: p10.PublicKey},
	})
	if err != nil {
		t.Fatalf("failed to find peer: %v", err)
	}
	if found == nil || found.IPv4Address != "10.8.0.10" {
		t.Fatalf("unexpected peer: %+v", found)
	}

	found, err = repository.FindOne(ctx, &peer.FindOneOptions{
		IPv4AddressOption: &peer.IPv4AddressOption{IPv4Address: "10.8.0.2"},
	})
	if err != nil {
		t.Fatalf("failed to find peer by address: %v", err)
	}
	if found == nil || found.PublicKey != p2.PublicKey {
		t.Fatalf("unexpected peer: %+v", found)
	}
}

func TestPeerRepositoryFindExpired(t *testing.T) {
	ctx := context.Background()
	repository := NewPeerRepository(openTestDB(t))

	now := time.Now().UTC()
	expired := newTestPeer(t, "10.8.0.2", now.Add(-time.Minute))
	active := newTestPeer(t, "10.8.0.3", now.Add(time.Minute))
	for _, p := range []*peer.Peer{expired, active} {
		if _, err := repository.Create(ctx, p); err != nil {
			t.Fatalf("failed to create peer: %v", err)
		}
	}

	peers, err := repository.FindAll(ctx, &peer.FindOptions{ExpiredBefore: &now})
	if err != nil {
		t.Fatalf("failed to find peers: %v", err)
	}
	if len(peers) != 1 || peers[0].PublicKey != expired.PublicKey {
		t.Fatalf("unexpected expired peers: %+v", peers)
	}
}

func TestPeerRepositoryFindByQuery(t *testing.T) {
	ctx := context.Background()
	repository := NewPeerRepository(openTestDB(t))

	expiresAt := time.Now().UTC().Add(time.Hour)
	keys := map[string]string{
		"10.8.0.2":  "Qm9va2tlZXBlci1wZWVyLXR3by1rZXktMDAwMDAwMDA=",
		"10.8.0.3":  "Zm94dHJvdC1wZWVyLXRocmVlLWtleS0wMDAwMDAwMDA=",
		"10.8.0.12": "eWFua2VlLXBlZXItdHdlbHZlLWtleS0wMDAwMDAwMDA=",
	}
	for ipv4, publicKey := range keys {
		p := newTestPeer(t, ipv4, expiresAt)
		p.PublicKey = publicKey
		if _, err := repository.Create(ctx, p); err != nil {
			t.Fatalf("failed to create peer: %v", err)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "10.8", want: []string{"10.8.0.2", "10.8.0.3", "10.8.0.12"}},
		{query: "10.8.0.1", want: []string{"10.8.0.12"}},
		{query: "10.8.0.3", want: []string{"10.8.0.3"}},
		{query: "Zm94dHJv", want: []string{"10.8.0.3"}},
		{query: "qm9va2tl", want: []string{"10.8.0.2"}},
		{query: "0.8", want: nil},
		{query: "10.9", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			peers, err := repository.FindAll(ctx, &peer.FindOptions{Query: tt.query})
			if err != nil {
				t.Fatalf("failed to find peers: %v", err)
			}

			var got []string
			for _, p := range peers {
				got = append(got, p.IPv4Address)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("query %q: expected %v, got %v", tt.query, tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("query %q: expected %v, got %v", tt.query, tt.want, got)
				}
			}
		})
	}
}

func TestPeerRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	repository := NewPeerRepository(openTestDB(t))

	p := newTestPeer(t, "10.8.0.2", time.Now().Add(time.Hour))
	if _, err := repository.Create(ctx, p); err != nil {
		t.Fatalf("failed to create peer: %v", err)
	}

	deleted, err := repository.Delete(ctx, p.PublicKey)
	if err != nil {
		t.Fatalf("failed to delete peer: %v", err)
	}
	if deleted.PublicKey != p.PublicKey {
		t.Fatalf("unexpected deleted peer: %+v", deleted)
	}

	found, err := repository.FindOne(ctx, &peer.FindOneOptions{
		PublicKeyOption: &peer.PublicKeyOption{PublicKey: p.PublicKey},
	})
	if err != nil {
		t.Fatalf("failed to look up deleted peer: %v", err)
	}
	if found != nil {
		t.Fatalf("expected peer to be removed, got %+v", found)
	}

	if _, err := repository.Delete(ctx, p.PublicKey); !errors.Is(err, peer.ErrPeerNotFound) {
		t.Fatalf("expected ErrPeerNotFound, got %v", err)
	}
}

func TestPeerRepositoryRollsBackWithTransactionScope(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repository := NewPeerRepository(db)
	scoper := dbx.NewBBoltTransactionScoper(db)

	failure := errors.New("apply failed")
	err := scoper.InTransactionScope(ctx, func(ctx context.Context) error {
		if _, err := repository.Create(ctx, newTestPeer(t, "10.8.0.2", time.Now().Add(time.Hour))); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected failure, got %v", err)
	}

	peers, err := repository.FindAll(ctx, &peer.FindOptions{})
	if err != nil {
		t.Fatalf("failed to find peers: %v", err)
	}
	if len(peers) != 0 {
		t.Fatalf("expected rollback, got %d peers", len(peers))
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repository := NewUserRepository(openTestDB(t))

	created, err := repository.Create(ctx, &user.User{
		Id:       "1",
		Username: "Admin",
		Password: "hash",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	found, err := repository.FindOne(ctx, &user.FindOneOptions{
		UsernameOption: &user.UsernameOption{Username: "admin"},
	})
	if err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if found == nil || found.Id != created.Id {
		t.Fatalf("unexpected user: %+v", found)
	}

	updated, err := repository.UpdatePassword(ctx, "1", "newhash")
	if err != nil {
		t.Fatalf("failed to update password: %v", err)
	}
	if updated.Password != "newhash" {
		t.Fatalf("unexpected password: %s", updated.Password)
	}

	if _, err := repository.UpdatePassword(ctx, "2", "x"); !errors.Is(err, user.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	users, err := repository.FindAll(ctx, &user.FindOptions{Ids: []string{"1"}})
	if err != nil {
		t.Fatalf("failed to find users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
}
