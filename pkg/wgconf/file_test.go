package wgconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

func TestBootstrapWritesInterfaceOnce(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "wg0.conf"))
	options := BootstrapOptions{
		PrivateKeyPath:   filepath.Join(dir, "privatekey"),
		PrivateKeySecret: filepath.Join(dir, "missing-secret"),
		Addresses:        []string{"10.8.0.1/24", "fd86:ea04:1111::1/64"},
		ListenPort:       51820,
	}

	created, err := f.Bootstrap(options)
	if err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected config to be created")
	}

	content, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	for _, fragment := range []string{
		"[Interface]",
		"Address = 10.8.0.1/24",
		"Address = fd86:ea04:1111::1/64",
		"ListenPort = 51820",
	} {
		if !strings.Contains(string(content), fragment) {
			t.Fatalf("expected config to contain %q, got:\n%s", fragment, content)
		}
	}

	key, err := ReadPrivateKey(options.PrivateKeyPath)
	if err != nil {
		t.Fatalf("failed to read private key: %v", err)
	}
	if !strings.Contains(string(content), "PrivateKey = "+key.String()) {
		t.Fatalf("config does not carry the persisted private key")
	}

	created, err = f.Bootstrap(options)
	if err != nil {
		t.Fatalf("second Bootstrap returned error: %v", err)
	}
	if created {
		t.Fatalf("expected existing config to be left alone")
	}
}

func TestBootstrapUsesSecretKey(t *testing.T) {
	dir := t.TempDir()
	key, err := wgtypes.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	secretPath := filepath.Join(dir, "secret")
	if err := os.WriteFile(secretPath, []byte(key.String()+"\n"), 0600); err != nil {
		t.Fatalf("failed to write secret: %v", err)
	}

	f := NewFile(filepath.Join(dir, "wg0.conf"))
	if _, err := f.Bootstrap(BootstrapOptions{PrivateKeySecret: secretPath, ListenPort: 51820}); err != nil {
		t.Fatalf("Bootstrap returned error: %v", err)
	}

	content, err := os.ReadFile(f.Path())
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(content), "PrivateKey = "+key.String()) {
		t.Fatalf("expected secret key in config, got:\n%s", content)
	}
}

func TestAppendAndRemovePeer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wg0.conf")
	initial := "[Interface]\nPrivateKey = server\nAddress = 10.8.0.1/24\nListenPort = 51820\n"
	if err := os.WriteFile(path, []byte(initial), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	f := NewFile(path)
	if err := f.AppendPeer("peer-a", []string{"10.8.0.2/32", "fd86:ea04:1111::100/128"}); err != nil {
		t.Fatalf("AppendPeer returned error: %v", err)
	}
	if err := f.AppendPeer("peer-b", []string{"10.8.0.3/32"}); err != nil {
		t.Fatalf("AppendPeer returned error: %v", err)
	}
	if err := f.AppendPeer("peer-a", []string{"10.8.0.2/32"}); err != nil {
		t.Fatalf("duplicate AppendPeer returned error: %v", err)
	}

	publicKeys, err := f.PeerPublicKeys()
	if err != nil {
		t.Fatalf("PeerPublicKeys returned error: %v", err)
	}
	if strings.Join(publicKeys, ",") != "peer-a,peer-b" {
		t.Fatalf("unexpected public keys: %v", publicKeys)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if !strings.Contains(string(content), "[Peer]\nPublicKey = peer-a\nAllowedIPs = 10.8.0.2/32, fd86:ea04:1111::100/128\n") {
		t.Fatalf("unexpected peer block:\n%s", content)
	}

	removed, err := f.RemovePeer("peer-a")
	if err != nil {
		t.Fatalf("RemovePeer returned error: %v", err)
	}
	if !removed {
		t.Fatalf("expected peer-a to be removed")
	}

	removed, err = f.RemovePeer("peer-a")
	if err != nil {
		t.Fatalf("second RemovePeer returned error: %v", err)
	}
	if removed {
		t.Fatalf("expected second removal to report false")
	}

	content, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	expected := initial + "\n[Peer]\nPublicKey = peer-b\nAllowedIPs = 10.8.0.3/32\n"
	if string(content) != expected {
		t.Fatalf("unexpected config after removal:\n%q\nexpected:\n%q", content, expected)
	}
}

func TestPeerPublicKeysAcceptsSpaceSeparatedForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wg0.conf")
	content := "[Interface]\nPrivateKey server\nAddress 10.8.0.1/24\n\n[Peer]\nPublicKey peer-a\nAllowedIPs 10.8.0.2/32\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	publicKeys, err := NewFile(path).PeerPublicKeys()
	if err != nil {
		t.Fatalf("PeerPublicKeys returned error: %v", err)
	}
	if len(publicKeys) != 1 || publicKeys[0] != "peer-a" {
		t.Fatalf("unexpected public keys: %v", publicKeys)
	}
}

func TestCutKeyValue(t *testing.T) {
	for line, expected := range map[string][2]string{
		"PublicKey = abc+/def=":  {"publickey", "abc+/def="},
		"PublicKey abc+/def=":    {"publickey", "abc+/def="},
		"AllowedIPs=10.8.0.2/32": {"allowedips", "10.8.0.2/32"},
	} {
		key, value, ok := cutKeyValue(line)
		if !ok || key != expected[0] || value != expected[1] {
			t.Fatalf("%q: unexpected result %q %q %v", line, key, value, ok)
		}
	}

	for _, line := range []string{"", "# comment", "[Peer]", "garbage"} {
		if _, _, ok := cutKeyValue(line); ok {
			t.Fatalf("%q: expected no key value", line)
		}
	}
}
