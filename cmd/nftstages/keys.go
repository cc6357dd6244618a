package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"

	"github.com/bitfsorg/nftstages-go/allowlist"
	"github.com/bitfsorg/nftstages-go/identity"
	"github.com/bitfsorg/nftstages-go/keystore"
	"github.com/bitfsorg/nftstages-go/rootdns"
)

// envPassword holds the key file password. Passwords are never taken as
// flags so they stay out of shell history.
const envPassword = "NFTSTAGES_PASSWORD"

func password() (string, error) {
	pw := os.Getenv(envPassword)
	if pw == "" {
		return "", fmt.Errorf("%s is not set", envPassword)
	}
	return pw, nil
}

func loadSigner(path string) (*ec.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("-key is required")
	}
	pw, err := password()
	if err != nil {
		return nil, err
	}
	return keystore.LoadKey(path, pw)
}

func runKeygen(a *app, args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	out := fs.String("out", "", "key file to create")
	mnemonic := fs.String("mnemonic", "", "derive from this BIP39 mnemonic instead of generating one")
	passphrase := fs.String("passphrase", "", "BIP39 passphrase")
	account := fs.Uint("account", 0, "derivation account")
	index := fs.Uint("index", 0, "derivation index")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-out is required")
	}
	pw, err := password()
	if err != nil {
		return err
	}

	words := *mnemonic
	generated := words == ""
	if generated {
		if words, err = keystore.GenerateMnemonic(keystore.Mnemonic24Words); err != nil {
			return err
		}
	}
	priv, err := keystore.DeriveSigner(words, *passphrase, uint32(*account), uint32(*index))
	if err != nil {
		return err
	}
	kf, err := keystore.Seal(priv, pw, keystore.DefaultParams)
	if err != nil {
		return err
	}
	kf.Path = keystore.SignerPath(uint32(*account), uint32(*index))
	if err := keystore.Save(*out, kf); err != nil {
		return err
	}

	res := map[string]any{"identity": kf.Identity, "path": kf.Path, "file": *out}
	if generated {
		res["mnemonic"] = words
	}
	return a.printJSON(res)
}

// readIdentities reads one hex identity per line. Blank lines and lines
// starting with '#' are skipped.
func readIdentities(path string) ([]identity.Identity, error) {
	if path == "" {
		return nil, errors.New("-file is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ids []identity.Identity
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		id, err := identity.ParseHex(s)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		ids = append(ids, id)
	}
	return ids, sc.Err()
}

func buildTree(path string) (*allowlist.Tree, error) {
	ids, err := readIdentities(path)
	if err != nil {
		return nil, err
	}
	return allowlist.BuildTree(ids)
}

func runAllowlistRoot(a *app, args []string) error {
	fs := flag.NewFlagSet("allowlist-root", flag.ContinueOnError)
	file := fs.String("file", "", "identity file, one hex public key per line")
	domain := fs.String("domain", "", "print the DNS record publishing the root under this domain")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tree, err := buildTree(*file)
	if err != nil {
		return err
	}
	root := tree.Root()
	res := map[string]any{
		"root":    fmt.Sprintf("%x", root[:]),
		"members": tree.Len(),
	}
	if *domain != "" {
		res["dns_name"] = rootdns.RecordName(*domain)
		res["dns_txt"] = rootdns.FormatRecord(root)
	}
	return a.printJSON(res)
}

func runAllowlistProof(a *app, args []string) error {
	fs := flag.NewFlagSet("allowlist-proof", flag.ContinueOnError)
	file := fs.String("file", "", "identity file, one hex public key per line")
	who := fs.String("identity", "", "hex public key to prove")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tree, err := buildTree(*file)
	if err != nil {
		return err
	}
	id, err := identity.ParseHex(*who)
	if err != nil {
		return err
	}
	proof, err := tree.Proof(id)
	if err != nil {
		return err
	}
	root := tree.Root()
	return a.printJSON(map[string]any{
		"identity": id,
		"root":     fmt.Sprintf("%x", root[:]),
		"proof":    proof.Hex(),
	})
}
