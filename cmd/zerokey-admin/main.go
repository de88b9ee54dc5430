// Command zerokey-admin provides operator utilities: encryption key
// generation and masked views of stored keys and recent usage.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"zerokey/config"
	"zerokey/repository"
	"zerokey/vault"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "genkey":
		err = runGenKey()
	case "keys":
		err = runListKeys(os.Args[2:])
	case "usage":
		err = runUsageTail(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: zerokey-admin <command>

commands:
  genkey          generate a fresh base64 encryption key
  keys            list stored keys across all owners, secrets masked
  usage [-n N]    show the N most recent usage records (default 20)`)
}

// runGenKey prints a fresh encryption key suitable for ENCRYPTION_KEY
func runGenKey() error {
	key, err := vault.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Println(key)
	return nil
}

// openRepo loads config and connects to the database
func openRepo(ctx context.Context) (*repository.Repository, *config.Config, error) {
	godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	repo, err := repository.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	return repo, cfg, nil
}

func runListKeys(args []string) error {
	fs := flag.NewFlagSet("keys", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	repo, cfg, err := openRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	crypto, err := vault.NewCrypto(cfg.Vault.EncryptionKey)
	if err != nil {
		return err
	}

	creds, err := repo.ListAllCredentials(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROVIDER\tNAME\tKEY\tEXPIRES\tCREATED")
	for _, c := range creds {
		masked := "<undecryptable>"
		if raw, err := crypto.DecryptString(c.EncryptedKey); err == nil {
			masked = vault.MaskSecret(raw)
		}
		expires := "-"
		if c.ExpiresAt != nil {
			expires = c.ExpiresAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Provider, c.NameSlug, masked, expires, c.CreatedAt.UTC().Format(time.RFC3339))
	}
	return w.Flush()
}

func runUsageTail(args []string) error {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	limit := fs.Int("n", 20, "number of records to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	repo, _, err := openRepo(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	records, err := repo.ListRecentUsage(ctx, *limit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tPROVIDER\tMODEL\tSTATUS\tTOKENS\tLATENCY")
	for _, u := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%dms\n",
			u.CreatedAt.UTC().Format(time.RFC3339), u.Provider, u.EndpointOrModel,
			u.StatusCode, u.TotalTokens, u.LatencyMs)
	}
	return w.Flush()
}
